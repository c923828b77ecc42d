package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"gymos/internal/app"
	"gymos/internal/metrics"

	"go.uber.org/zap"
)

// Services are the application services the HTTP adapter drives.
type Services struct {
	Auth     *app.AuthService
	CheckIns *app.CheckInService
	History  *app.HistoryService
	Reports  *app.ReportService
	Scanner  *app.FoodScanner
}

// Options configure the HTTP adapter.
type Options struct {
	WebDir  string
	GymName string
	// ForwardAuth trusts the Remote-User header of an auth proxy.
	ForwardAuth bool
	// OIDC enables SSO when non-nil.
	OIDC *OIDCConfig
	// AIRatePerMinute and AIBurst bound check-ins and scans per member.
	AIRatePerMinute float64
	AIBurst         int
	Log             *zap.Logger
	Metrics         *metrics.Recorder
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc     Services
	opts    Options
	log     *zap.Logger
	metrics *metrics.Recorder
	limiter *memberLimiter
	now     func() time.Time
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		svc:     svc,
		opts:    opts,
		log:     log,
		metrics: opts.Metrics,
		limiter: newMemberLimiter(opts.AIRatePerMinute, opts.AIBurst),
		now:     time.Now,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /api/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))
	s.route(mux, "GET /api/config", http.HandlerFunc(s.handleConfig))

	s.route(mux, "POST /api/auth/login", http.HandlerFunc(s.handleLogin))
	s.route(mux, "POST /api/auth/logout", http.HandlerFunc(s.handleLogout))
	s.route(mux, "POST /api/auth/setup", http.HandlerFunc(s.handleSetupUser))
	s.route(mux, "GET /api/auth/sso/login", http.HandlerFunc(s.handleSSOLogin))
	s.route(mux, "GET /api/auth/sso/callback", http.HandlerFunc(s.handleSSOCallback))

	s.route(mux, "GET /api/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))
	s.route(mux, "POST /api/checkins", s.authMiddleware(s.rateLimit(http.HandlerFunc(s.handleCheckIn))))
	s.route(mux, "GET /api/progress", s.authMiddleware(http.HandlerFunc(s.handleProgress)))
	s.route(mux, "GET /api/history/chart", s.authMiddleware(http.HandlerFunc(s.handleChart)))
	s.route(mux, "POST /api/scan", s.authMiddleware(s.rateLimit(http.HandlerFunc(s.handleScan))))
	s.route(mux, "GET /api/admin/report", s.authMiddleware(http.HandlerFunc(s.handleReport)))

	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	}))
	mux.Handle("GET /", spaFromDisk(s.opts.WebDir))

	return withRequestID(s.loggingMiddleware(withNoCache(mux)))
}

// route registers h under pattern and records request metrics labeled with
// the pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.metrics.HTTPRequest(pattern, r.Method, rec.status, time.Since(start))
	}))
}
