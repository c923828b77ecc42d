package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"gymos/internal/app"
	"gymos/internal/domain"
	"gymos/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	callerContextKey contextKey = "caller"
	memberContextKey contextKey = "member"
)

const requestIDHeader = "X-Request-ID"

func callerFrom(ctx context.Context) domain.Caller {
	c, _ := ctx.Value(callerContextKey).(domain.Caller)
	return c
}

func memberFrom(ctx context.Context) *domain.Member {
	m, _ := ctx.Value(memberContextKey).(*domain.Member)
	return m
}

func withIdentity(r *http.Request, c domain.Caller, m *domain.Member) *http.Request {
	ctx := context.WithValue(r.Context(), callerContextKey, c)
	ctx = context.WithValue(ctx, memberContextKey, m)
	return r.WithContext(ctx)
}

// authMiddleware validates forward auth headers and session cookies and puts
// the caller on the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.ForwardAuth {
			if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
				caller, m, err := s.svc.Auth.ValidateForwardAuth(r.Context(), remoteUser)
				if err == nil {
					next.ServeHTTP(w, withIdentity(r, caller, m))
					return
				}
				logging.FromContext(r.Context(), s.log).Warn("forward auth rejected", zap.Error(err))
			}
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		caller, m, err := s.svc.Auth.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, withIdentity(r, caller, m))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID reuses the inbound X-Request-ID or generates one, echoes it,
// and stores it on the request context for logging.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs method, path, status and duration of every request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.FromContext(r.Context(), s.log).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// memberLimiter keeps one token bucket per member.
type memberLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[domain.MemberID]*rate.Limiter
}

// newMemberLimiter allows perMinute requests per member with the given
// burst. A non-positive rate disables limiting.
func newMemberLimiter(perMinute float64, burst int) *memberLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &memberLimiter{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		limiters: make(map[domain.MemberID]*rate.Limiter),
	}
}

func (l *memberLimiter) allow(id domain.MemberID) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[id] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// rateLimit rejects requests beyond the caller's budget with 429. It must run
// inside authMiddleware.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(callerFrom(r.Context()).MemberID) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, errors.New("too many requests, try again in a minute"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
