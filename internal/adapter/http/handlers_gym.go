package adapthttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"gymos/internal/app"
	"gymos/internal/domain"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"member": memberFrom(r.Context()),
		"role":   caller.Role,
	})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req app.PlanRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := s.svc.CheckIns.Submit(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.CheckIns.Progress(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = domain.UnitKg
	}
	memberID := caller.MemberID
	if m := r.URL.Query().Get("member"); m != "" {
		memberID = domain.MemberID(m)
	}

	points, err := s.svc.History.Chart(r.Context(), caller, memberID, unit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit, "points": points})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.svc.Scanner.MaxBytes())
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("image exceeds %d bytes", limit))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	est, err := s.svc.Scanner.Scan(r.Context(), callerFrom(r.Context()), body, r.Header.Get("Content-Type"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.BuildReport(r.Context(), callerFrom(r.Context()), s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if q := r.URL.Query().Get("status"); q != "" {
		status, err := domain.ParseMemberStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rep.Rows = rep.Filter(status)
		if rep.Rows == nil {
			rep.Rows = []app.ReportRow{}
		}
	}
	writeJSON(w, http.StatusOK, rep)
}
