package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"kakeibo/internal/log"
	"kakeibo/internal/middleware/authn"
)

const defaultNotificationLimit = 50

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
			"rejected":       s.rateLimiter.Rejected(),
		},
	}
	status, code := "ready", http.StatusOK
	if err := s.repo.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["database"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "register", err)
		return
	}
	session, err := s.svc.Accounts.Register(r.Context(), strings.TrimSpace(req.Email), sanitizeInput(req.DisplayName), req.Password)
	if err != nil {
		ServiceError(w, r, "register", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(sessionJSON{Token: session.Token, User: toUserJSON(session.User)}).Write(w)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "login", err)
		return
	}
	session, err := s.svc.Accounts.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		ServiceError(w, r, "login", err)
		return
	}
	NewJSONResponse().Body(sessionJSON{Token: session.Token, User: toUserJSON(session.User)}).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Accounts.Me(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "me", err)
		return
	}
	NewJSONResponse().Body(toUserJSON(u)).Write(w)
}

// handleNotifications lists the alerts written by the ledger worker.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseIntQuery(r.URL.Query(), "limit")
	if err != nil {
		ServiceError(w, r, "list_notifications", err)
		return
	}
	if limit == 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	logs, err := s.repo.ListNotificationLogs(r.Context(), authn.UserID(r.Context()), limit)
	if err != nil {
		ServiceError(w, r, "list_notifications", err)
		return
	}
	NewJSONResponse().Body(toNotificationsJSON(logs)).Write(w)
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ic, err := s.svc.Couples.CreateInvite(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "create_invite", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(inviteJSON{Code: ic.Code, ExpiresAt: ic.ExpiresAt}).Write(w)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleJoinCouple(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "join_couple", err)
		return
	}
	userID := authn.UserID(r.Context())
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.svc.Couples.Join(r.Context(), userID, code); err != nil {
		ServiceError(w, r, "join_couple", err)
		return
	}
	s.writeCouple(w, r, userID, http.StatusCreated)
}

func (s *Server) handleGetCouple(w http.ResponseWriter, r *http.Request) {
	s.writeCouple(w, r, authn.UserID(r.Context()), http.StatusOK)
}

func (s *Server) writeCouple(w http.ResponseWriter, r *http.Request, userID string, status int) {
	view, err := s.svc.Couples.Get(r.Context(), userID)
	if err != nil {
		ServiceError(w, r, "get_couple", err)
		return
	}
	NewJSONResponse().Status(status).Body(coupleJSON{
		ID:        view.Couple.ID,
		Partner:   toUserJSON(view.Partner),
		CreatedAt: view.Couple.CreatedAt,
	}).Write(w)
}

func (s *Server) handleLeaveCouple(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Couples.Leave(r.Context(), authn.UserID(r.Context())); err != nil {
		ServiceError(w, r, "leave_couple", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
