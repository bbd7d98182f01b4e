package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/learncert/internal/errors"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/models"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	token, expires, err := s.AdminAuth.Login(req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("admin login")
	writeJSON(w, r, http.StatusOK, adminLoginResponse{Token: token, ExpiresAt: expires})
}

func (s *Server) handleAdminReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	reviews, err := s.ReviewService.List(r.Context(), limit, offset)
	if err != nil {
		handleError(w, r, err)
		return
	}
	stats, err := s.ReviewService.Stats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"reviews": reviews, "stats": stats})
}

func (s *Server) handleAdminScores(w http.ResponseWriter, r *http.Request) {
	var filter models.CompletionFilter
	var err error
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"section_id", &filter.SectionID},
		{"min_accuracy", &filter.MinAccuracy},
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		if *p.dst, err = queryInt(r, p.name, 0); err != nil {
			handleError(w, r, err)
			return
		}
	}
	filter.UserEmail = r.URL.Query().Get("email")

	rows, err := s.AdminService.Scores(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rows)
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.AdminService.Dashboard(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleAdminUserData(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid email"))
		return
	}
	data, err := s.AdminService.UserData(r.Context(), email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, data)
}

func (s *Server) handleAdminResync(w http.ResponseWriter, r *http.Request) {
	res, err := s.AdminService.Resync(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
