package api

import (
	"net/http"
)

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	user, err := s.UserService.Login(r.Context(), req.Name, req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}

	s.setUserCookie(w, user.Email)
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearUserCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := s.UserService.Delete(r.Context(), user.Email); err != nil {
		handleError(w, r, err)
		return
	}
	s.clearUserCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := s.UserService.ClearProgress(r.Context(), user.Email); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
