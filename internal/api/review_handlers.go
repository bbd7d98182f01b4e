package api

import (
	"net/http"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	user := userFromContext(r.Context())
	review, err := s.ReviewService.Create(r.Context(), user.Email, req.Rating, req.Comment)
	if err != nil {
		handleError(w, r, err)
		return
	}
	review.UserName = user.Name
	writeJSON(w, r, http.StatusCreated, review)
}

// handleTransparency exposes aggregate review statistics without personal data.
func (s *Server) handleTransparency(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ReviewService.Stats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
