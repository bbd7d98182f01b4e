package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	scores, err := s.ProgressService.MyScores(r.Context(), user.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, scores)
}

func (s *Server) handleCertificates(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	certs, err := s.CertificateService.List(r.Context(), user.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, certs)
}

func (s *Server) handleMasterStatus(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	status, err := s.CertificateService.MasterStatus(r.Context(), user.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleDownloadCertificate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	sectionID, err := queryInt(r, "section_id", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	user := userFromContext(r.Context())
	cert, err := s.CertificateService.Download(r.Context(), user.Email, kind, sectionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cert)
}
