package api

import (
	"net/http"
)

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.LearningService.Sections(r.Context()))
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	section, err := s.LearningService.Section(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, section)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	questions, err := s.LearningService.Questions(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, questions)
}

func (s *Server) handleSectionProgress(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	user := userFromContext(r.Context())
	progress, err := s.LearningService.SectionProgress(r.Context(), user.Email, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progress)
}

type answerRequest struct {
	QuestionID     int    `json:"question_id"`
	Answer         string `json:"answer"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	user := userFromContext(r.Context())
	result, err := s.LearningService.SubmitAnswer(r.Context(), user.Email, id, req.QuestionID, req.Answer, req.ResponseTimeMs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

type completeRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

func (s *Server) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req completeRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	user := userFromContext(r.Context())
	result, err := s.LearningService.CompleteSection(r.Context(), user.Email, id, req.TimeSpentSeconds)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
