package models

import "time"

type QuestionResponse struct {
	ID             string    `json:"id"`
	UserEmail      string    `json:"user_email"`
	SectionID      int       `json:"section_id"`
	QuestionID     int       `json:"question_id"`
	Answer         string    `json:"answer"`
	IsCorrect      bool      `json:"is_correct"`
	PointsEarned   int       `json:"points_earned"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	RespondedAt    time.Time `json:"responded_at"`
}

type ResponseFilter struct {
	UserEmail string
	SectionID int
	Limit     int
}

// SectionCompletion is the derived summary of a user's performance on a section.
type SectionCompletion struct {
	ID                int64     `json:"id"`
	UserEmail         string    `json:"user_email"`
	SectionID         int       `json:"section_id"`
	QuestionsAnswered int       `json:"questions_answered"`
	QuestionsCorrect  int       `json:"questions_correct"`
	Score             int       `json:"score"`
	Accuracy          int       `json:"accuracy"`
	TimeSpentSeconds  int       `json:"time_spent_seconds"`
	CompletedAt       time.Time `json:"completed_at"`
}

type CompletionFilter struct {
	UserEmail   string
	SectionID   int
	MinAccuracy int
	Limit       int
	Offset      int
}

type SectionProgress struct {
	SectionID         int   `json:"section_id"`
	QuestionCount     int   `json:"question_count"`
	AnsweredQuestions []int `json:"answered_questions"`
	QuestionsCorrect  int   `json:"questions_correct"`
	Accuracy          int   `json:"accuracy"`
	Completed         bool  `json:"completed"`
}

type ScoreSummary struct {
	SectionsCompleted int `json:"sections_completed"`
	QuestionsAnswered int `json:"questions_answered"`
	QuestionsCorrect  int `json:"questions_correct"`
	TotalScore        int `json:"total_score"`
	OverallAccuracy   int `json:"overall_accuracy"`
	TimeSpentSeconds  int `json:"time_spent_seconds"`
}

type SectionScore struct {
	Section    Section            `json:"section"`
	Completion *SectionCompletion `json:"completion,omitempty"`
	Eligible   bool               `json:"certificate_eligible"`
}

type MyScores struct {
	User         User                `json:"user"`
	Sections     []SectionScore      `json:"sections"`
	Summary      ScoreSummary        `json:"summary"`
	Certificates []CertificateRecord `json:"certificates"`
	Master       MasterStatus        `json:"master"`
	Reconciled   int                 `json:"reconciled"`
}

type UserScoreRow struct {
	UserName string `json:"user_name"`
	SectionCompletion
}

// AnswerResult is returned after grading a single answer.
type AnswerResult struct {
	Response      QuestionResponse `json:"response"`
	Correct       bool             `json:"correct"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation"`
}

// CompletionResult is returned when a section is completed.
type CompletionResult struct {
	Completion  SectionCompletion  `json:"completion"`
	Eligible    bool               `json:"certificate_eligible"`
	Certificate *CertificateRecord `json:"certificate,omitempty"`
	Master      MasterStatus       `json:"master"`
}

// Standing is a user's completions after reconciliation against the response log,
// with the certificate records re-evaluated from them.
type Standing struct {
	Completions  []SectionCompletion
	Certificates []CertificateRecord
	// Reconciled counts stale completions that were overwritten.
	Reconciled int
}
