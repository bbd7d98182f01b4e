package models

const (
	QuestionTypeMultipleChoice = "multiple-choice"
	QuestionTypeTrueFalse      = "true-false"
)

type Section struct {
	ID            int    `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

// Question is a quiz item. For multiple-choice questions CorrectAnswer holds the
// option index as a decimal string; for true-false it holds "true" or "false".
type Question struct {
	ID               int      `json:"id"`
	SectionID        int      `json:"section_id"`
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Options          []string `json:"options,omitempty"`
	CorrectAnswer    string   `json:"correct_answer,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Points           int      `json:"points"`
}

// Public returns a copy with the answer key stripped.
func (q Question) Public() Question {
	q.CorrectAnswer = ""
	q.Explanation = ""
	return q
}
