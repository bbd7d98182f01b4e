// Package catalog holds the built-in course content: sections and their questions.
package catalog

import (
	"strconv"
	"strings"

	"github.com/vytor/learncert/internal/models"
)

var sections = []models.Section{
	{
		ID:            1,
		Slug:          "section-1",
		Title:         "OpenAI Comprehensive Training",
		Description:   "Models, prompting, the API surface, safety practices and responsible deployment.",
		Difficulty:    "intermediate",
		QuestionCount: 8,
	},
}

var questions = map[int][]models.Question{
	1: {
		{
			ID: 1, SectionID: 1, Type: models.QuestionTypeMultipleChoice,
			Text:             "Which parameter most directly controls the randomness of a model's sampled output?",
			Options:          []string{"max_tokens", "temperature", "stop", "n"},
			CorrectAnswer:    "1",
			Explanation:      "Temperature rescales token probabilities; lower values make output more deterministic.",
			TimeLimitSeconds: 60, Points: 10,
		},
		{
			ID: 2, SectionID: 1, Type: models.QuestionTypeTrueFalse,
			Text:             "A system message can be used to set the assistant's behaviour for a whole conversation.",
			CorrectAnswer:    "true",
			Explanation:      "System messages establish instructions and persona that apply to later turns.",
			TimeLimitSeconds: 30, Points: 10,
		},
		{
			ID: 3, SectionID: 1, Type: models.QuestionTypeMultipleChoice,
			Text:             "What is a token in the context of large language models?",
			Options:          []string{"An API key", "A chunk of text the model reads and writes", "A billing invoice", "A fine-tuning job"},
			CorrectAnswer:    "1",
			Explanation:      "Models process text as tokens, which are pieces of words; usage and limits are counted in tokens.",
			TimeLimitSeconds: 60, Points: 10,
		},
		{
			ID: 4, SectionID: 1, Type: models.QuestionTypeMultipleChoice,
			Text:             "Which technique grounds model answers in your own documents at query time?",
			Options:          []string{"Retrieval-augmented generation", "Increasing temperature", "Lowering max_tokens", "Using more stop sequences"},
			CorrectAnswer:    "0",
			Explanation:      "Retrieval-augmented generation fetches relevant passages and places them in the prompt.",
			TimeLimitSeconds: 60, Points: 10,
		},
		{
			ID: 5, SectionID: 1, Type: models.QuestionTypeTrueFalse,
			Text:             "Embeddings are primarily used to generate long-form text.",
			CorrectAnswer:    "false",
			Explanation:      "Embeddings map text to vectors for similarity search, clustering and classification.",
			TimeLimitSeconds: 30, Points: 10,
		},
		{
			ID: 6, SectionID: 1, Type: models.QuestionTypeMultipleChoice,
			Text:             "Where should API keys be stored in a web application?",
			Options:          []string{"In client-side JavaScript", "In a public repository", "On the server, in environment variables or a secret manager", "In the page URL"},
			CorrectAnswer:    "2",
			Explanation:      "Keys must never be exposed to browsers; keep them server-side.",
			TimeLimitSeconds: 60, Points: 10,
		},
		{
			ID: 7, SectionID: 1, Type: models.QuestionTypeMultipleChoice,
			Text:             "What does function calling let a model do?",
			Options:          []string{"Execute arbitrary code on its own", "Return structured arguments for tools your code runs", "Browse the web without permission", "Change its own weights"},
			CorrectAnswer:    "1",
			Explanation:      "The model proposes a function name and JSON arguments; your application decides whether to run it.",
			TimeLimitSeconds: 60, Points: 10,
		},
		{
			ID: 8, SectionID: 1, Type: models.QuestionTypeTrueFalse,
			Text:             "Model outputs should be reviewed for accuracy before being relied on in high-stakes decisions.",
			CorrectAnswer:    "true",
			Explanation:      "Models can produce confident but incorrect answers; human review is part of responsible use.",
			TimeLimitSeconds: 30, Points: 10,
		},
	},
}

// Sections returns every section in catalog order.
func Sections() []models.Section {
	out := make([]models.Section, len(sections))
	copy(out, sections)
	return out
}

// Section looks up a section by id.
func Section(id int) (models.Section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return models.Section{}, false
}

// Questions returns a copy of the questions of a section.
func Questions(sectionID int) []models.Question {
	qs := questions[sectionID]
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Question looks up a single question within a section.
func Question(sectionID, questionID int) (models.Question, bool) {
	for _, q := range Questions(sectionID) {
		if q.ID == questionID {
			return q, true
		}
	}
	return models.Question{}, false
}

// Grade reports whether answer is correct for q. Multiple-choice answers may be
// given as the option index or the option text; true-false answers as true/false.
func Grade(q models.Question, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}

	switch q.Type {
	case models.QuestionTypeTrueFalse:
		answer = strings.ToLower(answer)
		if answer != "true" && answer != "false" {
			return false
		}
		return answer == strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	case models.QuestionTypeMultipleChoice:
		idx, err := strconv.Atoi(q.CorrectAnswer)
		if err != nil || idx < 0 || idx >= len(q.Options) {
			return false
		}
		if n, err := strconv.Atoi(answer); err == nil {
			return n == idx
		}
		return strings.EqualFold(answer, strings.TrimSpace(q.Options[idx]))
	default:
		return strings.EqualFold(answer, strings.TrimSpace(q.CorrectAnswer))
	}
}

// CorrectAnswerText renders the answer key in human form.
func CorrectAnswerText(q models.Question) string {
	if q.Type == models.QuestionTypeMultipleChoice {
		if idx, err := strconv.Atoi(q.CorrectAnswer); err == nil && idx >= 0 && idx < len(q.Options) {
			return q.Options[idx]
		}
	}
	return q.CorrectAnswer
}
