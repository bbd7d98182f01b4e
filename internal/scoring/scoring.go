// Package scoring derives section completions and certificate eligibility
// from the raw response log.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vytor/learncert/internal/models"
)

// Rules holds the certificate thresholds, in whole percent.
type Rules struct {
	SectionAccuracy   int
	MasterAccuracy    int
	MasterMinSections int
}

// DefaultRules returns the stock thresholds: 60% for a section certificate,
// 80% overall with at least one completed section for the master certificate.
func DefaultRules() Rules {
	return Rules{SectionAccuracy: 60, MasterAccuracy: 80, MasterMinSections: 1}
}

// Accuracy returns round(correct/total*100), rounding halves up. Zero total yields 0.
func Accuracy(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// LatestResponses keeps the most recent response per (section, question),
// ordered by section then question id.
func LatestResponses(responses []models.QuestionResponse) []models.QuestionResponse {
	type key struct{ section, question int }
	latest := make(map[key]models.QuestionResponse, len(responses))
	for _, r := range responses {
		k := key{r.SectionID, r.QuestionID}
		if prev, ok := latest[k]; ok && prev.RespondedAt.After(r.RespondedAt) {
			continue
		}
		latest[k] = r
	}

	out := make([]models.QuestionResponse, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}

// Tally counts answered, correct and earned points over the latest response per question.
func Tally(responses []models.QuestionResponse) (answered, correct, score int) {
	for _, r := range LatestResponses(responses) {
		answered++
		if r.IsCorrect {
			correct++
			score += r.PointsEarned
		}
	}
	return answered, correct, score
}

// Reconcile recomputes the totals of c from the response log, ignoring responses
// that belong to another user or section. It reports whether c changed.
// An empty log leaves c untouched.
func Reconcile(c models.SectionCompletion, responses []models.QuestionResponse) (models.SectionCompletion, bool) {
	relevant := make([]models.QuestionResponse, 0, len(responses))
	for _, r := range responses {
		if r.SectionID == c.SectionID && strings.EqualFold(r.UserEmail, c.UserEmail) {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		return c, false
	}

	answered, correct, score := Tally(relevant)
	updated := c
	updated.QuestionsAnswered = answered
	updated.QuestionsCorrect = correct
	updated.Score = score
	updated.Accuracy = Accuracy(correct, answered)

	changed := updated.QuestionsAnswered != c.QuestionsAnswered ||
		updated.QuestionsCorrect != c.QuestionsCorrect ||
		updated.Score != c.Score ||
		updated.Accuracy != c.Accuracy
	return updated, changed
}

// DedupeCompletions collapses records sharing (user, section) to the one with the
// latest CompletedAt. On equal timestamps the later element wins.
func DedupeCompletions(completions []models.SectionCompletion) []models.SectionCompletion {
	type key struct {
		email   string
		section int
	}
	best := make(map[key]models.SectionCompletion, len(completions))
	for _, c := range completions {
		k := key{strings.ToLower(c.UserEmail), c.SectionID}
		if prev, ok := best[k]; ok && prev.CompletedAt.After(c.CompletedAt) {
			continue
		}
		best[k] = c
	}

	out := make([]models.SectionCompletion, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := strings.ToLower(out[i].UserEmail), strings.ToLower(out[j].UserEmail)
		if ei != ej {
			return ei < ej
		}
		return out[i].SectionID < out[j].SectionID
	})
	return out
}

// SectionEligible reports whether a section accuracy earns a section certificate.
func SectionEligible(accuracy int, rules Rules) bool {
	return accuracy >= rules.SectionAccuracy
}

// Summarize totals a set of (already deduplicated) completions.
func Summarize(completions []models.SectionCompletion) models.ScoreSummary {
	var s models.ScoreSummary
	for _, c := range completions {
		s.SectionsCompleted++
		s.QuestionsAnswered += c.QuestionsAnswered
		s.QuestionsCorrect += c.QuestionsCorrect
		s.TotalScore += c.Score
		s.TimeSpentSeconds += c.TimeSpentSeconds
	}
	s.OverallAccuracy = Accuracy(s.QuestionsCorrect, s.QuestionsAnswered)
	return s
}

// MasterEligible evaluates the master certificate: at least MasterMinSections
// completed and overall accuracy of at least MasterAccuracy.
func MasterEligible(completions []models.SectionCompletion, rules Rules) models.MasterStatus {
	sum := Summarize(DedupeCompletions(completions))
	status := models.MasterStatus{
		SectionsCompleted: sum.SectionsCompleted,
		OverallAccuracy:   sum.OverallAccuracy,
	}

	switch {
	case sum.SectionsCompleted < rules.MasterMinSections:
		status.Reason = fmt.Sprintf("complete at least %d section(s); %d completed", rules.MasterMinSections, sum.SectionsCompleted)
	case sum.OverallAccuracy < rules.MasterAccuracy:
		status.Reason = fmt.Sprintf("overall accuracy %d%% is below the required %d%%", sum.OverallAccuracy, rules.MasterAccuracy)
	default:
		status.Eligible = true
	}
	return status
}
