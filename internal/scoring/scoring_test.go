package scoring_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learncert/internal/models"
	"github.com/vytor/learncert/internal/scoring"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func response(q int, correct bool, offset time.Duration) models.QuestionResponse {
	r := models.QuestionResponse{
		UserEmail:   "ada@example.com",
		SectionID:   1,
		QuestionID:  q,
		IsCorrect:   correct,
		RespondedAt: base.Add(offset),
	}
	if correct {
		r.PointsEarned = 10
	}
	return r
}

func TestAccuracy_RoundsLikeMathRound(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for k := 0; k <= n; k++ {
			want := int(math.Round(float64(100*k) / float64(n)))
			assert.Equal(t, want, scoring.Accuracy(k, n), "k=%d n=%d", k, n)
		}
	}
}

func TestAccuracy_EdgeCases(t *testing.T) {
	assert.Equal(t, 0, scoring.Accuracy(0, 0))
	assert.Equal(t, 0, scoring.Accuracy(3, 0))
	assert.Equal(t, 13, scoring.Accuracy(1, 8))
	assert.Equal(t, 88, scoring.Accuracy(7, 8))
	assert.Equal(t, 100, scoring.Accuracy(8, 8))
}

func TestLatestResponses_KeepsNewestPerQuestion(t *testing.T) {
	log := []models.QuestionResponse{
		response(2, false, 0),
		response(1, true, time.Minute),
		response(2, true, 2*time.Minute),
		response(1, false, -time.Minute),
	}

	latest := scoring.LatestResponses(log)
	require.Len(t, latest, 2)
	assert.Equal(t, 1, latest[0].QuestionID)
	assert.True(t, latest[0].IsCorrect)
	assert.Equal(t, 2, latest[1].QuestionID)
	assert.True(t, latest[1].IsCorrect)
}

func TestReconcile_FixesStaleSummary(t *testing.T) {
	stale := models.SectionCompletion{
		UserEmail:         "ada@example.com",
		SectionID:         1,
		QuestionsAnswered: 8,
		QuestionsCorrect:  2,
		Accuracy:          25,
		Score:             20,
		TimeSpentSeconds:  300,
	}
	var log []models.QuestionResponse
	for q := 1; q <= 8; q++ {
		log = append(log, response(q, q != 8, time.Duration(q)*time.Second))
	}
	log = append(log, models.QuestionResponse{UserEmail: "other@example.com", SectionID: 1, QuestionID: 1})

	got, changed := scoring.Reconcile(stale, log)

	assert.True(t, changed)
	assert.Equal(t, 8, got.QuestionsAnswered)
	assert.Equal(t, 7, got.QuestionsCorrect)
	assert.Equal(t, 88, got.Accuracy)
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, 300, got.TimeSpentSeconds)
}

func TestReconcile_NoChangeWhenCurrent(t *testing.T) {
	current := models.SectionCompletion{
		UserEmail: "ADA@example.com", SectionID: 1,
		QuestionsAnswered: 2, QuestionsCorrect: 1, Accuracy: 50, Score: 10,
	}
	log := []models.QuestionResponse{response(1, true, 0), response(2, false, 0)}

	got, changed := scoring.Reconcile(current, log)
	assert.False(t, changed)
	assert.Equal(t, current, got)
}

func TestReconcile_EmptyLogLeavesRecord(t *testing.T) {
	c := models.SectionCompletion{UserEmail: "ada@example.com", SectionID: 1, QuestionsAnswered: 4, Accuracy: 75}
	got, changed := scoring.Reconcile(c, nil)
	assert.False(t, changed)
	assert.Equal(t, c, got)
}

func TestDedupeCompletions_KeepsMostRecent(t *testing.T) {
	completions := []models.SectionCompletion{
		{ID: 1, UserEmail: "ada@example.com", SectionID: 1, Accuracy: 50, CompletedAt: base},
		{ID: 2, UserEmail: "Ada@Example.com", SectionID: 1, Accuracy: 90, CompletedAt: base.Add(time.Hour)},
		{ID: 3, UserEmail: "ada@example.com", SectionID: 1, Accuracy: 70, CompletedAt: base.Add(30 * time.Minute)},
		{ID: 4, UserEmail: "ada@example.com", SectionID: 2, Accuracy: 60, CompletedAt: base},
		{ID: 5, UserEmail: "bob@example.com", SectionID: 1, Accuracy: 10, CompletedAt: base},
	}

	got := scoring.DedupeCompletions(completions)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, int64(5), got[2].ID)
}

func TestDedupeCompletions_TieKeepsLater(t *testing.T) {
	got := scoring.DedupeCompletions([]models.SectionCompletion{
		{ID: 1, UserEmail: "ada@example.com", SectionID: 1, CompletedAt: base},
		{ID: 2, UserEmail: "ada@example.com", SectionID: 1, CompletedAt: base},
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestSectionEligible(t *testing.T) {
	rules := scoring.DefaultRules()
	assert.False(t, scoring.SectionEligible(59, rules))
	assert.True(t, scoring.SectionEligible(60, rules))
	assert.True(t, scoring.SectionEligible(100, rules))
}

func TestMasterEligible(t *testing.T) {
	rules := scoring.DefaultRules()

	tests := []struct {
		name        string
		completions []models.SectionCompletion
		want        bool
		reason      string
	}{
		{
			name: "no sections",
			want: false, reason: "complete at least 1 section",
		},
		{
			name: "below accuracy",
			completions: []models.SectionCompletion{
				{UserEmail: "a@x.io", SectionID: 1, QuestionsAnswered: 10, QuestionsCorrect: 7},
			},
			want: false, reason: "overall accuracy 70%",
		},
		{
			name: "exactly eighty",
			completions: []models.SectionCompletion{
				{UserEmail: "a@x.io", SectionID: 1, QuestionsAnswered: 10, QuestionsCorrect: 8},
			},
			want: true,
		},
		{
			name: "overall across sections",
			completions: []models.SectionCompletion{
				{UserEmail: "a@x.io", SectionID: 1, QuestionsAnswered: 8, QuestionsCorrect: 8},
				{UserEmail: "a@x.io", SectionID: 2, QuestionsAnswered: 8, QuestionsCorrect: 5},
			},
			want: true,
		},
		{
			name: "duplicates do not inflate totals",
			completions: []models.SectionCompletion{
				{UserEmail: "a@x.io", SectionID: 1, QuestionsAnswered: 8, QuestionsCorrect: 8, CompletedAt: base},
				{UserEmail: "a@x.io", SectionID: 1, QuestionsAnswered: 8, QuestionsCorrect: 4, CompletedAt: base.Add(time.Hour)},
			},
			want: false, reason: "overall accuracy 50%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := scoring.MasterEligible(tt.completions, rules)
			assert.Equal(t, tt.want, status.Eligible)
			if tt.reason != "" {
				assert.Contains(t, status.Reason, tt.reason)
			} else {
				assert.Empty(t, status.Reason)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	sum := scoring.Summarize([]models.SectionCompletion{
		{QuestionsAnswered: 8, QuestionsCorrect: 6, Score: 60, TimeSpentSeconds: 120},
		{QuestionsAnswered: 4, QuestionsCorrect: 4, Score: 40, TimeSpentSeconds: 60},
	})

	assert.Equal(t, models.ScoreSummary{
		SectionsCompleted: 2,
		QuestionsAnswered: 12,
		QuestionsCorrect:  10,
		TotalScore:        100,
		OverallAccuracy:   83,
		TimeSpentSeconds:  180,
	}, sum)
}
