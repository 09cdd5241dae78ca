package game

import (
	"testing"

	"livequiz-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func abcdQuestion() domain.Question {
	return domain.Question{
		Type:         domain.QuestionABCD,
		TimeLimitSec: 20,
		Choices: []domain.Choice{
			{ID: "a", Text: "red"},
			{ID: "b", Text: "green", Correct: true},
			{ID: "c", Text: "blue", Correct: true},
			{ID: "d", Text: "yellow"},
		},
	}
}

func TestClassifyABCD(t *testing.T) {
	q := abcdQuestion()

	tests := []struct {
		name     string
		selected []int
		want     domain.Classification
	}{
		{name: "exact correct set", selected: []int{1, 2}, want: domain.ClassificationCorrect},
		{name: "order does not matter", selected: []int{2, 1}, want: domain.ClassificationCorrect},
		{name: "subset is wrong", selected: []int{1}, want: domain.ClassificationIncorrect},
		{name: "superset is wrong", selected: []int{0, 1, 2}, want: domain.ClassificationIncorrect},
		{name: "disjoint is wrong", selected: []int{0, 3}, want: domain.ClassificationIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Classify(q, domain.AnswerPayload{Selected: tt.selected})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyABCDRejectsBadInput(t *testing.T) {
	q := abcdQuestion()

	_, _, err := Classify(q, domain.AnswerPayload{Selected: []int{7}})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = Classify(q, domain.AnswerPayload{Selected: []int{}})
	require.ErrorIs(t, err, domain.ErrValidation)

	// text payload against an ABCD question must never be coerced
	text := "green"
	_, _, err = Classify(q, domain.AnswerPayload{Text: &text})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifyText(t *testing.T) {
	q := domain.Question{
		Type:        domain.QuestionText,
		TextAnswers: []domain.TextAnswer{{Answer: "paris", CaseSensitive: false}},
	}

	for _, answer := range []string{"paris", "Paris", "PARIS", "Paris ", "  paris\t"} {
		answer := answer
		got, _, err := Classify(q, domain.AnswerPayload{Text: &answer})
		require.NoError(t, err, "answer %q", answer)
		require.Equal(t, domain.ClassificationCorrect, got, "answer %q", answer)
	}

	wrong := "london"
	got, _, err := Classify(q, domain.AnswerPayload{Text: &wrong})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationIncorrect, got)
}

func TestClassifyTextCaseSensitive(t *testing.T) {
	q := domain.Question{
		Type:        domain.QuestionText,
		TextAnswers: []domain.TextAnswer{{Answer: "pH", CaseSensitive: true}},
	}

	exact := "pH"
	got, _, err := Classify(q, domain.AnswerPayload{Text: &exact})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationCorrect, got)

	folded := "ph"
	got, _, err = Classify(q, domain.AnswerPayload{Text: &folded})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationIncorrect, got)
}

func TestClassifyRange(t *testing.T) {
	q := domain.Question{
		Type:  domain.QuestionRange,
		Range: &domain.RangeAnswer{Min: 0, Max: 100, MinCorrect: 40, MaxCorrect: 60},
	}

	inside := 50.0
	got, _, err := Classify(q, domain.AnswerPayload{Value: &inside})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationCorrect, got)

	edge := 40.0
	got, _, err = Classify(q, domain.AnswerPayload{Value: &edge})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationCorrect, got)

	// inside the wide interval but outside the correct one: plain wrong
	nearMiss := 30.0
	got, _, err = Classify(q, domain.AnswerPayload{Value: &nearMiss})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationIncorrect, got)

	// outside the wide interval: rejected, not scored
	outOfBounds := 150.0
	_, _, err = Classify(q, domain.AnswerPayload{Value: &outOfBounds})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifyVoting(t *testing.T) {
	q := domain.Question{
		Type:    domain.QuestionVoting,
		Choices: []domain.Choice{{ID: "a", Text: "cats"}, {ID: "b", Text: "dogs"}},
	}

	vote := 1
	got, _, err := Classify(q, domain.AnswerPayload{Vote: &vote})
	require.NoError(t, err)
	require.Equal(t, domain.ClassificationRecorded, got)

	bad := 5
	_, _, err = Classify(q, domain.AnswerPayload{Vote: &bad})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifyOrder(t *testing.T) {
	q := domain.Question{
		Type:     domain.QuestionOrder,
		Choices:  []domain.Choice{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		OrderKey: []string{"a", "b", "c", "d"},
	}

	tests := []struct {
		name      string
		order     []string
		want      domain.Classification
		wantRatio float64
	}{
		{name: "all positions right", order: []string{"a", "b", "c", "d"}, want: domain.ClassificationCorrect, wantRatio: 1},
		{name: "two positions right", order: []string{"a", "b", "d", "c"}, want: domain.ClassificationPartial, wantRatio: 0.5},
		{name: "one position right", order: []string{"a", "c", "d", "b"}, want: domain.ClassificationPartial, wantRatio: 0.25},
		{name: "full rotation, none right", order: []string{"b", "c", "d", "a"}, want: domain.ClassificationIncorrect, wantRatio: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ratio, err := Classify(q, domain.AnswerPayload{Order: tt.order})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.InDelta(t, tt.wantRatio, ratio, 1e-9)
		})
	}
}

func TestClassifyOrderRejectsNonPermutations(t *testing.T) {
	q := domain.Question{
		Type:     domain.QuestionOrder,
		OrderKey: []string{"a", "b", "c"},
	}

	_, _, err := Classify(q, domain.AnswerPayload{Order: []string{"a", "b"}})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = Classify(q, domain.AnswerPayload{Order: []string{"a", "a", "b"}})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = Classify(q, domain.AnswerPayload{Order: []string{"a", "b", "z"}})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifySlideRejectsEverything(t *testing.T) {
	q := domain.Question{Type: domain.QuestionSlide}

	text := "anything"
	_, _, err := Classify(q, domain.AnswerPayload{Text: &text})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = Classify(q, domain.AnswerPayload{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifyRejectsAmbiguousPayload(t *testing.T) {
	q := abcdQuestion()
	text := "green"
	_, _, err := Classify(q, domain.AnswerPayload{Selected: []int{1, 2}, Text: &text})
	require.ErrorIs(t, err, domain.ErrValidation)
}
