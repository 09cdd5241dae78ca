package game

import (
	"fmt"
	"strings"

	"livequiz-service/internal/domain"
)

// Classify judges a submitted payload against a question's answer key and
// returns the verdict plus the earned fraction of full credit (1 for correct,
// 0 for incorrect, the position-match ratio for partial order answers).
//
// Dispatch is keyed strictly off the question's declared type; a payload
// whose shape does not match that type is rejected with ErrValidation rather
// than coerced, so a stray free-text answer can never be scored as a vote.
func Classify(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	switch q.Type {
	case domain.QuestionABCD:
		return classifyABCD(q, p)
	case domain.QuestionText:
		return classifyText(q, p)
	case domain.QuestionRange:
		return classifyRange(q, p)
	case domain.QuestionVoting:
		return classifyVoting(q, p)
	case domain.QuestionOrder:
		return classifyOrder(q, p)
	case domain.QuestionSlide:
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: slide accepts no answers", domain.ErrValidation)
	default:
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, q.Type)
	}
}

func classifyABCD(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	if p.Selected == nil || !onlySelected(p) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: ABCD question expects selected option indices", domain.ErrValidation)
	}

	selected := make(map[int]struct{}, len(p.Selected))
	for _, idx := range p.Selected {
		if idx < 0 || idx >= len(q.Choices) {
			return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: option index %d out of range", domain.ErrValidation, idx)
		}
		selected[idx] = struct{}{}
	}
	if len(selected) == 0 {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: no option selected", domain.ErrValidation)
	}

	// Exact set equality; a superset or subset of the correct options is
	// wrong, which covers single- and multi-select alike.
	correct := 0
	for idx, choice := range q.Choices {
		if !choice.Correct {
			continue
		}
		correct++
		if _, ok := selected[idx]; !ok {
			return domain.ClassificationIncorrect, 0, nil
		}
	}
	if len(selected) != correct {
		return domain.ClassificationIncorrect, 0, nil
	}
	return domain.ClassificationCorrect, 1, nil
}

func classifyText(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	if p.Text == nil || !onlyText(p) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: TEXT question expects a text answer", domain.ErrValidation)
	}

	given := strings.TrimSpace(*p.Text)
	for _, accepted := range q.TextAnswers {
		want := strings.TrimSpace(accepted.Answer)
		if accepted.CaseSensitive {
			if given == want {
				return domain.ClassificationCorrect, 1, nil
			}
		} else if strings.EqualFold(given, want) {
			return domain.ClassificationCorrect, 1, nil
		}
	}
	return domain.ClassificationIncorrect, 0, nil
}

func classifyRange(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	if p.Value == nil || !onlyValue(p) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: RANGE question expects a numeric value", domain.ErrValidation)
	}
	if q.Range == nil {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: question has no range key", domain.ErrValidation)
	}

	v := *p.Value
	// The wide interval only bounds input; it never awards points.
	if v < q.Range.Min || v > q.Range.Max {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: value %v outside allowed range [%v, %v]", domain.ErrValidation, v, q.Range.Min, q.Range.Max)
	}
	if v >= q.Range.MinCorrect && v <= q.Range.MaxCorrect {
		return domain.ClassificationCorrect, 1, nil
	}
	return domain.ClassificationIncorrect, 0, nil
}

func classifyVoting(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	if p.Vote == nil || !onlyVote(p) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: VOTING question expects a vote index", domain.ErrValidation)
	}
	if *p.Vote < 0 || *p.Vote >= len(q.Choices) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: vote index %d out of range", domain.ErrValidation, *p.Vote)
	}
	// Votes have no right answer; participation is all that is recorded.
	return domain.ClassificationRecorded, 0, nil
}

// classifyOrder grades by absolute-position matches: the earned fraction is
// the share of positions whose choice id equals the canonical order's id at
// that position. All right is correct, none right is incorrect, anything in
// between is partial.
func classifyOrder(q domain.Question, p domain.AnswerPayload) (domain.Classification, float64, error) {
	if p.Order == nil || !onlyOrder(p) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: ORDER question expects an ordered id list", domain.ErrValidation)
	}
	if len(p.Order) != len(q.OrderKey) {
		return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: expected %d ordered ids, got %d", domain.ErrValidation, len(q.OrderKey), len(p.Order))
	}

	seen := make(map[string]struct{}, len(p.Order))
	valid := make(map[string]struct{}, len(q.OrderKey))
	for _, id := range q.OrderKey {
		valid[id] = struct{}{}
	}
	for _, id := range p.Order {
		if _, ok := valid[id]; !ok {
			return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: unknown choice id %q", domain.ErrValidation, id)
		}
		if _, dup := seen[id]; dup {
			return domain.ClassificationIncorrect, 0, fmt.Errorf("%w: duplicate choice id %q", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	matches := 0
	for i, id := range p.Order {
		if id == q.OrderKey[i] {
			matches++
		}
	}
	ratio := float64(matches) / float64(len(q.OrderKey))
	switch {
	case matches == len(q.OrderKey):
		return domain.ClassificationCorrect, 1, nil
	case matches == 0:
		return domain.ClassificationIncorrect, 0, nil
	default:
		return domain.ClassificationPartial, ratio, nil
	}
}

func onlySelected(p domain.AnswerPayload) bool {
	return p.Text == nil && p.Value == nil && p.Vote == nil && p.Order == nil
}

func onlyText(p domain.AnswerPayload) bool {
	return p.Selected == nil && p.Value == nil && p.Vote == nil && p.Order == nil
}

func onlyValue(p domain.AnswerPayload) bool {
	return p.Selected == nil && p.Text == nil && p.Vote == nil && p.Order == nil
}

func onlyVote(p domain.AnswerPayload) bool {
	return p.Selected == nil && p.Text == nil && p.Value == nil && p.Order == nil
}

func onlyOrder(p domain.AnswerPayload) bool {
	return p.Selected == nil && p.Text == nil && p.Value == nil && p.Vote == nil
}
