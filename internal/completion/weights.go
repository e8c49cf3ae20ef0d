package completion

import (
	"errors"
	"fmt"
)

// Weights holds every point value and threshold used by the Detector. The
// defaults are empirical; deployments may override them from config.
type Weights struct {
	Answer             int `yaml:"answer"`
	StrongConfirm      int `yaml:"strong_confirmation"`
	MediumConfirm      int `yaml:"medium_confirmation"`
	WeakConfirm        int `yaml:"weak_confirmation"`
	WeakSolvingConfirm int `yaml:"weak_solving_confirmation"`
	HighValuePhrase    int `yaml:"high_value_phrase"`
	MediumValuePhrase  int `yaml:"medium_value_phrase"`
	ExchangeBonus      int `yaml:"exchange_bonus"`
	ClosingBonus       int `yaml:"closing_bonus"`

	// MinExchanges is the number of user→tutor pairs that earns ExchangeBonus.
	MinExchanges     int `yaml:"min_exchanges"`
	// AnswerScanDepth is how many recent user messages are searched for an answer.
	AnswerScanDepth  int `yaml:"answer_scan_depth"`
	// ConfirmScanDepth is how many recent tutor messages are searched for confirmation.
	ConfirmScanDepth int `yaml:"confirm_scan_depth"`
	// ClosingWindow is how many trailing messages may hold the closing user→tutor pair.
	ClosingWindow    int `yaml:"closing_window"`

	CompletedWithAnswer    int `yaml:"completed_with_answer"`
	CompletedWithoutAnswer int `yaml:"completed_without_answer"`
	HighWithAnswer         int `yaml:"high_with_answer"`
	HighWithoutAnswer      int `yaml:"high_without_answer"`
	MediumWithAnswer       int `yaml:"medium_with_answer"`
	MaxScore               int `yaml:"max_score"`
}

// DefaultWeights returns the permissive 50-or-70 verdict variant.
func DefaultWeights() Weights {
	return Weights{
		Answer:             40,
		StrongConfirm:      30,
		MediumConfirm:      20,
		WeakConfirm:        10,
		WeakSolvingConfirm: 20,
		HighValuePhrase:    25,
		MediumValuePhrase:  15,
		ExchangeBonus:      5,
		ClosingBonus:       5,

		MinExchanges:     3,
		AnswerScanDepth:  3,
		ConfirmScanDepth: 2,
		ClosingWindow:    4,

		CompletedWithAnswer:    50,
		CompletedWithoutAnswer: 70,
		HighWithAnswer:         80,
		HighWithoutAnswer:      70,
		MediumWithAnswer:       60,
		MaxScore:               100,
	}
}

// Validate checks that the weights are usable.
func (w Weights) Validate() error {
	var errs []error
	points := map[string]int{
		"answer":                    w.Answer,
		"strong_confirmation":       w.StrongConfirm,
		"medium_confirmation":       w.MediumConfirm,
		"weak_confirmation":         w.WeakConfirm,
		"weak_solving_confirmation": w.WeakSolvingConfirm,
		"high_value_phrase":         w.HighValuePhrase,
		"medium_value_phrase":       w.MediumValuePhrase,
		"exchange_bonus":            w.ExchangeBonus,
		"closing_bonus":             w.ClosingBonus,
	}
	for name, v := range points {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	if w.MaxScore <= 0 {
		errs = append(errs, fmt.Errorf("max_score must be positive, got %d", w.MaxScore))
	}
	if w.AnswerScanDepth < 1 || w.ConfirmScanDepth < 1 {
		errs = append(errs, errors.New("scan depths must be at least 1"))
	}
	if w.ClosingWindow < 2 {
		errs = append(errs, fmt.Errorf("closing_window must be at least 2, got %d", w.ClosingWindow))
	}
	for name, v := range map[string]int{
		"completed_with_answer":    w.CompletedWithAnswer,
		"completed_without_answer": w.CompletedWithoutAnswer,
		"high_with_answer":         w.HighWithAnswer,
		"high_without_answer":      w.HighWithoutAnswer,
		"medium_with_answer":       w.MediumWithAnswer,
	} {
		if v <= 0 || v > w.MaxScore {
			errs = append(errs, fmt.Errorf("%s must be in (0, max_score], got %d", name, v))
		}
	}
	return errors.Join(errs...)
}
