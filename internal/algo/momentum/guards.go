package momentum

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonFiniteInput is returned when the price series contains NaN or Inf.
	ErrNonFiniteInput = errors.New("non-finite price")
	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("invalid momentum config")
)

// GuardResult reports the outcome of an input guard.
type GuardResult struct {
	Pass   bool   `json:"pass"`
	Index  int    `json:"index,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CheckFinite rejects series containing NaN or ±Inf, reporting the first
// offending index.
func CheckFinite(prices []float64) GuardResult {
	for i, p := range prices {
		if math.IsNaN(p) {
			return GuardResult{Pass: false, Index: i, Reason: "NaN price"}
		}
		if math.IsInf(p, 0) {
			return GuardResult{Pass: false, Index: i, Reason: "infinite price"}
		}
	}
	return GuardResult{Pass: true}
}

func validateInput(prices []float64) error {
	if g := CheckFinite(prices); !g.Pass {
		return fmt.Errorf("%w at index %d: %s", ErrNonFiniteInput, g.Index, g.Reason)
	}
	return nil
}
