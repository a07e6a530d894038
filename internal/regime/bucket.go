package regime

import (
	"math"
	"strings"

	"github.com/sawpanic/momentumscore/internal/domain/indicators"
)

// Bucket is a coarse classification of market behaviour used to select
// indicator mixing weights.
type Bucket int

const (
	Trend Bucket = iota
	Range
	Extreme
	// Default is a reserved table entry. Classify never returns it.
	Default
)

// Classification thresholds.
const (
	ExtremeZ         = 2.0
	TrendMaxZ        = 1.0
	TrendMinStrength = 0.25
)

func (b Bucket) String() string {
	switch b {
	case Trend:
		return "trend"
	case Range:
		return "range"
	case Extreme:
		return "extreme"
	case Default:
		return "default"
	default:
		return "unknown"
	}
}

// Buckets lists every table key in a stable order.
func Buckets() []Bucket {
	return []Bucket{Trend, Range, Extreme, Default}
}

// ParseBucket maps a bucket name to its variant. Matching is case-insensitive.
func ParseBucket(name string) (Bucket, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trend":
		return Trend, true
	case "range":
		return Range, true
	case "extreme":
		return Extreme, true
	case "default":
		return Default, true
	}
	return Default, false
}

// MarshalText lets buckets key YAML and JSON maps by name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Classify maps one bar's context to a bucket: "extreme" when price sits in
// the outer decile of the band or |z| ≥ 2, otherwise "trend" when price is
// near its mean while the mean is moving, otherwise "range".
func Classify(c Context) Bucket {
	absZ := math.Abs(c.Z)
	if indicators.IsExtreme(c.PercentB) || absZ >= ExtremeZ {
		return Extreme
	}
	if absZ < TrendMaxZ && c.TrendStrength > TrendMinStrength {
		return Trend
	}
	return Range
}
