package reservoir

import (
	"fmt"
	"math"
)

// 默认边界。
const (
	DefaultMin    = 0
	DefaultMax    = 1000
	DefaultTarget = 600
)

// Limits 是有效输入范围与目标水位。
type Limits struct {
	Min    float64 `koanf:"min"`
	Max    float64 `koanf:"max"`
	Target float64 `koanf:"target"`
}

// DefaultLimits 返回 {0, 1000, 600}。
func DefaultLimits() Limits {
	return Limits{Min: DefaultMin, Max: DefaultMax, Target: DefaultTarget}
}

// Validate 检查边界自身是否合理。
func (l Limits) Validate() error {
	for _, v := range []float64{l.Min, l.Max, l.Target} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidLimits, l)
		}
	}
	if l.Min >= l.Max || l.Target < l.Min || l.Target > l.Max {
		return fmt.Errorf("%w: want min <= target <= max and min < max, got %+v", ErrInvalidLimits, l)
	}
	return nil
}

// Check 检查输入水位是否在 [Min, Max] 内，NaN 视为越界。
func (l Limits) Check(level float64) error {
	if math.IsNaN(level) || level < l.Min || level > l.Max {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, level, l.Min, l.Max)
	}
	return nil
}
