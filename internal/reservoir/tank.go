package reservoir

import "sync"

// Tank 是并发安全的共享水位。
type Tank struct {
	mu    sync.Mutex
	level float64
}

// NewTank 创建初始水位为 level 的水箱。
func NewTank(level float64) *Tank {
	return &Tank{level: level}
}

// Set 直接设置水位。
func (t *Tank) Set(level float64) {
	t.mu.Lock()
	t.level = level
	t.mu.Unlock()
}

// Level 返回当前水位。
func (t *Tank) Level() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

// Step 朝 target 方向调整 delta，结果不越过 target。
// 水位已到达或越过 target（相对 delta 的方向）或 delta 为 0 时不调整，moved 为 false。
func (t *Tank) Step(delta, target float64) (level float64, moved bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case delta > 0 && t.level < target:
		t.level = min(t.level+delta, target)
		return t.level, true
	case delta < 0 && t.level > target:
		t.level = max(t.level+delta, target)
		return t.level, true
	default:
		return t.level, false
	}
}
