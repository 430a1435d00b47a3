package reservoir

import "errors"

var (
	// ErrOutOfRange 表示输入水位超出 [Min, Max]。
	ErrOutOfRange = errors.New("reservoir: level out of range")

	// ErrInvalidLimits 表示边界配置不满足 Min <= Target <= Max 且 Min < Max。
	ErrInvalidLimits = errors.New("reservoir: invalid limits")

	// ErrInvalidStep 表示注水或放水步长不是正数。
	ErrInvalidStep = errors.New("reservoir: step must be positive")

	// ErrNilPool 表示未提供 worker pool。
	ErrNilPool = errors.New("reservoir: nil pool")
)
