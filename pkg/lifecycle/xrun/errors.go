package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 表示因系统信号退出，配合 errors.Is 使用。
	ErrSignal = errors.New("xrun: received signal")

	// ErrNilFunc 表示服务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil function")

	// ErrNilService 表示 Service 为 nil。
	ErrNilService = errors.New("xrun: nil service")
)

// SignalError 记录触发退出的信号。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) { ... sigErr.Signal ... }
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "xrun: received signal <nil>"
	}
	return fmt.Sprintf("xrun: received signal %s", e.Signal)
}

// Unwrap 使 errors.Is(err, ErrSignal) 成立。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
