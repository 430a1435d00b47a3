package xretry

import (
	"errors"

	retry "github.com/avast/retry-go/v5"
)

var (
	// ErrNilRetryer 表示 Retryer 为 nil。
	ErrNilRetryer = errors.New("xretry: nil retryer")

	// ErrNilContext 表示 context 为 nil。
	ErrNilContext = errors.New("xretry: nil context")

	// ErrNilFunc 表示待执行函数为 nil。
	ErrNilFunc = errors.New("xretry: nil function")
)

// Permanent 标记 err 为不可重试，Retryer 遇到时立即返回原始错误。
// err 为 nil 时返回 nil。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return retry.Unrecoverable(err)
}

// IsPermanent 判断 err 是否经 Permanent 标记。
func IsPermanent(err error) bool {
	return err != nil && !retry.IsRecoverable(err)
}
