package app

import "errors"

var (
	// ErrInvalidConfig 表示配置校验失败。
	ErrInvalidConfig = errors.New("app: invalid config")

	// errQuit 由控制台服务在用户退出时返回，用于结束整个服务组。
	errQuit = errors.New("app: quit")
)
