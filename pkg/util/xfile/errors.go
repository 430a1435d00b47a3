package xfile

import "errors"

var (
	// ErrEmptyPath 表示路径为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrNullByte 表示路径包含空字节，内核会在该处截断路径。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrNotFile 表示路径指向目录而不是文件。
	ErrNotFile = errors.New("xfile: path names a directory")

	// ErrInvalidPerm 表示目录权限缺少所有者执行位，目录无法进入。
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")
)
