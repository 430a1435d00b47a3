package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 是 EnsureParentDir 创建目录的默认权限。
const DefaultDirPerm os.FileMode = 0o750

// EnsureParentDir 创建 path 缺失的父目录，已存在时不修改权限。
// perm 为 0 时使用 DefaultDirPerm。
func EnsureParentDir(path string, perm os.FileMode) error {
	cleaned, err := CheckFilePath(path)
	if err != nil {
		return err
	}
	if perm == 0 {
		perm = DefaultDirPerm
	}
	if perm&0o100 == 0 {
		return fmt.Errorf("%w: %04o", ErrInvalidPerm, perm)
	}
	dir := filepath.Dir(cleaned)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("xfile: create %s: %w", dir, err)
	}
	return nil
}
