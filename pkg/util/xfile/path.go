package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CheckFilePath 校验文件路径并返回 filepath.Clean 后的结果。
//
// 设计决策: 结尾的 "\" 在 Linux 上是合法文件名字符，但几乎总是跨平台拼接错误，
// 与 "/" 一样按目录路径拒绝。
func CheckFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("%w: %q", ErrNullByte, path)
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return "", fmt.Errorf("%w: %q", ErrNotFile, path)
	}
	cleaned := filepath.Clean(path)
	if base := filepath.Base(cleaned); base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrNotFile, path)
	}
	return cleaned, nil
}
