package xconf

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xworkpool/pkg/util/xfile"
)

const (
	delim = "."
	tag   = "koanf"
)

// Config 是一份可重载的配置快照。并发安全。
type Config struct {
	path   string
	format Format
	k      atomic.Pointer[koanf.Koanf]

	// reloadMu 串行化 Reload，避免较慢的旧读取覆盖较新的结果。
	reloadMu sync.Mutex
}

// New 从文件创建配置，格式由扩展名决定。空文件得到空配置。
func New(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	path, err := xfile.CheckFilePath(path)
	if err != nil {
		return nil, fmt.Errorf("xconf: %w", err)
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	k, err := loadFile(path, format)
	if err != nil {
		return nil, err
	}
	c := &Config{path: path, format: format}
	c.k.Store(k)
	return c, nil
}

// NewFromBytes 从内存数据创建配置，不支持 Reload 与监视。
func NewFromBytes(data []byte, format Format) (*Config, error) {
	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	c := &Config{format: format}
	c.k.Store(k)
	return c, nil
}

// Client 返回当前快照的 koanf 实例。Reload 后旧实例仍可读，但数据已过期。
func (c *Config) Client() *koanf.Koanf {
	return c.k.Load()
}

// Unmarshal 将 path 下的配置解码到 target，path 为空时解码整个配置。
func (c *Config) Unmarshal(path string, target any) error {
	if c == nil {
		return ErrNilConfig
	}
	if err := c.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取文件。失败时保留旧快照并返回错误。
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	k, err := loadFile(c.path, c.format)
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

// Path 返回文件路径，NewFromBytes 创建的配置返回空串。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *Config) Format() Format {
	return c.format
}

func loadFile(path string, format Format) (*koanf.Koanf, error) {
	data, err := os.ReadFile(path) //nolint:gosec // 路径来自运维配置
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return parse(data, format)
}

func parse(data []byte, format Format) (*koanf.Koanf, error) {
	parser, err := format.parser()
	if err != nil {
		return nil, err
	}
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
