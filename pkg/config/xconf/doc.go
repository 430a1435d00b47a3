// Package xconf 基于 koanf 加载 YAML/JSON 配置，并通过 fsnotify 监视文件变更。
//
// # 加载
//
//	cfg, err := xconf.New("/etc/xtank/config.yaml")
//	var c AppConfig // 预先填入默认值
//	err = cfg.Unmarshal("", &c)
//
// Unmarshal 只覆盖配置中出现的字段，未出现的字段保留目标结构体原值，
// 因此调用方可以先填入默认值再反序列化。字符串形式的时长（"500ms"）
// 与实现了 encoding.TextUnmarshaler 的类型可直接解码。
//
// # 热重载
//
// Reload 重新读取文件，解析成功后原子替换内部快照；失败时保留旧配置。
// Watcher 监视文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 防抖后调用 Reload 并回调通知：
//
//	w, err := xconf.NewWatcher(cfg, func(c *xconf.Config, err error) { ... })
//	go w.Run(ctx) // ctx 结束时停止并释放 fsnotify 资源
//
// 设计决策: Watcher 以 Run(ctx) 阻塞运行，而非 Start/Stop 对。
// 生命周期由 ctx 统一控制，可以直接作为 xrun 的服务运行。
package xconf
