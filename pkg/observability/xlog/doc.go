// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 自动从 context 注入 pool、worker_id、task_id（EnrichHandler，默认启用）
//   - 动态级别调整（配置热更新时调用 SetLevel）
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// Builder 遵循 first-error-wins：遇到第一个配置错误后，Build 返回该错误。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xtank/xtank.log").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// # 全局 Logger
//
// [Default] 惰性初始化（stderr、Info、text）；[SetDefault] 替换全局实例。
// 服务端推荐依赖注入，全局函数用于命令行入口等简单场景。
//
// # 日志级别
//
// Level 实现 encoding.TextUnmarshaler，可直接从 YAML/JSON 配置解码。
package xlog
