// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog，从 context 注入 pool/worker/task 字段
//   - xmetrics: 操作级观测接口与 OpenTelemetry 实现（span、计数、耗时）
//   - xrotate: 日志文件轮转
package observability
