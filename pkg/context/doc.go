// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 任务执行上下文（pool 名称、worker ID、任务 ID）的注入与提取
package context
