// Package xctx 提供 worker pool 执行上下文的存取能力。
//
// 每个任务执行时，xpool 会把下列字段注入任务的 context：
//   - pool      : pool 名称（WithName 配置，为空时不注入）
//   - worker_id : 执行任务的 worker 编号（从 1 开始）
//   - task_id   : 任务标识（提交时生成的 UUID）
//
// xlog 的 EnrichHandler 会自动读取这些字段并写入日志，
// WorkerPool.Report 也依赖 worker_id 输出诊断行。
//
// # 命名约定
//
//	WithXxx(ctx, value)  - 注入：将 value 写入 context
//	Xxx(ctx)             - 读取：从 context 读取值，缺失时返回零值
//	RequireXxx(ctx)      - 强制读取：值必须存在，缺失时返回错误
//
// 设计决策: WithXxx 对 nil ctx 返回 ErrNilContext 而非 panic，
// 与项目其他包保持一致。xctx 是纯存取层，不校验值的业务有效性。
package xctx
