// Package xrun 基于 errgroup + context 管理进程内多个服务的运行与协调关闭。
//
// 任一服务返回错误、收到终止信号或父 context 取消时，
// 其余服务通过 ctx.Done() 感知并退出：
//
//	err := xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithName("xtank")},
//	    console.Run,
//	    watcher.Run,
//	    xrun.OnStop(pool.Shutdown),
//	)
//	if errors.Is(err, xrun.ErrSignal) { ... }
//
// # 错误语义
//
//   - 服务返回非 context.Canceled 的错误：Wait 返回该错误
//   - Group 被取消且带有 cause（如 *SignalError）：Wait 返回 cause
//   - 普通取消：Wait 返回 nil
//   - 服务自身产生的 context.Canceled（Group 未被取消）：原样返回
//
// 设计决策: 不提供全局关闭钩子。需要在退出时执行的收尾逻辑（例如排空 worker pool）
// 以 OnStop 服务的形式加入 Group，与其他服务共享同一套取消与错误传播。
package xrun
