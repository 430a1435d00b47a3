// Package xretry 提供基于 [avast/retry-go/v5] 的重试执行器。
//
// Retryer 组合最大尝试次数与退避策略（BackoffPolicy），
// Do 执行无返回值的操作，DoWithResult 执行带返回值的操作（包级泛型函数）。
//
//	r := xretry.NewRetryer(
//	    xretry.WithAttempts(3),
//	    xretry.WithBackoff(xretry.NewExponentialBackoff()),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return loadConfig()
//	})
//
// 用 Permanent(err) 包装的错误立即返回，不再重试。
// ctx 取消时停止等待并返回。
//
// 典型用法：读取配置文件时容忍编辑器的原子替换窗口；
// 对 xpool 任务失败后按策略重新提交（pool 本身不做重试）。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
