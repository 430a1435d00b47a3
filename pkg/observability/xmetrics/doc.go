// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span 接口；默认实现基于 OpenTelemetry。
// xpool 通过 WithObserver 为每个任务执行开启一个跨度。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xpool",
//		Operation: "task",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标
//
//   - xworkpool.operation.total    （counter，属性 component/operation/status）
//   - xworkpool.operation.duration （histogram，单位 s）
package xmetrics
