// Package app 组装 xtank 水箱模拟：配置、日志、指标、worker pool、
// 水箱控制器、控制台、配置热更新与周期状态报告。
//
// 启动顺序：配置 → 日志 → OTel 观测 → pool → 控制器 → 控制台。
// Run 在 xrun 服务组中运行控制台、配置监视与状态报告，
// 任一服务结束（用户退出、输入结束、信号）后 pool 停止接收任务并排空队列。
//
// 设计决策: 配置热更新只作用于日志级别。pool 大小与水箱参数在运行中改变
// 会让已排队任务的语义不确定，需要重启生效。
package app
