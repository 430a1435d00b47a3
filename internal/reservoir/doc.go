// Package reservoir 模拟水位调节：校验输入水位，并向 worker pool 提交注水或放水任务，
// 让水位逐步逼近目标值。
//
// 低于目标时提交每个注水口一个任务（默认 +1 与 +2 两个口并发），
// 不低于目标时提交一个放水任务（默认 -0.5）。每个任务每步调整一次水位、
// 通过 Reporter 输出当前水位、等待 StepDelay，直到到达目标后返回最终水位。
//
// 设计决策: 多个任务共享的水位由 Tank 的互斥锁保护，每一步是一次
// "检查并调整"的原子操作，且调整结果截断在目标值上，不会越过目标。
package reservoir
