// Package xpool 提供固定大小的 worker pool 与泛型结果句柄。
//
// WorkerPool 在创建时启动固定数量的 worker，所有 worker 共享一个 FIFO 任务队列。
// 提交任意返回类型的任务会立即返回 [Future]，调用方可以同步（Get/Wait）
// 或异步（Done channel、TryGet）读取任务结果。
//
// 特性：
//   - 固定 worker 数量（[1, 65536]），创建后立即启动，无需 Start
//   - Submit 非阻塞；默认无界队列，可通过 WithQueueCapacity 设置上限（满时返回 ErrQueueFull）
//   - 任务返回的 error 与 panic 都写入 Future（panic 包装为 *PanicError，含堆栈）
//   - 单个任务失败不影响 worker 与其他任务，pool 内不做重试
//   - 关闭时排空队列：Close/Shutdown 返回前执行完关闭时刻队列中的全部任务
//   - Shutdown(ctx) 超时返回后 worker 仍在后台排空，可通过 Done() 等待
//   - 任务 context 携带 pool、worker_id、task_id（见 xctx），xlog 自动注入日志
//   - Report 诊断输出：在锁内写一行 "worker <id>  <value>"，并发任务的行不会交错
//   - 可选 Observer（WithObserver）：每次任务执行开启一个跨度并记录指标
//
// # 调度模型
//
// 队列与 stopping 标志由同一把互斥锁保护，并关联一个条件变量：
//   - Submit 入队后 Signal 唤醒一个空闲 worker
//   - 关闭时设置 stopping 并 Broadcast 唤醒全部 worker
//   - worker 只在队列为空且 stopping 为 true 时退出；队列非空时无论是否关闭都会继续取任务
//   - 锁只在 O(1) 的队列操作期间持有，任务执行期间不持锁
//
// 单个 worker 按出队顺序执行任务；多个 worker 之间完成顺序不保证。
//
// # 注意事项
//
//   - Close/Shutdown 不可在任务内调用，否则 worker 等待自身退出导致死锁
//   - 关闭后 Submit 返回 ErrPoolStopped
//   - 任务不可取消；需要超时的调用方使用 Future.Get(ctx)，超时不会中断任务本身
//   - pool 只保证任务分发安全，任务之间共享的数据需要调用方自行同步
//
// # 设计选择说明
//
// 设计决策: 队列使用 mutex + sync.Cond + 环形缓冲区，而非带缓冲 channel。
// 有界 channel 无法同时满足"Submit 不阻塞"与"不丢弃任务"，
// 而关闭时的排空语义在 cond 循环里可以直接表达。
//
// 设计决策: Submit 是包级泛型函数而非方法（Go 方法不支持类型参数）。
// 队列内的任务通过非导出接口擦除结果类型 R。
package xpool
