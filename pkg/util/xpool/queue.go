package xpool

import "context"

// task 是擦除了结果类型的队列元素。
type task interface {
	taskID() string
	// run 执行任务并写入结果句柄，返回任务错误（含 panic）供 pool 记录。
	run(ctx context.Context) error
}

const minQueueBuf = 16

// taskQueue 是环形缓冲区实现的 FIFO 队列，调用方负责加锁。
type taskQueue struct {
	buf  []task
	head int
	size int
}

func (q *taskQueue) len() int {
	return q.size
}

func (q *taskQueue) push(t task) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = t
	q.size++
}

// pop 取出队首任务，队列为空时返回 nil。
func (q *taskQueue) pop() task {
	if q.size == 0 {
		return nil
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	if q.size == 0 {
		q.head = 0
	}
	return t
}

func (q *taskQueue) grow() {
	next := make([]task, max(2*len(q.buf), minQueueBuf))
	for i := range q.size {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
