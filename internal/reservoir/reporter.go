package reservoir

import "context"

//go:generate mockgen -source=reporter.go -destination=mock_reporter_test.go -package=reservoir

// Reporter 输出任务执行过程中的水位。*xpool.WorkerPool 实现此接口。
type Reporter interface {
	Report(ctx context.Context, value any)
}
