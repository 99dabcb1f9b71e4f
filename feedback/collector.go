// Package feedback 提供交互事件的异步采集：推荐核心记录的每条交互
// 以追加式日志的形式进入下游（审计/离线分析），绝不阻塞请求路径。
package feedback

import (
	"context"

	"github.com/rushteam/persona/core"
)

// Collector 交互事件采集器接口（异步非阻塞）。
type Collector interface {
	// Record 异步记录一条交互事件（不阻塞）
	Record(ctx context.Context, event *core.InteractionEvent) error

	// Close 优雅关闭（等待缓冲数据发送完成）
	Close() error
}
