package core

import "time"

// InteractionType 交互类型。固定枚举，校验失败时拒绝而非静默修正。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionBookmark InteractionType = "bookmark"
	InteractionGenerate InteractionType = "generate"
	InteractionShare    InteractionType = "share"
	InteractionDownload InteractionType = "download"
)

// baseWeights 是各交互类型的学习基础权重（亲和度增量公式的一项）。
var baseWeights = map[InteractionType]float64{
	InteractionView:     0.1,
	InteractionLike:     0.3,
	InteractionBookmark: 0.5,
	InteractionGenerate: 0.7,
	InteractionShare:    0.4,
	InteractionDownload: 0.6,
}

// Valid 检查交互类型是否属于固定枚举。
func (t InteractionType) Valid() bool {
	_, ok := baseWeights[t]
	return ok
}

// BaseWeight 返回交互类型的学习基础权重，未知类型返回 0。
func (t InteractionType) BaseWeight() float64 {
	return baseWeights[t]
}

// 参与度等级的合法区间（调用方提供的 1-10 信号）。
const (
	MinEngagementLevel = 1
	MaxEngagementLevel = 10
)

// InteractionEvent 是一次用户交互的不可变记录。
// 记录一旦产生不再修改；持久化层是追加式日志。
type InteractionEvent struct {
	UserID string
	ItemID string
	Type   InteractionType

	// Engagement 调用方提供的参与度信号，1-10
	Engagement int

	// SessionSeconds 本次会话时长（秒），可为 0（未知）
	SessionSeconds float64

	// 可选的来源信息
	DeviceType     string
	ReferralSource string

	Timestamp time.Time
}

// Validate 校验事件字段。非法输入返回 INVALID_INPUT 领域错误，不做 clamp。
func (e *InteractionEvent) Validate() error {
	if e.UserID == "" {
		return NewDomainError(ModuleLearner, ErrorCodeInvalidInput, "interaction: user id is required")
	}
	if e.ItemID == "" {
		return NewDomainError(ModuleLearner, ErrorCodeInvalidInput, "interaction: item id is required")
	}
	if !e.Type.Valid() {
		return NewDomainError(ModuleLearner, ErrorCodeInvalidInput, "interaction: unknown interaction type "+string(e.Type))
	}
	if e.Engagement < MinEngagementLevel || e.Engagement > MaxEngagementLevel {
		return NewDomainError(ModuleLearner, ErrorCodeInvalidInput, "interaction: engagement level out of range [1,10]")
	}
	return nil
}
