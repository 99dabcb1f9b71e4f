// Package persona 是一个个性化推荐子系统（Personalization Kit）。
//
// 设计要点：
// - Profile-first: 用户画像是策略打分的全局上下文，由行为学习器在线维护
// - 多策略 fan-out: 内容/协同/上下文/趋势/探索五路并发打分，合并器去重控多样性
// - Reasons-first: 每条推荐携带可解释的推荐理由，支持 explain / 观测
package persona

import (
	"github.com/rushteam/persona/core"
	"github.com/rushteam/persona/engine"
)

// 轻量 facade：便于用户直接 import "persona" 使用核心抽象。
type Engine = engine.Engine
type Option = engine.Option
type UserProfile = core.UserProfile
type CandidateItem = core.CandidateItem
type Recommendation = core.Recommendation
type RecommendContext = core.RecommendContext
type InteractionType = core.InteractionType

const (
	InteractionView     = core.InteractionView
	InteractionLike     = core.InteractionLike
	InteractionBookmark = core.InteractionBookmark
	InteractionGenerate = core.InteractionGenerate
	InteractionShare    = core.InteractionShare
	InteractionDownload = core.InteractionDownload
)

// New 创建推荐引擎。
var New = engine.New
