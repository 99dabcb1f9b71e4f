package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/persona/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("session", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是 CEL (Common Expression Language) 驱动的资格规则过滤器。
// 表达式对"候选是否有资格进入打分"求值：true 保留，false 过滤。
//
// 表达式语法（CEL 标准语法）：
//   - `item.quality_rating >= 40.0` → 质量下限
//   - `item.category != "nsfw"` → 类目黑名单
//   - `item.featured || item.like_count > 100.0` → 组合条件
//   - `session.current_category == "" || item.category == session.current_category`
//
// 表达式在构造时编译一次，求值路径零编译开销。
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译资格表达式并返回过滤器。表达式必须返回布尔值。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}

	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.CandidateItem,
) (bool, error) {
	out, _, err := f.prg.Eval(buildRuleInput(rctx, item))
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", f.expr, err)
	}
	eligible, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return !eligible, nil
}

// buildRuleInput 构建 CEL 表达式的输入数据。
func buildRuleInput(rctx *core.RecommendContext, item *core.CandidateItem) map[string]interface{} {
	tags := make([]interface{}, 0, len(item.Tags))
	for _, t := range item.Tags {
		tags = append(tags, t)
	}

	input := map[string]interface{}{
		"item": map[string]interface{}{
			"id":               item.ID,
			"category":         item.Category,
			"provider":         item.Provider,
			"quality_rating":   item.QualityRating,
			"tags":             tags,
			"like_count":       float64(item.LikeCount),
			"download_count":   float64(item.DownloadCount),
			"discussion_count": float64(item.DiscussionCount),
			"generated_count":  float64(item.GeneratedCount),
			"featured":         item.Featured,
		},
	}

	session := map[string]interface{}{"current_category": ""}
	if rctx != nil {
		session["current_category"] = rctx.Session.CurrentCategory
	}
	input["session"] = session
	return input
}

var _ Filter = (*RuleFilter)(nil)
