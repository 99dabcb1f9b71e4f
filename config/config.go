// Package config 提供引擎/学习器/存储的 YAML 配置加载。
// 所有阈值都有默认值（与核心算法的内置常量一致），配置文件只需写差异项。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/persona/filter"
	"github.com/rushteam/persona/learner"
)

// Config 是顶层配置结构。
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Learner LearnerConfig `yaml:"learner"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`

	// Rules 候选资格规则（CEL 表达式，全部为 true 才进入打分）
	Rules []string `yaml:"rules"`
}

// EngineConfig 编排层配置。
type EngineConfig struct {
	MaxResults     int `yaml:"max_results"`     // 默认响应条数上限
	TimeoutSeconds int `yaml:"timeout_seconds"` // 策略 fan-out 整体超时
	CategoryCap    int `yaml:"category_cap"`    // 合并器单类目上限
	MinAccept      int `yaml:"min_accept"`      // 合并器保底条数
}

// LearnerConfig 学习器阈值（零值取内置默认）。
type LearnerConfig struct {
	WindowSize int `yaml:"window_size"`
	WindowDays int `yaml:"window_days"`

	CategoryMinPrior int `yaml:"category_min_prior"`
	ProviderMinPrior int `yaml:"provider_min_prior"`

	TimingRecentDays int `yaml:"timing_recent_days"`
	TimingMinRecent  int `yaml:"timing_min_recent"`
}

// RedisConfig Redis 后端配置。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// KafkaConfig 交互事件采集配置。
type KafkaConfig struct {
	Brokers              []string `yaml:"brokers"`
	Topic                string   `yaml:"topic"`
	BatchSize            int      `yaml:"batch_size"`
	FlushIntervalSeconds int      `yaml:"flush_interval_seconds"`
}

// Default 返回全默认配置。
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxResults:     20,
			TimeoutSeconds: 2,
		},
	}
}

// Load 从 YAML 文件加载配置，未设置的字段保持默认。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Timeout 返回 fan-out 超时时长。
func (c *EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LearnerConfig 转换为学习器配置（零值字段由学习器取内置默认）。
func (c *Config) LearnerConfig() learner.Config {
	return learner.Config{
		WindowSize:       c.Learner.WindowSize,
		WindowDays:       c.Learner.WindowDays,
		CategoryMinPrior: c.Learner.CategoryMinPrior,
		ProviderMinPrior: c.Learner.ProviderMinPrior,
		TimingRecentDays: c.Learner.TimingRecentDays,
		TimingMinRecent:  c.Learner.TimingMinRecent,
	}
}

// BuildRuleFilters 编译配置里的全部资格规则。
func (c *Config) BuildRuleFilters() ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(c.Rules))
	for _, expr := range c.Rules {
		f, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
