package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-replay-go/infrastructure/logger"
)

// AppConfig holds the replay configuration.
type AppConfig struct {
	Env         string            `yaml:"env"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Participant ParticipantConfig `yaml:"participant"`
	Policy      PolicyConfig      `yaml:"policy"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Clock       ClockConfig       `yaml:"clock"`
	Risk        RiskConfig        `yaml:"risk"`
	PostTrade   PostTradeConfig   `yaml:"posttrade"`
	Log         logger.Config     `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Journal     JournalConfig     `yaml:"journal"`
	Stream      StreamConfig      `yaml:"stream"`
}

type DatasetConfig struct {
	Path string `yaml:"path"` // CSV: timestamp,product,side,price,amount
}

// ParticipantConfig 模拟参与者的身份与初始资金。
type ParticipantConfig struct {
	Name         string             `yaml:"name"`
	InitialFunds map[string]float64 `yaml:"initialFunds"`
	Valuation    string             `yaml:"valuation"` // 组合估值计价币
	MinQty       float64            `yaml:"minQty"`
	MinNotional  float64            `yaml:"minNotional"`
}

type PolicyConfig struct {
	Type          string  `yaml:"type"`          // trend | passive
	OrderFraction float64 `yaml:"orderFraction"` // 标准下单量占初始余额比例
	AskThreshold  float64 `yaml:"askThreshold"`  // 预测低于 参考价*askThreshold 才挂卖单
	EnableBids    *bool   `yaml:"enableBids"`    // 未配置视为 true
	EnableAsks    *bool   `yaml:"enableAsks"`
	EnableCancel  *bool   `yaml:"enableCancel"`
}

type ForecastConfig struct {
	Window  int `yaml:"window"`
	Horizon int `yaml:"horizon"`
}

type ClockConfig struct {
	Wrap bool `yaml:"wrap"`
}

// RiskConfig 0 表示不限制。
type RiskConfig struct {
	SingleMax float64 `yaml:"singleMax"`
	RunMax    float64 `yaml:"runMax"`
	NetMax    float64 `yaml:"netMax"`
}

type PostTradeConfig struct {
	Lookahead int `yaml:"lookahead"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"` // 为空时不启动
	Namespace string `yaml:"namespace"`
}

type JournalConfig struct {
	Path string `yaml:"path"` // 为空时不持久化
}

type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default 返回带默认值的配置，YAML 中出现的字段会覆盖它们。
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Participant: ParticipantConfig{
			Name:      "simuser",
			Valuation: "USDT",
		},
		Policy: PolicyConfig{
			Type:          "trend",
			OrderFraction: 0.10,
			AskThreshold:  0.995,
		},
		Forecast:  ForecastConfig{Window: 14, Horizon: 5},
		PostTrade: PostTradeConfig{Lookahead: 1},
		Log:       logger.DefaultConfig(),
		Metrics:   MetricsConfig{Namespace: "mr"},
		Stream:    StreamConfig{Path: "/stream"},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// Override 在校验之前修改配置，命令行参数通过它生效。
type Override func(*AppConfig)

// LoadWithEnvOverrides loads config, applies env vars and then overrides, and validates the result once.
func LoadWithEnvOverrides(path string, overrides ...Override) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	for _, o := range overrides {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg, Validate(cfg)
}

func parse(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 用环境变量覆盖路径类配置。
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("MR_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("MR_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("MR_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
