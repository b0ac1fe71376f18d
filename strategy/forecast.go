package strategy

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"market-replay-go/order"
)

// ForecastConfig 线性回归预测参数。
type ForecastConfig struct {
	Window  int // 回归使用的最近参考价个数上限
	Horizon int // 向前外推的 tick 数，0 表示当前 tick 的拟合值
}

// DefaultForecastConfig 窗口 14，外推 5 个 tick。
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{Window: 14, Horizon: 5}
}

// Forecast 单个交易对的预测。OK=false 表示样本不足或数值退化，Value 无意义。
type Forecast struct {
	Product order.Product `json:"product"`
	Value   float64       `json:"value"`
	OK      bool          `json:"ok"`
	Points  int           `json:"points"`
}

// Forecaster 按交易对累积参考价并用最小二乘外推。
type Forecaster struct {
	cfg     ForecastConfig
	history map[order.Product][]float64
	log     *zap.Logger
}

func NewForecaster(cfg ForecastConfig, log *zap.Logger) (*Forecaster, error) {
	if cfg.Window < 2 {
		return nil, errors.New("forecast window must be >= 2")
	}
	if cfg.Horizon < 0 {
		return nil, errors.New("forecast horizon must be >= 0")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Forecaster{cfg: cfg, history: make(map[order.Product][]float64), log: log}, nil
}

// Observe 追加一个参考价。只保留最近 Window 个点，回归只会用到这些。
func (f *Forecaster) Observe(p order.Product, ref float64) {
	h := append(f.history[p], ref)
	if len(h) > f.cfg.Window {
		h = h[len(h)-f.cfg.Window:]
	}
	f.history[p] = h
}

// History 返回交易对当前保留的参考价。
func (f *Forecaster) History(p order.Product) []float64 {
	return append([]float64(nil), f.history[p]...)
}

// Predict 返回交易对的预测值，退化时记录日志并返回 OK=false。
func (f *Forecaster) Predict(p order.Product) Forecast {
	h := f.history[p]
	v, ok := Extrapolate(h, f.cfg.Window, f.cfg.Horizon)
	fc := Forecast{Product: p, Value: v, OK: ok, Points: len(h)}
	if !ok {
		reason := "insufficient_history"
		if len(h) >= 2 {
			reason = "non_finite"
		}
		f.log.Debug("forecast_degenerate",
			zap.String("product", p.String()),
			zap.Int("points", len(h)),
			zap.String("reason", reason),
		)
	}
	return fc
}

// Extrapolate 对 history 的最后至多 window 个点做最小二乘拟合（x = 1..k），
// 返回 x = k+horizon 处的值。少于 2 个点或结果非有限数时 ok=false。
func Extrapolate(history []float64, window, horizon int) (float64, bool) {
	n := len(history)
	if window > 0 && n > window {
		history = history[n-window:]
		n = window
	}
	if n < 2 {
		return 0, false
	}
	var sumX, sumY float64
	for i, y := range history {
		sumX += float64(i + 1)
		sumY += y
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i, y := range history {
		dx := float64(i+1) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, false
	}
	slope := num / den
	intercept := meanY - slope*meanX
	v := intercept + slope*float64(n+horizon)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
