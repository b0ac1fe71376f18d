package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return Wrap(zap.New(core)), logs
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	l, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestLogOrderWritesEventFields(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	l.LogOrder("order_placed", 7, map[string]interface{}{
		"tick": "t1", "product": "ETH/BTC", "side": "bid", "price": 0.02, "qty": 1.0,
	})

	entries := logs.FilterMessage("order_event").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "order_placed", ctx["event"])
	assert.Equal(t, uint64(7), ctx["order_id"])
	assert.Zero(t, logs.FilterMessage("log_schema_violation").Len())
}

func TestSchemaViolationWarns(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	l.LogTrade("trade_settled", map[string]interface{}{"product": "ETH/BTC"})

	assert.Equal(t, 1, logs.FilterMessage("log_schema_violation").Len())
	// 事件本身仍然输出
	assert.Equal(t, 1, logs.FilterMessage("trade_event").Len())
}

func TestLogTickIsDebug(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	l.LogTick(map[string]interface{}{"tick": "t1", "index": 0, "trades": 0, "placed": 0, "cancelled": 0, "open": 0})
	assert.Zero(t, logs.Len())
}

func TestLogErrorAndRisk(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)
	l.LogError(errors.New("boom"), nil)
	l.LogRisk("net exceed", map[string]interface{}{"product": "ETH/BTC", "reason": "net"})

	require.Equal(t, 1, logs.FilterMessage("error_event").Len())
	assert.Equal(t, "boom", logs.FilterMessage("error_event").All()[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.FilterMessage("risk_event").Len())
	assert.Zero(t, logs.FilterMessage("log_schema_violation").Len())
}

func TestWithFields(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	l.WithFields(map[string]interface{}{"runId": "abc"}).Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["runId"])
}
