package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestSQLClassification(t *testing.T) {
	assert.Equal(t, "UPDATE", operationFromSQL(`UPDATE payments SET status = ? WHERE order_id = ?`))
	assert.Equal(t, "SELECT", operationFromSQL(`WITH x AS (SELECT 1) SELECT * FROM x`))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))

	assert.Equal(t, "employers", tableFromSQL(`SELECT * FROM "employers" WHERE id = ?`))
	assert.Equal(t, "payment_events", tableFromSQL("INSERT INTO `payment_events` (id) VALUES (?)"))
	assert.Equal(t, "", tableFromSQL("SELECT 1"))
}

func TestTraceLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond, IgnoreRecordNotFound: true})
	query := func() (string, int64) { return "SELECT * FROM plans", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), query, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are silent at warn level")

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), query, errors.New("connection reset"))

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, true, entries[0].ContextMap()["slow"])
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, "plans", entries[1].ContextMap()["table"])
	}
}

func TestParamsFilterDropsValues(t *testing.T) {
	sql, params := NewGormLogger(DefaultGormLoggerConfig()).ParamsFilter(context.Background(), "SELECT ?", "secret")
	assert.Equal(t, "SELECT ?", sql)
	assert.Nil(t, params)
}
