package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedQueryLogger(t *testing.T, level gormlogger.LogLevel, opts ...QueryLoggerOption) (*QueryLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewQueryLogger(zap.New(core), level, opts...), recorded
}

func selectFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewQueryLogger(t *testing.T) {
	ql, _ := newObservedQueryLogger(t, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, ql.level)
	assert.Equal(t, 200*time.Millisecond, ql.slowThreshold)
	assert.True(t, ql.ignoreNotFound)
}

func TestQueryLoggerOptions(t *testing.T) {
	ql, _ := newObservedQueryLogger(t, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithNotFoundLogging(),
	)

	assert.Equal(t, 500*time.Millisecond, ql.slowThreshold)
	assert.False(t, ql.ignoreNotFound)
}

func TestQueryLogger_LogMode(t *testing.T) {
	ql, _ := newObservedQueryLogger(t, gormlogger.Info)

	clone := ql.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, ql.level)
	cloned, ok := clone.(*QueryLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.level)
}

func TestQueryLogger_InfoSuppressedWhenSilent(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Silent)

	ql.Info(context.Background(), "migration %s applied", "0001")

	assert.Empty(t, recorded.All())
}

func TestQueryLogger_Warn(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Warn)

	ql.Warn(context.Background(), "pool saturation at %d", 95)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Contains(t, logs[0].Message, "pool saturation at 95")
}

func TestQueryLogger_TraceError(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Error)

	ql.Trace(context.Background(), time.Now(),
		selectFunc("SELECT * FROM documents", 0), errors.New("connection reset"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "sql error", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
}

func TestQueryLogger_TraceIgnoresNotFound(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Error)

	ql.Trace(context.Background(), time.Now(),
		selectFunc("SELECT * FROM documents WHERE id = $1", 0), gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestQueryLogger_TraceLogsNotFoundWhenEnabled(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Error, WithNotFoundLogging())

	ql.Trace(context.Background(), time.Now(),
		selectFunc("SELECT * FROM documents WHERE id = $1", 0), gormlogger.ErrRecordNotFound)

	require.Len(t, recorded.All(), 1)
}

func TestQueryLogger_TraceSlowQuery(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Warn,
		WithSlowThreshold(time.Nanosecond))

	begin := time.Now().Add(-time.Second)
	ql.Trace(context.Background(), begin, selectFunc("SELECT * FROM movements", 10), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "slow sql", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestQueryLogger_TraceNormalQuery(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Info)

	ql.Trace(context.Background(), time.Now(), selectFunc("SELECT * FROM taxes", 3), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "sql", logs[0].Message)
	assert.EqualValues(t, 3, logs[0].ContextMap()["rows"])
}

func TestQueryLogger_TraceSilent(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Silent)

	ql.Trace(context.Background(), time.Now(), selectFunc("SELECT 1", 1), nil)

	assert.Empty(t, recorded.All())
}

func TestQueryLogger_TraceCarriesCompanyScope(t *testing.T) {
	ql, recorded := newObservedQueryLogger(t, gormlogger.Info)

	ctx, _ := WithCompany(context.Background(), zap.NewNop(), "company-7")
	ql.Trace(ctx, time.Now(), selectFunc("INSERT INTO documents", 1), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "company-7", logs[0].ContextMap()["company_id"])
}

func TestGormLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, GormLevel(tt.level))
		})
	}
}

func TestQueryLoggerImplementsInterface(t *testing.T) {
	ql, _ := newObservedQueryLogger(t, gormlogger.Info)
	var _ gormlogger.Interface = ql
}
