package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCompany(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, scoped := WithCompany(context.Background(), base, "company-1")

	assert.Equal(t, "company-1", CompanyFromContext(ctx))

	scoped.Info("scoped entry")
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "company-1", logs[0].ContextMap()["company_id"])
}

func TestCompanyFromContextEmptyWhenUnset(t *testing.T) {
	assert.Empty(t, CompanyFromContext(context.Background()))
}
