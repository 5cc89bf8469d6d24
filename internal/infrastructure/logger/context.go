package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a private type for context keys used by the logger package
type contextKey string

const companyIDKey contextKey = "company_id"

// WithCompany scopes a context and logger to one acting company. The
// returned logger tags every entry it writes; the context value lets the SQL
// trace logger tag query logs emitted from deeper layers with the same
// company, so one company's activity can be filtered end to end.
func WithCompany(ctx context.Context, log *zap.Logger, companyID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, companyIDKey, companyID)
	return ctx, log.With(zap.String("company_id", companyID))
}

// CompanyFromContext returns the acting company recorded by WithCompany,
// or an empty string when the context carries none.
func CompanyFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(companyIDKey).(string); ok {
		return id
	}
	return ""
}
