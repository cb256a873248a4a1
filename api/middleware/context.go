package middleware

import (
	"context"

	"github.com/drawspace/drawspace-backend/internal/usage"
)

type contextKey string

const (
	ctxExternalID contextKey = "external_id"
	ctxAccountID  contextKey = "account_id"
	ctxEmail      contextKey = "email"
	ctxUsage      contextKey = "usage"
)

func ExternalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxExternalID).(string); ok {
		return v
	}
	return ""
}

func AccountIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccountID).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// UsageFromContext returns the usage summary the gate resolved for this
// request, if any.
func UsageFromContext(ctx context.Context) *usage.Summary {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUsage).(*usage.Summary); ok {
		return v
	}
	return nil
}

// WithExternalID injects the external identity into the context.
func WithExternalID(ctx context.Context, externalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxExternalID, externalID)
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, accountID)
}

func withEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxEmail, email)
}

func withUsage(ctx context.Context, summary *usage.Summary) context.Context {
	return context.WithValue(ctx, ctxUsage, summary)
}
