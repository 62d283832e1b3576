package service

import (
	"context"
	"time"

	"adminconsole/internal/guard"
)

type contextKey string

const operatorKey contextKey = "operator"

var timeNow = time.Now

// OperatorInfo is who the console is acting as for a request.
type OperatorInfo struct {
	Subject string
	Role    string
	Admin   bool
}

// OperatorFromClaims derives the operator from decoded token claims.
func OperatorFromClaims(c *guard.Claims, adminRole string) *OperatorInfo {
	if c == nil {
		return nil
	}
	return &OperatorInfo{
		Subject: c.Subject,
		Role:    c.ResolvedRole(),
		Admin:   c.HasRole(adminRole),
	}
}

func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}

// GetOperator returns the subject, or "anonymous" outside a session.
func GetOperator(ctx context.Context) string {
	op := GetOperatorInfo(ctx)
	if op == nil || op.Subject == "" {
		return "anonymous"
	}
	return op.Subject
}
