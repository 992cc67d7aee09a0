package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserLevel contextKey = "user_level"
	ContextKeyTenantID  contextKey = "tenant_id"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func UserLevelFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(ContextKeyUserLevel).(int)
	return v, ok
}

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyTenantID).(uuid.UUID)
	return v, ok
}
