package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	orgIDKey     ctxKey = "org_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithOrgID lets outer middleware such as the access log see the tenant
// resolved further down the chain.
func WithOrgID(ctx context.Context, holder *string) context.Context {
	return context.WithValue(ctx, orgIDKey, holder)
}

func SetOrgID(ctx context.Context, orgID string) {
	if holder, ok := ctx.Value(orgIDKey).(*string); ok && holder != nil {
		*holder = orgID
	}
}

func GetOrgID(ctx context.Context) string {
	if holder, ok := ctx.Value(orgIDKey).(*string); ok && holder != nil {
		return *holder
	}
	return ""
}
