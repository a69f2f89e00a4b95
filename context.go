package authgate

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's network address to the context so
// engine log lines can carry it. The engine never makes decisions on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
