package requestid

import (
	"context"
)

type contextKey string

// key under which the request id travels, both across HTTP middleware and
// when restored from AMQP message headers
const key contextKey = "requestID"

// With returns a child context carrying the request id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

func Get(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(key).(string)
	return val, ok
}
