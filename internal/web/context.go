package web

import (
	"context"
	"net/http"
)

type ContextKey string

const (
	IdentityKey  = ContextKey("identity")
	RequestIDKey = ContextKey("request_id")
)

func AddValueToContext(r *http.Request, key ContextKey, value any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}

// GetValueFromContext reports false when key is unset or holds another type.
func GetValueFromContext[T any](r *http.Request, key ContextKey) (T, bool) {
	val, ok := r.Context().Value(key).(T)
	return val, ok
}

// WithRequestID stores the correlation id used in error logs.
func WithRequestID(r *http.Request, id string) *http.Request {
	return AddValueToContext(r, RequestIDKey, id)
}

// RequestID returns "" outside the request id middleware.
func RequestID(r *http.Request) string {
	id, _ := GetValueFromContext[string](r, RequestIDKey)
	return id
}
