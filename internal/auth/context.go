package auth

import "context"

// Identity describes the authenticated principal bound to a request.
type Identity struct {
	UserID   int64
	Username string
	Token    string
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
