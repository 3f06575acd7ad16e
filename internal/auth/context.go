package auth

import "context"

type contextKey struct{}

// AuthContext identifies the staff member behind a request.
type AuthContext struct {
	StaffID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// StaffID returns the authenticated staff id, or "" outside RequireStaff.
func StaffID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.StaffID
}
