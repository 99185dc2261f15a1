package app

import "context"

type ctxKey struct{}

// SetAppInContext returns a copy of ctx carrying a, for cobra commands to share
// the container built in PersistentPreRunE.
func SetAppInContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// GetAppFromContext returns the App stored by SetAppInContext, or nil.
func GetAppFromContext(ctx context.Context) *App {
	a, _ := ctx.Value(ctxKey{}).(*App)
	return a
}
