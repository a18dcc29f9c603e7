package ingest

import "context"

type dryRunKey struct{}

// WithDryRun marks ctx so processors resolve locations without fetching or writing.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, dryRun)
}

// DryRunFromContext reports whether ctx was marked by WithDryRun.
func DryRunFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey{}).(bool)
	return v
}
