package api

import "context"

type ctxKey string

const ctxKeySponsor ctxKey = "sponsor"

// WithSponsor attaches the authenticated wallet address to ctx.
func WithSponsor(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ctxKeySponsor, address)
}

// SponsorFromContext returns the authenticated wallet address, or "".
func SponsorFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySponsor).(string)
	return s
}
