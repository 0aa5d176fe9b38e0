// Package microsub implements the Microsub API surface (spec.md §6):
// channels, timeline, follow/unfollow, mute/block, webmention receive, and
// the WebSub callback endpoint. Authentication/session extraction is an
// external collaborator (spec.md §1); this package only reads the owner
// identifier an upstream auth middleware is expected to place in the
// request context via WithOwner.
package microsub

import "context"

type ownerKey struct{}

// WithOwner returns a context carrying owner, the authenticated principal
// an external auth middleware resolved for this request.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner placed in ctx by WithOwner, or "" if
// none was set.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
