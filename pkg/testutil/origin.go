package testutil

import (
	"net/http"

	id "locregistry/pkg/domain"
	"locregistry/pkg/requestcontext"
)

// WithOrigin attaches a signed origin to the request context, mirroring
// what the auth middleware does for an authenticated caller.
func WithOrigin(req *http.Request, account id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithOrigin(req.Context(), id.SignedOrigin(account)))
}

// WithRootOrigin attaches the root origin to the request context.
func WithRootOrigin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithOrigin(req.Context(), id.RootOrigin()))
}
