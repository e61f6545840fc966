package domain

import (
	dErrors "locregistry/pkg/domain-errors"
)

// Origin identifies the caller of an operation. It is resolved once at
// the transport boundary and checked at the entry of each service
// operation: Root carries no account and may only invoke the import
// path, Signed carries the calling account for all user-facing
// operations.
type Origin struct {
	Root    bool
	Account AccountID
}

// RootOrigin returns the privileged origin used by import operations.
func RootOrigin() Origin { return Origin{Root: true} }

// SignedOrigin returns an ordinary origin for the given account.
func SignedOrigin(account AccountID) Origin { return Origin{Account: account} }

// Signer returns the calling account, rejecting root and anonymous
// callers.
func (o Origin) Signer() (AccountID, error) {
	if o.Root || o.Account.IsNil() {
		return AccountID{}, dErrors.New(dErrors.CodeUnauthorized, "operation requires a signed caller")
	}
	return o.Account, nil
}

// RequireRoot rejects every caller but root.
func (o Origin) RequireRoot() error {
	if !o.Root {
		return dErrors.New(dErrors.CodeUnauthorized, "operation requires the root origin")
	}
	return nil
}
