// Package identity resolves callers into owner identities.
//
// Every store call that is scoped to a user takes an OwnerID. An OwnerID is
// produced once by a Resolver (or an Exchanger) and passed by value from
// there on; it is never re-derived from request state further down.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnauthorized indicates invalid or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoEmail indicates the identity provider returned no usable email.
	ErrNoEmail = errors.New("identity provider returned no email")
)

// OwnerID scopes project collections. The zero value is anonymous.
type OwnerID struct {
	key string
}

// NewOwnerID builds an owner from the account email. Emails compare
// case-insensitively.
func NewOwnerID(email string) OwnerID {
	return OwnerID{key: strings.ToLower(strings.TrimSpace(email))}
}

// String returns the storage key.
func (o OwnerID) String() string { return o.key }

// IsZero reports whether the owner is anonymous.
func (o OwnerID) IsZero() bool { return o.key == "" }

// Identity is the record produced by the auth collaborator.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Owner returns the owner key for this identity.
func (i Identity) Owner() OwnerID {
	return NewOwnerID(i.Email)
}

// Resolver turns a bearer token into an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// StaticResolver returns a fixed identity for any token. Used for stdio and
// single-user local mode where there is nobody to authenticate.
type StaticResolver struct {
	Identity Identity
}

// Resolve implements Resolver.
func (r StaticResolver) Resolve(_ context.Context, _ string) (Identity, error) {
	if strings.TrimSpace(r.Identity.Email) == "" {
		return Identity{}, ErrNoEmail
	}
	return r.Identity, nil
}

type ownerKey struct{}

// WithOwner stores the owner on the context.
func WithOwner(ctx context.Context, owner OwnerID) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner stored by WithOwner.
func OwnerFromContext(ctx context.Context) (OwnerID, bool) {
	owner, ok := ctx.Value(ownerKey{}).(OwnerID)
	return owner, ok && !owner.IsZero()
}
