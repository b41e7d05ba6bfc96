package auth

import (
	"context"
	"net/http"
)

// Authenticator resolves the caller identity for an inbound request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

// DevAuthenticator always returns a fixed identity. Intended for local
// development only, never for a deployment reachable from outside the
// operator's own machine.
type DevAuthenticator struct {
	identity Identity
}

func NewDevAuthenticator(cfg Config) *DevAuthenticator {
	return &DevAuthenticator{
		identity: Identity{
			Subject: cfg.DevSubject,
			Email:   cfg.DevEmail,
			Roles:   cfg.DevRoles,
		},
	}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return a.identity, nil
}

// DisabledAuthenticator grants the fixed "system" identity with the admin
// role to every request without inspecting it. cmd/workflowd selects it
// when AUTH_MODE=disabled.
type DisabledAuthenticator struct{}

func (DisabledAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{Subject: "system", Roles: []string{"admin"}}, nil
}
