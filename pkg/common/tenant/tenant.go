package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

const schemaPrefix = "tenant_"

var (
	ErrTenantRequired = errors.New("tenant is required")
	ErrInvalidTenant  = errors.New("tenant subdomain is invalid")
)

// Subdomains end up as part of a schema identifier, so only a narrow alphabet is accepted.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{0,39}$`)

// Tenant is a validated tenant identifier. The zero value is not a valid tenant.
type Tenant struct {
	subdomain string
}

func Parse(subdomain string) (Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return Tenant{}, ErrTenantRequired
	}
	if !subdomainPattern.MatchString(subdomain) {
		return Tenant{}, ErrInvalidTenant
	}
	return Tenant{subdomain: subdomain}, nil
}

func (t Tenant) Subdomain() string {
	return t.subdomain
}

// Schema returns the database schema holding this tenant's rows.
func (t Tenant) Schema() string {
	return schemaPrefix + t.subdomain
}

func (t Tenant) IsZero() bool {
	return t.subdomain == ""
}

func (t Tenant) String() string {
	return t.subdomain
}

type contextKey struct{}

func WithContext(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	if !ok || t.IsZero() {
		return Tenant{}, false
	}
	return t, true
}
