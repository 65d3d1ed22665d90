// Package tenant scopes stored product forms to the shop that owns them.
package tenant

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

type contextKey string

const tenantContextKey contextKey = "tenant.id"

// DefaultHeader carries the shop identifier when no subdomain is used.
const DefaultHeader = "X-Tenant-ID"

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Resolver resolves the shop of a request from a header or the request subdomain.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver returns a resolver. An empty headerName means DefaultHeader.
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware stores the resolved shop in the request context. Identifiers that
// could not be used as a key segment are ignored.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)
		if id == "" || !validID.MatchString(id) {
			id = r.DefaultTenant
		}
		if id != "" {
			req = req.WithContext(With(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve reads the shop identifier from the header, falling back to the subdomain.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := strings.TrimSpace(req.Header.Get(r.HeaderName)); id != "" {
		return id
	}
	host := hostWithoutPort(req.Host)
	if host == "" || r.RootDomain == "" {
		return ""
	}
	host = strings.ToLower(host)
	suffix := "." + r.RootDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	labels := strings.Split(strings.TrimSuffix(host, suffix), ".")
	return strings.TrimSpace(labels[len(labels)-1])
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(hostport, "[]")
}

// With stores the shop identifier inside the context.
func With(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantContextKey, id)
}

// From extracts the shop identifier from the context if available.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(tenantContextKey).(string)
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// PrefixKey namespaces a storage key by shop.
func PrefixKey(id, key string) string {
	if id == "" {
		return key
	}
	return id + ":" + key
}
