package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func resolved(t *testing.T, r *Resolver, req *http.Request) string {
	t.Helper()
	var got string
	r.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		got, _ = From(req.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestResolverPrefersHeader(t *testing.T) {
	r := NewResolver("", "shops.example", "main")

	req := httptest.NewRequest(http.MethodGet, "http://acme.shops.example/api", nil)
	require.Equal(t, "acme", resolved(t, r, req))

	req.Header.Set(DefaultHeader, "globex")
	require.Equal(t, "globex", resolved(t, r, req))

	req = httptest.NewRequest(http.MethodGet, "http://shops.example:8080/api", nil)
	require.Equal(t, "main", resolved(t, r, req))

	req.Header.Set(DefaultHeader, "../../etc")
	require.Equal(t, "main", resolved(t, r, req), "unsafe identifiers fall back to the default")
}

func TestPrefixKey(t *testing.T) {
	require.Equal(t, "form:p1", PrefixKey("", "form:p1"))
	require.Equal(t, "acme:form:p1", PrefixKey("acme", "form:p1"))
}
