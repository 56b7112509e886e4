package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuard_RejectsLoopbackLiteral(t *testing.T) {
	t.Parallel()

	_, err := Guard{}.ValidateURL("http://127.0.0.1/x")
	require.ErrorIs(t, err, ErrDisallowedHost)
}

func TestGuard_RejectsLocalhost(t *testing.T) {
	t.Parallel()

	_, err := Guard{}.ValidateURL("http://localhost/x")
	require.ErrorIs(t, err, ErrDisallowedHost)
}

func TestGuard_RejectsNonHTTPScheme(t *testing.T) {
	t.Parallel()

	_, err := Guard{}.ValidateURL("ftp://example.com/x")
	require.ErrorIs(t, err, ErrDisallowedScheme)
}

func TestGuard_RejectsPrivateRanges(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"http://192.168.1.5/x",
		"http://10.0.0.8/x",
		"http://172.16.0.1/x",
		"http://0.0.0.0/x",
		"http://[::1]/x",
		"http://[fe80::1]/x",
		"http://[fc00::2]/x",
	} {
		_, err := Guard{}.ValidateURL(raw)
		require.ErrorIs(t, err, ErrDisallowedHost, "url %s", raw)
	}
}

func TestGuard_RejectsDotLocal(t *testing.T) {
	t.Parallel()

	_, err := Guard{}.ValidateURL("http://printer.local/x")
	require.ErrorIs(t, err, ErrDisallowedHost)
}

func TestGuard_AcceptsPublicHTTPS(t *testing.T) {
	t.Parallel()

	u, err := Guard{}.ValidateURL("https://example.com/recipe")
	require.NoError(t, err)
	require.Equal(t, "example.com", u.Hostname())
}

func TestGuard_AllowPrivateSkipsHostChecks(t *testing.T) {
	t.Parallel()

	g := Guard{AllowPrivate: true}
	_, err := g.ValidateURL("http://127.0.0.1:9999/x")
	require.NoError(t, err)

	_, err = g.ValidateURL("ftp://example.com/x")
	require.ErrorIs(t, err, ErrDisallowedScheme)
}

func TestGuard_RejectsMissingHost(t *testing.T) {
	t.Parallel()

	_, err := Guard{}.ValidateURL("https:///nohost")
	require.ErrorIs(t, err, ErrInvalidURL)
}
