package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayloadPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "imports/imp-1/payload.html", PayloadPath("", "imp-1"))
	require.Equal(t, "simmer/imports/imp-1/payload.html", PayloadPath("simmer/", "imp-1"))
}

func TestNoopDrainsAndReturnsEmptyURI(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("payload")
	uri, err := Noop{}.PutObject(context.Background(), "p", "text/html", r)
	require.NoError(t, err)
	require.Empty(t, uri)
	require.Zero(t, r.Len())
}
