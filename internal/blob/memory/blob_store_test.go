package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectStoresAndReturnsURI(t *testing.T) {
	t.Parallel()

	s := NewBlobStore()
	uri, err := s.PutObject(context.Background(), "imports/imp-1/payload.html", "text/html", strings.NewReader("<html></html>"))
	require.NoError(t, err)
	require.Equal(t, "memory://imports/imp-1/payload.html", uri)

	content, ok := s.Object("imports/imp-1/payload.html")
	require.True(t, ok)
	require.Equal(t, "<html></html>", string(content))
}
