package blob

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := s.Put(ctx, "/products/p-1/", ".JPG", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "products/p-1/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".jpg"))
	assert.EqualValues(t, len("jpeg-bytes"), obj.Size)

	rc, err := s.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, s.Delete(ctx, obj.Key))
	require.NoError(t, s.Delete(ctx, obj.Key), "deleting twice is fine")
	_, err = s.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, s.Delete(context.Background(), ""), ErrInvalidKey)
}

func TestPutHonoursCancellation(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "x", "png", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
