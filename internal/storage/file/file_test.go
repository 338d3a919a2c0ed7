package file

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadsocial/agora/internal/storage"
)

var ctx = context.Background()

func newStorage(t *testing.T) (storage.Storage, string) {
	dir, err := ioutil.TempDir("", "agora-file-storage")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	s, err := New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	return s, filepath.Join(dir, "data")
}

func TestFs_Load_NotFound(t *testing.T) {
	s, _ := newStorage(t)

	_, err := s.Load(ctx, storage.PostsCollection)
	require.Equal(t, storage.ErrNotFound, err)
}

func TestFs_SaveLoad(t *testing.T) {
	s, dir := newStorage(t)

	require.NoError(t, s.Save(ctx, storage.PollsCollection, []byte(`[{"id":"1"}]`)))
	require.NoError(t, s.Save(ctx, storage.PollsCollection, []byte(`[]`)))

	b, err := s.Load(ctx, storage.PollsCollection)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temp files must not be left behind")
	assert.Equal(t, "polls.json", files[0].Name())
}

func TestFs_Save_Error(t *testing.T) {
	s, dir := newStorage(t)
	require.NoError(t, os.RemoveAll(dir))

	require.Error(t, s.Save(ctx, storage.PostsCollection, []byte(`[]`)))
	require.Error(t, s.Ping(ctx))
}

func TestFs_Ping(t *testing.T) {
	s, _ := newStorage(t)

	require.NoError(t, s.Ping(ctx))
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "profiles.json"), Path("data", storage.ProfilesCollection))
}
