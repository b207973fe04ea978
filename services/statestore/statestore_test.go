package statestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeStore) Load(ctx context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.data == nil {
		return nil, os.ErrNotExist
	}
	return s.data, nil
}

func (s *fakeStore) Save(ctx context.Context, data []byte) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = data
	return nil
}

func TestFileStoreMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "state.json"))

	err := store.Save(ctx, []byte(`{"hello":"world"}`))
	require.NoError(t, err)

	data, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"hello":"world"}`, string(data))
}

func TestMirrorPrefersOnline(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{data: []byte("stale")}
	online := &fakeStore{data: []byte("fresh")}

	data, err := Mirror{Local: local, Online: online}.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(data))
	require.Equal(t, "fresh", string(local.data))
}

func TestMirrorFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{data: []byte("local copy")}
	online := &fakeStore{loadErr: fmt.Errorf("api unreachable")}

	data, err := Mirror{Local: local, Online: online}.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "local copy", string(data))
}

func TestMirrorWithoutOnline(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{data: []byte("local copy")}

	data, err := Mirror{Local: local}.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "local copy", string(data))
}

func TestMirrorSaveWritesBoth(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{}
	online := &fakeStore{}

	err := Mirror{Local: local, Online: online}.Save(ctx, []byte("state"))
	require.NoError(t, err)
	require.Equal(t, "state", string(local.data))
	require.Equal(t, "state", string(online.data))
}

func TestMirrorSaveToleratesOnlineFailure(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{}
	online := &fakeStore{saveErr: fmt.Errorf("api unreachable")}

	err := Mirror{Local: local, Online: online}.Save(ctx, []byte("state"))
	require.NoError(t, err)
	require.Equal(t, "state", string(local.data))
}

func TestMirrorSaveReportsLocalFailure(t *testing.T) {
	ctx := context.Background()
	local := &fakeStore{saveErr: fmt.Errorf("disk full")}
	online := &fakeStore{}

	err := Mirror{Local: local, Online: online}.Save(ctx, []byte("state"))
	require.Error(t, err)
}
