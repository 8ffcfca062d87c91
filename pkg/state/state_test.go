package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Missing(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func Test_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir)
	require.NoError(t, err)

	fetchedAt := time.Date(2022, 8, 7, 12, 0, 0, 0, time.UTC)
	s.SetFetchState(FetchState{
		Version:   "0.3.21",
		URL:       "https://github.com/xianyi/OpenBLAS/releases/download/v0.3.21/OpenBLAS-0.3.21.tar.gz",
		SHA256:    "abc",
		Path:      filepath.Join(dir, "OpenBLAS-0.3.21"),
		FetchedAt: fetchedAt,
	})
	s.SetFetchState(FetchState{Version: "0.3.20"})
	require.NoError(t, s.Save())

	assert.FileExists(t, filepath.Join(dir, FileName))

	loaded, err := Load(dir)
	require.NoError(t, err)

	got, ok := loaded.GetFetchState("0.3.21")
	require.True(t, ok)
	assert.Equal(t, "abc", got.SHA256)
	assert.True(t, fetchedAt.Equal(got.FetchedAt))

	list := loaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "0.3.20", list[0].Version)

	_, ok = loaded.GetFetchState("0.3.19")
	assert.False(t, ok)
}

func Test_Load_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("fetches: [\n"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func Test_Update_Concurrent(t *testing.T) {
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := Update(context.TODO(), dir, func(s *State) {
				s.SetFetchState(FetchState{Version: fmt.Sprintf("0.3.%d", i)})
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, s.List(), 20)

	// only the state file and its lock remain
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{FileName, FileName + ".lock"}, names)
}

func Test_Update_ReplacesCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("fetches: [\n"), 0644))

	require.NoError(t, Update(context.TODO(), dir, func(s *State) {
		s.SetFetchState(FetchState{Version: "0.3.21"})
	}))

	s, err := Load(dir)
	require.NoError(t, err)
	_, ok := s.GetFetchState("0.3.21")
	assert.True(t, ok)
}

func Test_Update_Canceled(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.TODO())
	cancel()

	err := Update(ctx, dir, func(s *State) {})
	assert.Error(t, err)
}
