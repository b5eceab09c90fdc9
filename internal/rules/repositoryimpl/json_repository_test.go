package repositoryimpl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmdwarden/cmdwarden/pkg/storage"
)

func newRepo(t *testing.T) (*JSONRepository, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocal(dir)
	require.NoError(t, err)
	return NewJSONRepository(local), dir
}

func TestLoadSeedsDocumentOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	repo, dir := newRepo(t)

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Allow)
	assert.Empty(t, doc.Deny)
	assert.Empty(t, doc.Ask)
	assert.Contains(t, doc.Extra, "syntax_note")

	// the seed is persisted
	_, err = os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
}

func TestLoadTreatsCorruptFileAsEmpty(t *testing.T) {
	ctx := context.Background()
	repo, dir := newRepo(t)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Allow)
	assert.Empty(t, doc.Deny)
	assert.Empty(t, doc.Ask)

	// the broken file is left in place for the user to repair
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	doc.Allow = []string{"git status", "ls *"}
	doc.Deny = []string{"rm -rf *"}
	require.NoError(t, repo.Save(ctx, doc))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Allow, loaded.Allow)
	assert.Equal(t, doc.Deny, loaded.Deny)
	assert.Contains(t, loaded.Extra, "syntax_note")
}
