package media_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studysync/models"
	"studysync/services/media"
	"studysync/testutil"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store := media.NewLocalStore(dir, "/uploads/")

	asset, err := store.Upload(context.Background(), "Lecture One.MP4", strings.NewReader("frames"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(asset.ID, ".mp4"))
	assert.Equal(t, "/uploads/"+asset.ID, asset.URL)

	data, err := os.ReadFile(filepath.Join(dir, asset.ID))
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	require.NoError(t, store.Delete(context.Background(), asset.ID))
	_, err = os.Stat(filepath.Join(dir, asset.ID))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), asset.ID))
	assert.Error(t, store.Delete(context.Background(), "../etc/passwd"))
}

func TestReleaser(t *testing.T) {
	db := testutil.NewDB(t)
	dir := t.TempDir()
	store := media.NewLocalStore(dir, "/uploads")
	releaser := media.NewReleaser(db, store)

	asset, err := store.Upload(context.Background(), "thumb.png", strings.NewReader("png"))
	require.NoError(t, err)

	ids, err := media.Record(db, "test", asset.ID, "", "bad/id")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	assert.Equal(t, 1, releaser.Release(context.Background(), ids...))

	var left []models.AssetRelease
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "bad/id", left[0].AssetID)
	assert.Equal(t, 1, left[0].Attempts)
	assert.NotEmpty(t, left[0].LastError)
}
