package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func TestSetPhotoStoresPhotoAndThumbnail(t *testing.T) {
	f := newFixture(t)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	recipe := createRecipe(t, f, actor, recipePayload("Tart"))

	updated, err := f.photos.SetPhoto(context.Background(), recipe.Slug, actor, pngImage(t, 120, 90))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(updated.Photo, photoPrefix))
	assert.True(t, strings.HasPrefix(updated.PhotoThumbnail, thumbnailPrefix))
	assert.True(t, f.store.Exists(updated.Photo))
	assert.True(t, f.store.Exists(updated.PhotoThumbnail))
	assert.Equal(t, "/media/"+updated.Photo, updated.PhotoURL)
	assert.Equal(t, "/media/"+updated.PhotoThumbnail, updated.ThumbnailURL)
}

func TestSetPhotoRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	recipe := createRecipe(t, f, actor, recipePayload("Tart"))

	_, err := f.photos.SetPhoto(context.Background(), recipe.Slug, actor, strings.NewReader("not an image"))

	verr := requireValidation(t, err)
	assert.True(t, verr.Has("photo"))
}

func TestSetPhotoRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	author := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	other := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))
	recipe := createRecipe(t, f, author, recipePayload("Tart"))

	_, err := f.photos.SetPhoto(context.Background(), recipe.Slug, other, pngImage(t, 10, 10))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReplacedPhotoIsDeletedUnlessShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	tart := createRecipe(t, f, actor, recipePayload("Tart"))
	pie := createRecipe(t, f, actor, recipePayload("Pie"))

	first, err := f.photos.SetPhoto(ctx, tart.Slug, actor, pngImage(t, 40, 40))
	require.NoError(t, err)
	second, err := f.photos.SetPhoto(ctx, tart.Slug, actor, pngImage(t, 40, 40))
	require.NoError(t, err)

	assert.False(t, f.store.Exists(first.Photo), "unshared photo is removed on replace")
	assert.False(t, f.store.Exists(first.PhotoThumbnail))

	// a copied recipe shares the photo file
	require.NoError(t, f.db.Model(&models.Recipe{}).Where("id = ?", pie.ID).
		UpdateColumns(map[string]interface{}{"photo": second.Photo, "photo_thumbnail": second.PhotoThumbnail}).Error)

	_, err = f.photos.SetPhoto(ctx, tart.Slug, actor, pngImage(t, 40, 40))
	require.NoError(t, err)
	assert.True(t, f.store.Exists(second.Photo), "shared photo is kept")

	require.NoError(t, f.recipes.Delete(ctx, pie.Slug, actor))
	assert.False(t, f.store.Exists(second.Photo), "last reference removed")
}

func TestReleaseKeepsFilesWhenDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	recipe := createRecipe(t, f, actor, recipePayload("Tart"))
	keeping := NewPhotoService(f.db, f.store, "LOW", false)

	first, err := keeping.SetPhoto(ctx, recipe.Slug, actor, pngImage(t, 20, 20))
	require.NoError(t, err)
	_, err = keeping.SetPhoto(ctx, recipe.Slug, actor, pngImage(t, 20, 20))
	require.NoError(t, err)

	assert.True(t, f.store.Exists(first.Photo))
}
