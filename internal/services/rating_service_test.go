package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func uintPtr(n uint) *uint    { return &n }

func reloadRecipe(t *testing.T, f *fixture, id uint) models.Recipe {
	t.Helper()

	var recipe models.Recipe
	require.NoError(t, f.db.First(&recipe, id).Error)
	return recipe
}

func TestRatingsKeepRecipeAverageCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ratings := NewRatingService(f.db)
	author := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))
	recipe := createRecipe(t, f, author, recipePayload("Lasagna"))

	var ids []uint
	for _, score := range []int{5, 4, 4} {
		r, err := ratings.Create(ctx, bob, RatingInput{Recipe: recipe.Slug, Rating: intPtr(score), Comment: strPtr("tasty")})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	// 13/3 floors to 4.3
	got := reloadRecipe(t, f, recipe.ID)
	assert.Equal(t, 4.3, got.Rating)
	assert.Equal(t, 3, got.RatingCount)

	_, err := ratings.Update(ctx, bob, ids[2], RatingInput{Rating: intPtr(1)}, true)
	require.NoError(t, err)
	got = reloadRecipe(t, f, recipe.ID)
	assert.Equal(t, 3.3, got.Rating)

	require.NoError(t, ratings.Delete(ctx, bob, ids[2]))
	got = reloadRecipe(t, f, recipe.ID)
	assert.Equal(t, 4.5, got.Rating)
	assert.Equal(t, 2, got.RatingCount)

	require.NoError(t, ratings.Delete(ctx, bob, ids[0]))
	require.NoError(t, ratings.Delete(ctx, bob, ids[1]))
	got = reloadRecipe(t, f, recipe.ID)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.RatingCount)
}

func TestRatingScoreIsClamped(t *testing.T) {
	f := newFixture(t)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	recipe := createRecipe(t, f, actor, recipePayload("Lasagna"))

	rating, err := NewRatingService(f.db).Create(context.Background(), actor, RatingInput{Recipe: recipe.Slug, Rating: intPtr(9)})
	require.NoError(t, err)

	assert.Equal(t, models.MaxRating, rating.Rating)
	assert.Equal(t, "lasagna", rating.RecipeSlug)
	assert.Equal(t, "alice", rating.Username)
}

func TestRatingCreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ratings := NewRatingService(f.db)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	_, err := ratings.Create(ctx, nil, RatingInput{Recipe: "lasagna", Rating: intPtr(3)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = ratings.Create(ctx, actor, RatingInput{Rating: intPtr(3)})
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("recipe"))

	_, err = ratings.Create(ctx, actor, RatingInput{Recipe: "missing", Rating: intPtr(3)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRatingUpdatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ratings := NewRatingService(f.db)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))
	admin := actorFor(testutil.CreateUser(t, f.db, "root", models.RoleAdmin))
	recipe := createRecipe(t, f, alice, recipePayload("Lasagna"))

	rating, err := ratings.Create(ctx, alice, RatingInput{Recipe: recipe.Slug, Rating: intPtr(3), Comment: strPtr("ok")})
	require.NoError(t, err)

	_, err = ratings.Update(ctx, bob, rating.ID, RatingInput{Rating: intPtr(1)}, true)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, ratings.Delete(ctx, bob, rating.ID), ErrForbidden)

	updated, err := ratings.Update(ctx, admin, rating.ID, RatingInput{Comment: strPtr("moderated")}, true)
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Comment)
	assert.Equal(t, 3, updated.Rating, "partial update keeps the score")

	replaced, err := ratings.Update(ctx, alice, rating.ID, RatingInput{Rating: intPtr(2)}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, replaced.Rating)
	assert.Empty(t, replaced.Comment, "full update resets omitted fields")
}

func TestRatingListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ratings := NewRatingService(f.db)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))
	lasagna := createRecipe(t, f, alice, recipePayload("Lasagna"))
	soup := createRecipe(t, f, alice, recipePayload("Soup"))

	for _, in := range []struct {
		actor *Actor
		slug  string
	}{{alice, lasagna.Slug}, {bob, lasagna.Slug}, {bob, soup.Slug}} {
		_, err := ratings.Create(ctx, in.actor, RatingInput{Recipe: in.slug, Rating: intPtr(4)})
		require.NoError(t, err)
	}

	all, err := ratings.List(ctx, RatingQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byRecipe, err := ratings.List(ctx, RatingQuery{Recipe: "lasagna"})
	require.NoError(t, err)
	assert.Len(t, byRecipe, 2)

	byBoth, err := ratings.List(ctx, RatingQuery{Recipe: "soup", Author: "bob"})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, "soup", byBoth[0].RecipeSlug)
}

func TestRecomputeAllRepairsDriftAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ratings := NewRatingService(f.db)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	rated := createRecipe(t, f, actor, recipePayload("Lasagna"))
	unrated := createRecipe(t, f, actor, recipePayload("Soup"))

	for _, score := range []int{2, 3} {
		_, err := ratings.Create(ctx, actor, RatingInput{Recipe: rated.Slug, Rating: intPtr(score)})
		require.NoError(t, err)
	}
	require.NoError(t, f.db.Model(&models.Recipe{}).Where("id IN ?", []uint{rated.ID, unrated.ID}).
		UpdateColumns(map[string]interface{}{"rating": 4.9, "rating_count": 7}).Error)

	for i := 0; i < 2; i++ {
		visited, err := ratings.RecomputeAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, visited)

		got := reloadRecipe(t, f, rated.ID)
		assert.Equal(t, 2.5, got.Rating)
		assert.Equal(t, 2, got.RatingCount)

		got = reloadRecipe(t, f, unrated.ID)
		assert.Zero(t, got.Rating)
		assert.Zero(t, got.RatingCount)
	}
}
