package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courses := NewCourseService(f.db)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))

	course, err := courses.Create(ctx, alice, "  Side Dish ")
	require.NoError(t, err)
	assert.Equal(t, "Side Dish", course.Title)
	assert.Equal(t, "side-dish", course.Slug)

	_, err = courses.Create(ctx, bob, "Side Dish")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = courses.Update(ctx, bob, "side-dish", "Sides")
	assert.ErrorIs(t, err, ErrForbidden)

	renamed, err := courses.Update(ctx, alice, "side-dish", "Sides")
	require.NoError(t, err)
	assert.Equal(t, "Sides", renamed.Title)
	assert.Equal(t, "side-dish", renamed.Slug, "renaming keeps the slug")

	_, err = courses.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletingCourseKeepsRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	payload := recipePayload("Fries")
	payload["course"] = map[string]interface{}{"title": "Sides"}
	recipe := createRecipe(t, f, actor, payload)

	require.NoError(t, NewCourseService(f.db).Delete(ctx, actor, "sides"))

	got := reloadRecipe(t, f, recipe.ID)
	assert.Nil(t, got.CourseID)
	assert.Zero(t, countRows(t, f.db, "courses"))
}

func TestSeasonsAndTagsAreStaffManaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seasons := NewSeasonService(f.db)
	tags := NewTagService(f.db)
	user := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	staff := actorFor(testutil.CreateUser(t, f.db, "carol", models.RoleStaff))

	_, err := seasons.Create(ctx, user, "Autumn")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = seasons.Create(ctx, nil, "Autumn")
	assert.ErrorIs(t, err, ErrForbidden)

	season, err := seasons.Create(ctx, staff, "Autumn")
	require.NoError(t, err)
	assert.Equal(t, "autumn", season.Slug)

	payload := recipePayload("Pumpkin Soup")
	payload["tags"] = []interface{}{"Cozy"}
	recipe := createRecipe(t, f, user, payload)

	// tags are looked up by title
	tag, err := tags.Get(ctx, "Cozy")
	require.NoError(t, err)
	assert.Equal(t, "cozy", tag.Slug)

	assert.ErrorIs(t, tags.Delete(ctx, user, "Cozy"), ErrForbidden)

	renamed, err := tags.Update(ctx, staff, "Cozy", "Comfort")
	require.NoError(t, err)
	assert.Equal(t, "Comfort", renamed.Title)

	require.NoError(t, tags.Delete(ctx, staff, "Comfort"))
	got, err := f.recipes.Get(ctx, recipe.Slug, user)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestTaxonomyTitleValidation(t *testing.T) {
	f := newFixture(t)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	_, err := NewCuisineService(f.db).Create(context.Background(), actor, "   ")

	verr := requireValidation(t, err)
	assert.Equal(t, []string{"This field cannot be blank."}, verr.Fields["title"])
}

func TestListTaxonomyOrderedByTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cuisines := NewCuisineService(f.db)
	actor := actorFor(testutil.CreateUser(t, f.db, "carol", models.RoleStaff))

	for _, title := range []string{"Thai", "Greek", "Mexican"} {
		_, err := cuisines.Create(ctx, actor, title)
		require.NoError(t, err)
	}

	rows, err := cuisines.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Greek", rows[0].Title)
	assert.Equal(t, "Thai", rows[2].Title)
}
