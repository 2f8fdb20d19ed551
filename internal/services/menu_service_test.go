package services

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) *time.Time {
	d := time.Date(2024, time.March, n, 18, 0, 0, 0, time.UTC)
	return &d
}

func TestMenuItemsArePrivatePerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := NewMenuService(f.db, false)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))
	recipe := createRecipe(t, f, alice, recipePayload("Curry"))

	item, err := menu.Create(ctx, alice, MenuItemInput{Recipe: &recipe.ID, StartDate: day(1)})
	require.NoError(t, err)
	assert.Equal(t, "Curry", item.RecipeTitle)
	assert.Equal(t, "curry", item.RecipeSlug)
	assert.False(t, item.Complete)

	items, err := menu.List(ctx, bob, MenuQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = menu.Get(ctx, bob, item.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, menu.Delete(ctx, bob, item.ID), ErrForbidden)

	anonymous, err := menu.List(ctx, nil, MenuQuery{})
	require.NoError(t, err)
	assert.Empty(t, anonymous)
}

func TestGlobalMenuIsShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := NewMenuService(f.db, true)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))

	_, err := menu.Create(ctx, alice, MenuItemInput{ExtTitle: strPtr("Takeout"), StartDate: day(2)})
	require.NoError(t, err)

	items, err := menu.List(ctx, bob, MenuQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Takeout", items[0].ExtTitle)
}

func TestMenuItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := NewMenuService(f.db, false)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	_, err := menu.Create(ctx, actor, MenuItemInput{ExtTitle: strPtr("Leftovers")})
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("start_date"))

	_, err = menu.Create(ctx, actor, MenuItemInput{Recipe: uintPtr(404), StartDate: day(1)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = menu.Create(ctx, nil, MenuItemInput{StartDate: day(1)})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCompletingMenuItemSetsDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := NewMenuService(f.db, false)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	item, err := menu.Create(ctx, actor, MenuItemInput{ExtTitle: strPtr("Leftovers"), StartDate: day(1)})
	require.NoError(t, err)

	updated, err := menu.Update(ctx, actor, item.ID, MenuItemInput{Complete: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Complete)
	require.NotNil(t, updated.CompleteDate)

	done, err := menu.List(ctx, actor, MenuQuery{Complete: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, done, 1)
	open, err := menu.List(ctx, actor, MenuQuery{Complete: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMenuStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := NewMenuService(f.db, false)
	actor := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	curry := createRecipe(t, f, actor, recipePayload("Curry"))
	tacos := createRecipe(t, f, actor, recipePayload("Tacos"))

	for _, in := range []MenuItemInput{
		{Recipe: &curry.ID, StartDate: day(1), Complete: boolPtr(true), CompleteDate: day(1)},
		{Recipe: &curry.ID, StartDate: day(3), Complete: boolPtr(true), CompleteDate: day(3)},
		{Recipe: &tacos.ID, StartDate: day(5), Complete: boolPtr(true), CompleteDate: day(5)},
		{Recipe: &tacos.ID, StartDate: day(9)},
		{ExtTitle: strPtr("Pizza delivery"), StartDate: day(6), Complete: boolPtr(true)},
	} {
		_, err := menu.Create(ctx, actor, in)
		require.NoError(t, err)
	}

	stats, err := menu.Stats(ctx, actor)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "tacos", stats[0].Slug)
	assert.Equal(t, int64(1), stats[0].NumMenuItems)
	assert.True(t, stats[0].LastMade.Equal(*day(5)))

	assert.Equal(t, "curry", stats[1].Slug)
	assert.Equal(t, int64(2), stats[1].NumMenuItems)
	assert.True(t, stats[1].LastMade.Equal(*day(3)))

	_, err = menu.Stats(ctx, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}
