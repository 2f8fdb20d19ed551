package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroceryListSharing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := NewGroceryService(f.db)
	owner := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	friend := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))

	list, err := groceries.CreateList(ctx, owner, "Weekend")
	require.NoError(t, err)
	assert.Equal(t, "weekend", list.Slug)
	assert.Equal(t, "alice", list.Username)

	item, err := groceries.CreateItem(ctx, owner, GroceryItemInput{List: &list.ID, Title: strPtr("Milk")})
	require.NoError(t, err)

	_, err = groceries.GetList(ctx, friend, list.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = groceries.GetItem(ctx, friend, item.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	items, err := groceries.Items(ctx, friend, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = groceries.Share(ctx, owner, list.Slug, "bob")
	require.NoError(t, err)
	_, err = groceries.Share(ctx, owner, list.Slug, "bob")
	assert.ErrorIs(t, err, ErrConflict)

	lists, err := groceries.Lists(ctx, friend)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, int64(1), lists[0].ItemCount)

	updated, err := groceries.UpdateItem(ctx, friend, item.ID, GroceryItemInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Milk", updated.Title)

	_, err = groceries.UpdateList(ctx, friend, list.Slug, "Mine")
	assert.ErrorIs(t, err, ErrForbidden, "shared users cannot rename the list")

	require.NoError(t, groceries.Unshare(ctx, owner, list.Slug, "bob"))
	assert.ErrorIs(t, groceries.Unshare(ctx, owner, list.Slug, "bob"), ErrNotFound)
	_, err = groceries.GetItem(ctx, friend, item.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGroceryShareWithOwnerIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := NewGroceryService(f.db)
	owner := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	list, err := groceries.CreateList(ctx, owner, "Weekend")
	require.NoError(t, err)

	_, err = groceries.Share(ctx, owner, list.Slug, "alice")
	verr := requireValidation(t, err)
	assert.True(t, verr.Has("shared_to"))

	_, err = groceries.Share(ctx, owner, list.Slug, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroceryItemCountSkipsCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := NewGroceryService(f.db)
	owner := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))

	list, err := groceries.CreateList(ctx, owner, "Weekend")
	require.NoError(t, err)
	for i, title := range []string{"Eggs", "Bread", "Butter"} {
		_, err := groceries.CreateItem(ctx, owner, GroceryItemInput{List: &list.ID, Title: strPtr(title), Order: intPtr(3 - i), Completed: boolPtr(i == 0)})
		require.NoError(t, err)
	}

	got, err := groceries.GetList(ctx, owner, list.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ItemCount)

	items, err := groceries.Items(ctx, owner, &list.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Butter", items[0].Title, "items are ordered by their order field")
}

func TestGroceryBulkUpdateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := NewGroceryService(f.db)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	bob := actorFor(testutil.CreateUser(t, f.db, "bob", models.RoleUser))

	mine, err := groceries.CreateList(ctx, alice, "Mine")
	require.NoError(t, err)
	theirs, err := groceries.CreateList(ctx, bob, "Theirs")
	require.NoError(t, err)
	a, err := groceries.CreateItem(ctx, alice, GroceryItemInput{List: &mine.ID, Title: strPtr("Apples")})
	require.NoError(t, err)
	b, err := groceries.CreateItem(ctx, bob, GroceryItemInput{List: &theirs.ID, Title: strPtr("Beer")})
	require.NoError(t, err)

	_, err = groceries.BulkUpdate(ctx, alice, []GroceryItemInput{
		{ID: a.ID, Completed: boolPtr(true)},
		{ID: b.ID, Completed: boolPtr(true)},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	reloaded, err := groceries.GetItem(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Completed, "nothing is written when one item fails")

	updated, err := groceries.BulkUpdate(ctx, alice, []GroceryItemInput{
		{ID: a.ID, Completed: boolPtr(true), Order: intPtr(5)},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, updated[0].Completed)
	assert.Equal(t, 5, updated[0].Order)
}

func TestGroceryAdminSeesEveryList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := NewGroceryService(f.db)
	alice := actorFor(testutil.CreateUser(t, f.db, "alice", models.RoleUser))
	admin := actorFor(testutil.CreateUser(t, f.db, "root", models.RoleAdmin))

	list, err := groceries.CreateList(ctx, alice, "Weekend")
	require.NoError(t, err)

	lists, err := groceries.Lists(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	require.NoError(t, groceries.DeleteList(ctx, admin, list.Slug))
	assert.Zero(t, countRows(t, f.db, "grocery_lists"))

	_, err = groceries.Lists(ctx, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}
