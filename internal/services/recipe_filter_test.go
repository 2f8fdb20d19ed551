package services

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCatalog creates three public recipes:
//
//	Pancakes     breakfast/american  quick,sweet  4.5
//	Omelette     breakfast/french    quick        4.0
//	Ratatouille  dinner/french       vegetarian   3.2
func seedCatalog(t *testing.T, f *fixture) *Actor {
	t.Helper()
	actor := actorFor(testutil.CreateUser(t, f.db, "chef", models.RoleUser))

	entries := []struct {
		title, course, cuisine, ingredient string
		tags                               []interface{}
		rating                             float64
	}{
		{"Pancakes", "Breakfast", "American", "Flour", []interface{}{"Quick", "Sweet"}, 4.5},
		{"Omelette", "Breakfast", "French", "Egg", []interface{}{"Quick"}, 4.0},
		{"Ratatouille", "Dinner", "French", "Eggplant", []interface{}{"Vegetarian"}, 3.2},
	}
	for _, e := range entries {
		payload := recipePayload(e.title)
		payload["course"] = map[string]interface{}{"title": e.course}
		payload["cuisine"] = map[string]interface{}{"title": e.cuisine}
		payload["tags"] = e.tags
		payload["ingredient_groups"] = []interface{}{group("", ingredient(e.ingredient, 1, 1, ""))}
		recipe := createRecipe(t, f, actor, payload)
		require.NoError(t, f.db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).UpdateColumn("rating", e.rating).Error)
	}
	return actor
}

func listTitles(t *testing.T, f *fixture, query string, viewer *Actor) []string {
	t.Helper()

	q, err := url.ParseQuery(query)
	require.NoError(t, err)
	filter, err := ParseRecipeFilter(q, viewer)
	require.NoError(t, err)

	count, recipes, err := f.recipes.List(context.Background(), filter, "title", 0, 0)
	require.NoError(t, err)
	require.Equal(t, int(count), len(recipes))

	titles := make([]string, 0, len(recipes))
	for _, r := range recipes {
		titles = append(titles, r.Title)
	}
	return titles
}

func TestRecipeFilters(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{"no filter", "", []string{"Omelette", "Pancakes", "Ratatouille"}},
		{"rating bucket", "rating=4", []string{"Omelette", "Pancakes"}},
		{"several rating buckets", "rating=3,5", []string{"Ratatouille"}},
		{"tags match any", "tag=quick,sweet", []string{"Omelette", "Pancakes"}},
		{"course and cuisine combine", "course=breakfast&cuisine=french", []string{"Omelette"}},
		{"lookup spelling", "course__slug=dinner", []string{"Ratatouille"}},
		{"empty value matches nothing", "course=", []string{}},
		{"search ingredient", "search=egg", []string{"Omelette", "Ratatouille"}},
		{"search terms combine", "search=quick+pan", []string{"Pancakes"}},
		{"author", "author=chef", []string{"Omelette", "Pancakes", "Ratatouille"}},
		{"unknown author", "author__username=nobody", []string{}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, listTitles(t, f, tt.query, nil))
		})
	}
}

func TestRecipeFilterRejectsBadRating(t *testing.T) {
	_, err := ParseRecipeFilter(url.Values{"rating": {"4,high"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestPrivateRecipesOnlyListedForUsers(t *testing.T) {
	f := newFixture(t)
	actor := seedCatalog(t, f)
	payload := recipePayload("Family Secret")
	payload["public"] = false
	createRecipe(t, f, actor, payload)

	assert.Len(t, listTitles(t, f, "", nil), 3)
	assert.Len(t, listTitles(t, f, "", actor), 4)
}

func TestRecipeOrderingAndPaging(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)
	ctx := context.Background()

	_, recipes, err := f.recipes.List(ctx, RecipeFilter{}, "-rating", 0, 0)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Pancakes", recipes[0].Title)
	assert.Equal(t, "Ratatouille", recipes[2].Title)

	count, page, err := f.recipes.List(ctx, RecipeFilter{}, "title", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, page, 1)
	assert.Equal(t, "Pancakes", page[0].Title)
}

func TestRecipeOrder(t *testing.T) {
	assert.Equal(t, defaultRecipeOrder, RecipeOrder(""))
	assert.Equal(t, defaultRecipeOrder, RecipeOrder("unknown"))
	assert.Equal(t, "recipes.rating DESC, recipes.title ASC, recipes.id DESC", RecipeOrder("-rating,title"))
}

func TestMiniBrowse(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)
	ctx := context.Background()

	sample, err := f.recipes.MiniBrowse(ctx, RecipeFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)

	all, err := f.recipes.MiniBrowse(ctx, RecipeFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := f.recipes.MiniBrowse(ctx, RecipeFilter{Courses: []string{"lunch"}}, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaxonomyCountsIgnoreOwnFilter(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)
	ctx := context.Background()

	filter, err := ParseRecipeFilter(url.Values{"course": {"breakfast"}}, nil)
	require.NoError(t, err)

	courses, err := NewCourseService(f.db).Counts(ctx, filter)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "breakfast", courses[0].Slug)
	assert.Equal(t, int64(2), courses[0].Total)
	assert.Equal(t, "dinner", courses[1].Slug)
	assert.Equal(t, int64(1), courses[1].Total)

	cuisines, err := NewCuisineService(f.db).Counts(ctx, filter)
	require.NoError(t, err)
	require.Len(t, cuisines, 2)
	assert.Equal(t, "American", cuisines[0].Title)
	assert.Equal(t, int64(1), cuisines[0].Total)
	assert.Equal(t, "French", cuisines[1].Title)
	assert.Equal(t, int64(1), cuisines[1].Total)

	tags, err := NewTagService(f.db).Counts(ctx, RecipeFilter{})
	require.NoError(t, err)
	totals := map[string]int64{}
	for _, c := range tags {
		totals[c.Title] = c.Total
	}
	assert.Equal(t, map[string]int64{"Quick": 2, "Sweet": 1, "Vegetarian": 1}, totals)
}

func TestRatingCounts(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)

	buckets, err := NewRatingService(f.db).Counts(context.Background(), RecipeFilter{})
	require.NoError(t, err)

	assert.Equal(t, []models.RatingBucket{
		{Rating: 5, Total: 0},
		{Rating: 4, Total: 2},
		{Rating: 3, Total: 1},
		{Rating: 2, Total: 0},
		{Rating: 1, Total: 0},
		{Rating: 0, Total: 0},
	}, buckets)
}

func TestMiniBrowseShufflesOrder(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)
	ctx := context.Background()

	orders := map[string]bool{}
	for i := 0; i < 50; i++ {
		sample, err := f.recipes.MiniBrowse(ctx, RecipeFilter{}, 0)
		require.NoError(t, err)
		require.Len(t, sample, 3)

		titles := make([]string, 0, len(sample))
		for _, r := range sample {
			titles = append(titles, r.Title)
		}
		assert.ElementsMatch(t, []string{"Omelette", "Pancakes", "Ratatouille"}, titles)
		orders[strings.Join(titles, ",")] = true
	}
	assert.Greater(t, len(orders), 1, "results should not always come back in table order")
}

func TestRatingBucketsIncludeUnratedRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := actorFor(testutil.CreateUser(t, f.db, "chef", models.RoleUser))
	critic := actorFor(testutil.CreateUser(t, f.db, "critic", models.RoleUser))
	ratings := NewRatingService(f.db)

	createRecipe(t, f, author, recipePayload("A"))
	b := createRecipe(t, f, author, recipePayload("B"))
	c := createRecipe(t, f, author, recipePayload("C"))
	for _, r := range []struct {
		slug  string
		score int
	}{{b.Slug, 2}, {b.Slug, 3}, {c.Slug, 5}} {
		_, err := ratings.Create(ctx, critic, RatingInput{Recipe: r.slug, Rating: intPtr(r.score)})
		require.NoError(t, err)
	}
	require.Equal(t, 2.5, reloadRecipe(t, f, b.ID).Rating)

	assert.Equal(t, []string{"B"}, listTitles(t, f, "rating=2", nil))
	assert.Equal(t, []string{"A"}, listTitles(t, f, "rating=0", nil))
	assert.Equal(t, []string{"A", "B", "C"}, listTitles(t, f, "rating=0,1,2,3,4,5", nil))
}

func seedSources(t *testing.T, f *fixture) {
	t.Helper()
	actor := actorFor(testutil.CreateUser(t, f.db, "chef", models.RoleUser))

	for _, e := range []struct{ title, source, directions string }{
		{"Pancakes", "Grandma's Book", "Whisk until smooth."},
		{"Omelette", "Bistro", "Fold 50% of the filling in."},
		{"Ratatouille", "Grandma_s Book", "Layer the vegetables."},
	} {
		payload := recipePayload(e.title)
		payload["source"] = e.source
		payload["directions"] = e.directions
		createRecipe(t, f, actor, payload)
	}
}

func TestTextFiltersTreatWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	seedSources(t, f)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{"underscore in search", "search=_", []string{}},
		{"percent in search", "search=%25", []string{}},
		{"underscore in source", "source=a_s", []string{"Ratatouille"}},
		{"percent in directions", "directions=50%25", []string{"Omelette"}},
		{"percent alone in directions", "directions=%25", []string{"Omelette"}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, listTitles(t, f, tt.query, nil))
		})
	}
}

func TestTextFiltersIgnoreCase(t *testing.T) {
	f := newFixture(t)
	seedSources(t, f)

	assert.Equal(t, []string{"Pancakes", "Ratatouille"}, listTitles(t, f, "source=GRANDMA", nil))
	assert.Equal(t, []string{"Ratatouille"}, listTitles(t, f, "directions=layer", nil))
	assert.Equal(t, []string{"Omelette"}, listTitles(t, f, "info=&source=bistro", nil))
}
