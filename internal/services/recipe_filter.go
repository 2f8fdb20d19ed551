package services

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ErrInvalidFilter is returned when a filter parameter cannot be parsed
var ErrInvalidFilter = errors.New("invalid filter")

// RecipeFilter holds the optional recipe listing filters. Values within one
// field match with OR, fields combine with AND. A nil slice means the filter
// was not given; a present but empty value matches nothing.
type RecipeFilter struct {
	Viewer     *Actor
	Courses    []string
	Cuisines   []string
	Seasons    []string
	Tags       []string
	Ratings    []int
	Search     string
	Author     string
	Source     string
	Info       string
	Directions string
}

// Taxonomy filter fields, used to drop a taxonomy's own filter when counting it
const (
	FilterCourse  = "course"
	FilterCuisine = "cuisine"
	FilterSeason  = "season"
	FilterTag     = "tag"
)

// ParseRecipeFilter reads filters from query parameters. Both the short
// (course=) and the lookup (course__slug=) spellings are accepted.
func ParseRecipeFilter(q url.Values, viewer *Actor) (RecipeFilter, error) {
	f := RecipeFilter{
		Viewer:     viewer,
		Courses:    listParam(q, "course__slug", "course"),
		Cuisines:   listParam(q, "cuisine__slug", "cuisine"),
		Seasons:    listParam(q, "season__slug", "season"),
		Tags:       listParam(q, "tag__slug", "tag"),
		Search:     strings.TrimSpace(q.Get("search")),
		Author:     firstParam(q, "author__username", "author"),
		Source:     q.Get("source"),
		Info:       q.Get("info"),
		Directions: q.Get("directions"),
	}

	if q.Has("rating") {
		f.Ratings = []int{}
		for _, part := range strings.Split(q.Get("rating"), ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return f, fmt.Errorf("%w: rating %q", ErrInvalidFilter, part)
			}
			f.Ratings = append(f.Ratings, n)
		}
	}

	return f, nil
}

func listParam(q url.Values, keys ...string) []string {
	for _, key := range keys {
		if q.Has(key) {
			parts := strings.Split(q.Get(key), ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return nil
}

func firstParam(q url.Values, keys ...string) string {
	for _, key := range keys {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// Without returns a copy of the filter with one taxonomy filter removed
func (f RecipeFilter) Without(field string) RecipeFilter {
	switch field {
	case FilterCourse:
		f.Courses = nil
	case FilterCuisine:
		f.Cuisines = nil
	case FilterSeason:
		f.Seasons = nil
	case FilterTag:
		f.Tags = nil
	}
	return f
}

// Apply adds the filter predicates to a query over the recipes table.
// Relations are matched through subqueries so each recipe appears once.
func (f RecipeFilter) Apply(db *gorm.DB) *gorm.DB {
	fresh := db.Session(&gorm.Session{NewDB: true})

	if !f.Viewer.Authenticated() {
		db = db.Where("recipes.public = ?", true)
	}

	if f.Courses != nil {
		db = db.Where("recipes.course_id IN (?)",
			fresh.Table("courses").Select("id").Where("slug IN ?", f.Courses))
	}
	if f.Cuisines != nil {
		db = db.Where("recipes.cuisine_id IN (?)",
			fresh.Table("cuisines").Select("id").Where("slug IN ?", f.Cuisines))
	}
	if f.Seasons != nil {
		db = db.Where("recipes.id IN (?)",
			fresh.Table("recipe_seasons").Select("recipe_seasons.recipe_id").
				Joins("JOIN seasons ON seasons.id = recipe_seasons.season_id").
				Where("seasons.slug IN ?", f.Seasons))
	}
	if f.Tags != nil {
		db = db.Where("recipes.id IN (?)",
			fresh.Table("recipe_tags").Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.Tags))
	}

	if f.Ratings != nil {
		// floor(rating) = k is expressed as a range so it works on every driver
		conds := make([]string, 0, len(f.Ratings))
		args := make([]interface{}, 0, 2*len(f.Ratings))
		for _, k := range f.Ratings {
			conds = append(conds, "(recipes.rating >= ? AND recipes.rating < ?)")
			args = append(args, k, k+1)
		}
		if len(conds) == 0 {
			conds = append(conds, "1 = 0")
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	for _, term := range strings.Fields(f.Search) {
		like := containsPattern(term)
		db = db.Where("(LOWER(recipes.title) LIKE ? ESCAPE '\\' OR recipes.id IN (?) OR recipes.id IN (?) OR recipes.id IN (?))",
			like,
			fresh.Table("ingredient_groups").Select("ingredient_groups.recipe_id").
				Joins("JOIN ingredients ON ingredients.ingredient_group_id = ingredient_groups.id").
				Where("LOWER(ingredients.title) LIKE ? ESCAPE '\\'", like),
			fresh.Table("recipe_tags").Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("LOWER(tags.title) LIKE ? ESCAPE '\\'", like),
			fresh.Table("recipe_seasons").Select("recipe_seasons.recipe_id").
				Joins("JOIN seasons ON seasons.id = recipe_seasons.season_id").
				Where("LOWER(seasons.title) LIKE ? ESCAPE '\\'", like),
		)
	}

	if f.Author != "" {
		db = db.Where("recipes.author_id IN (?)",
			fresh.Table("users").Select("id").Where("username = ?", f.Author))
	}
	if f.Source != "" {
		db = db.Where("LOWER(recipes.source) LIKE ? ESCAPE '\\'", containsPattern(f.Source))
	}
	if f.Info != "" {
		db = db.Where("LOWER(recipes.info) LIKE ? ESCAPE '\\'", containsPattern(f.Info))
	}
	if f.Directions != "" {
		db = db.Where("LOWER(recipes.directions) LIKE ? ESCAPE '\\'", containsPattern(f.Directions))
	}

	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching term anywhere,
// with the LIKE wildcards in term escaped by a backslash.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

var orderColumns = map[string]string{
	"pub_date": "recipes.created_at",
	"title":    "recipes.title",
	"rating":   "recipes.rating",
}

const defaultRecipeOrder = "recipes.created_at DESC, recipes.title ASC, recipes.id DESC"

// RecipeOrder converts an ordering parameter such as "-rating,title" into an
// ORDER BY clause. Unknown fields are ignored.
func RecipeOrder(raw string) string {
	var parts []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if col, ok := orderColumns[field]; ok {
			parts = append(parts, col+" "+dir)
		}
	}
	if len(parts) == 0 {
		return defaultRecipeOrder
	}
	return strings.Join(append(parts, "recipes.id DESC"), ", ")
}
