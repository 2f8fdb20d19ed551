package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
)

// Taxon is one of the recipe classification models
type Taxon interface {
	models.Course | models.Cuisine | models.Season | models.Tag
	GetID() uint
}

// TaxonomyService provides lookup and maintenance of one taxonomy kind
type TaxonomyService[T Taxon] interface {
	// List returns every row ordered by title
	List(ctx context.Context) ([]T, error)
	// Get finds a row by its lookup key (slug, or title for tags)
	Get(ctx context.Context, key string) (*T, error)
	Create(ctx context.Context, actor *Actor, title string) (*T, error)
	// Update renames a row; its slug is kept
	Update(ctx context.Context, actor *Actor, key, title string) (*T, error)
	Delete(ctx context.Context, actor *Actor, key string) error
	// Counts returns rows with the number of recipes matching filter,
	// ignoring the filter on this taxonomy itself
	Counts(ctx context.Context, filter RecipeFilter) ([]models.TaxonomyCount, error)
}

// taxonomyKind describes the table layout and policy of one taxonomy
type taxonomyKind[T Taxon] struct {
	table       string
	filterField string
	lookupCol   string
	owned       bool
	refTable    string
	refColumn   string
	countJoin   string
	countCol    string
	build       func(title string, author *uint) *T
}

type taxonomyService[T Taxon] struct {
	db   *gorm.DB
	kind taxonomyKind[T]
}

var courseKind = taxonomyKind[models.Course]{
	table:       "courses",
	refTable:    "recipes",
	refColumn:   "course_id",
	filterField: FilterCourse,
	lookupCol:   "slug",
	owned:       true,
	countJoin:   "JOIN recipes ON recipes.course_id = courses.id",
	countCol:    "recipes.id",
	build: func(title string, author *uint) *models.Course {
		return &models.Course{Title: title, AuthorID: author}
	},
}

var cuisineKind = taxonomyKind[models.Cuisine]{
	table:       "cuisines",
	refTable:    "recipes",
	refColumn:   "cuisine_id",
	filterField: FilterCuisine,
	lookupCol:   "slug",
	owned:       true,
	countJoin:   "JOIN recipes ON recipes.cuisine_id = cuisines.id",
	countCol:    "recipes.id",
	build: func(title string, author *uint) *models.Cuisine {
		return &models.Cuisine{Title: title, AuthorID: author}
	},
}

var seasonKind = taxonomyKind[models.Season]{
	table:       "seasons",
	refTable:    "recipe_seasons",
	refColumn:   "season_id",
	filterField: FilterSeason,
	lookupCol:   "slug",
	countJoin:   "JOIN recipe_seasons ON recipe_seasons.season_id = seasons.id",
	countCol:    "recipe_seasons.recipe_id",
	build: func(title string, _ *uint) *models.Season {
		return &models.Season{Title: title}
	},
}

var tagKind = taxonomyKind[models.Tag]{
	table:       "tags",
	refTable:    "recipe_tags",
	refColumn:   "tag_id",
	filterField: FilterTag,
	lookupCol:   "title",
	countJoin:   "JOIN recipe_tags ON recipe_tags.tag_id = tags.id",
	countCol:    "recipe_tags.recipe_id",
	build: func(title string, _ *uint) *models.Tag {
		return &models.Tag{Title: title}
	},
}

func NewCourseService(db *gorm.DB) TaxonomyService[models.Course] {
	return &taxonomyService[models.Course]{db: db, kind: courseKind}
}

func NewCuisineService(db *gorm.DB) TaxonomyService[models.Cuisine] {
	return &taxonomyService[models.Cuisine]{db: db, kind: cuisineKind}
}

func NewSeasonService(db *gorm.DB) TaxonomyService[models.Season] {
	return &taxonomyService[models.Season]{db: db, kind: seasonKind}
}

func NewTagService(db *gorm.DB) TaxonomyService[models.Tag] {
	return &taxonomyService[models.Tag]{db: db, kind: tagKind}
}

func (s *taxonomyService[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	if err := s.db.WithContext(ctx).Order("title").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *taxonomyService[T]) Get(ctx context.Context, key string) (*T, error) {
	var row T
	err := s.db.WithContext(ctx).Where(s.kind.lookupCol+" = ?", key).First(&row).Error
	if err != nil {
		return nil, notFound(err, s.kind.table)
	}
	return &row, nil
}

func (s *taxonomyService[T]) Create(ctx context.Context, actor *Actor, title string) (*T, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	if !s.kind.owned && !actor.IsStaff() {
		return nil, ErrForbidden
	}

	row := s.kind.build(strings.TrimSpace(title), actor.idPtr())
	if verr := validation.ValidateStruct(row, ""); verr != nil {
		return nil, verr
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s %q: %w", s.kind.table, title, ErrConflict)
		}
		return nil, err
	}
	return row, nil
}

func (s *taxonomyService[T]) Update(ctx context.Context, actor *Actor, key, title string) (*T, error) {
	row, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.checkWrite(ctx, actor, key); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if verr := validation.ValidateStruct(s.kind.build(title, nil), ""); verr != nil {
		return nil, verr
	}
	err = s.db.WithContext(ctx).Model(row).Update("title", title).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%s %q: %w", s.kind.table, title, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	if s.kind.lookupCol == "title" {
		key = title
	}
	return s.Get(ctx, key)
}

func (s *taxonomyService[T]) Delete(ctx context.Context, actor *Actor, key string) error {
	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	if err := s.checkWrite(ctx, actor, key); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Table(s.kind.table).Select("id").Where(s.kind.lookupCol+" = ?", key)
		var err error
		if s.kind.owned {
			// recipes keep existing without the classification
			err = tx.Exec(fmt.Sprintf("UPDATE recipes SET %s = NULL WHERE %s IN (?)", s.kind.refColumn, s.kind.refColumn), ids).Error
		} else {
			err = tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s IN (?)", s.kind.refTable, s.kind.refColumn), ids).Error
		}
		if err != nil {
			return err
		}
		return tx.Where(s.kind.lookupCol+" = ?", key).Delete(new(T)).Error
	})
}

// checkWrite applies the write policy: course and cuisine rows may be
// changed by their author or staff, seasons and tags by staff only.
func (s *taxonomyService[T]) checkWrite(ctx context.Context, actor *Actor, key string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	if actor.IsStaff() {
		return nil
	}
	if !s.kind.owned {
		return ErrForbidden
	}

	var authorID *uint
	err := s.db.WithContext(ctx).Table(s.kind.table).Select("author_id").
		Where(s.kind.lookupCol+" = ?", key).Row().Scan(&authorID)
	if err != nil {
		return err
	}
	if !actor.CanEdit(authorID) {
		return ErrForbidden
	}
	return nil
}

func (s *taxonomyService[T]) Counts(ctx context.Context, filter RecipeFilter) ([]models.TaxonomyCount, error) {
	db := s.db.WithContext(ctx)
	recipeIDs := filter.Without(s.kind.filterField).Apply(db.Model(&models.Recipe{})).Select("recipes.id")

	t := s.kind.table
	var counts []models.TaxonomyCount
	err := db.Table(t).
		Select(fmt.Sprintf("%s.id, %s.title, %s.slug, COUNT(DISTINCT %s) AS total", t, t, t, s.kind.countCol)).
		Joins(s.kind.countJoin).
		Where(s.kind.countCol+" IN (?)", recipeIDs).
		Group(fmt.Sprintf("%s.id, %s.title, %s.slug", t, t, t)).
		Order(t + ".title").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
