package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MenuItemInput carries the writable menu item fields; nil means not sent
type MenuItemInput struct {
	Recipe       *uint      `json:"recipe"`
	StartDate    *time.Time `json:"start_date"`
	Complete     *bool      `json:"complete"`
	CompleteDate *time.Time `json:"complete_date"`
	ExtTitle     *string    `json:"ext_title"`
	ExtSource    *string    `json:"ext_source"`
}

// MenuQuery narrows a menu listing
type MenuQuery struct {
	Complete *bool
	Recipe   *uint
}

type MenuService interface {
	List(ctx context.Context, actor *Actor, q MenuQuery) ([]models.MenuItem, error)
	Get(ctx context.Context, actor *Actor, id uint) (*models.MenuItem, error)
	Create(ctx context.Context, actor *Actor, in MenuItemInput) (*models.MenuItem, error)
	Update(ctx context.Context, actor *Actor, id uint, in MenuItemInput) (*models.MenuItem, error)
	Delete(ctx context.Context, actor *Actor, id uint) error
	// Stats counts completed menu items per recipe, most recently made first
	Stats(ctx context.Context, actor *Actor) ([]models.MenuStat, error)
}

type menuService struct {
	db     *gorm.DB
	global bool
}

// NewMenuService creates the menu service. With global set every user
// shares one menu plan.
func NewMenuService(db *gorm.DB, global bool) MenuService {
	return &menuService{db: db, global: global}
}

func (s *menuService) scoped(ctx context.Context, actor *Actor) *gorm.DB {
	db := s.db.WithContext(ctx)
	if !s.global {
		db = db.Where("menu_items.author_id = ?", actor.UserID)
	}
	return db
}

func (s *menuService) List(ctx context.Context, actor *Actor, q MenuQuery) ([]models.MenuItem, error) {
	if !actor.Authenticated() {
		return []models.MenuItem{}, nil
	}

	query := s.scoped(ctx, actor).Preload("Recipe")
	if q.Complete != nil {
		query = query.Where("menu_items.complete = ?", *q.Complete)
	}
	if q.Recipe != nil {
		query = query.Where("menu_items.recipe_id = ?", *q.Recipe)
	}

	var items []models.MenuItem
	if err := query.Order("menu_items.start_date, menu_items.id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *menuService) Get(ctx context.Context, actor *Actor, id uint) (*models.MenuItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Preload("Recipe").First(&item, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("menu item %d", id))
	}
	if !s.global && !actor.IsStaff() && item.AuthorID != actor.UserID {
		return nil, ErrForbidden
	}
	return &item, nil
}

func (s *menuService) apply(db *gorm.DB, item *models.MenuItem, in MenuItemInput) error {
	if in.Recipe != nil {
		var recipe models.Recipe
		if err := db.Select("id").First(&recipe, *in.Recipe).Error; err != nil {
			return notFound(err, fmt.Sprintf("recipe %d", *in.Recipe))
		}
		item.RecipeID = &recipe.ID
	}
	if in.StartDate != nil {
		item.StartDate = *in.StartDate
	}
	if in.ExtTitle != nil {
		item.ExtTitle = *in.ExtTitle
	}
	if in.ExtSource != nil {
		item.ExtSource = *in.ExtSource
	}
	if in.CompleteDate != nil {
		item.CompleteDate = in.CompleteDate
	}
	if in.Complete != nil {
		item.Complete = *in.Complete
		if item.Complete && item.CompleteDate == nil {
			now := time.Now()
			item.CompleteDate = &now
		}
	}

	if item.StartDate.IsZero() {
		return fieldError("start_date", "This field is required.")
	}
	if verr := validation.ValidateStruct(item, ""); verr != nil {
		return verr
	}
	return nil
}

func (s *menuService) Create(ctx context.Context, actor *Actor, in MenuItemInput) (*models.MenuItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	item := models.MenuItem{AuthorID: actor.UserID}
	if err := s.apply(db, &item, in); err != nil {
		return nil, err
	}
	if err := db.Omit(clause.Associations).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return s.Get(ctx, actor, item.ID)
}

func (s *menuService) Update(ctx context.Context, actor *Actor, id uint, in MenuItemInput) (*models.MenuItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	item.Recipe = nil

	db := s.db.WithContext(ctx)
	if err := s.apply(db, item, in); err != nil {
		return nil, err
	}
	if err := db.Omit(clause.Associations).Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return s.Get(ctx, actor, id)
}

func (s *menuService) Delete(ctx context.Context, actor *Actor, id uint) error {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.MenuItem{}, item.ID).Error
}

func (s *menuService) Stats(ctx context.Context, actor *Actor) ([]models.MenuStat, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}

	var items []models.MenuItem
	err := s.scoped(ctx, actor).Preload("Recipe").
		Where("menu_items.complete = ? AND menu_items.recipe_id IS NOT NULL", true).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	// grouped in memory, most recently made first
	byRecipe := map[uint]*models.MenuStat{}
	stats := []*models.MenuStat{}
	for _, item := range items {
		if item.Recipe == nil {
			continue
		}
		stat, ok := byRecipe[item.Recipe.ID]
		if !ok {
			stat = &models.MenuStat{RecipeID: item.Recipe.ID, Slug: item.Recipe.Slug, Title: item.Recipe.Title}
			byRecipe[item.Recipe.ID] = stat
			stats = append(stats, stat)
		}
		stat.NumMenuItems++
		if item.CompleteDate != nil && item.CompleteDate.After(stat.LastMade) {
			stat.LastMade = *item.CompleteDate
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if !stats[i].LastMade.Equal(stats[j].LastMade) {
			return stats[i].LastMade.After(stats[j].LastMade)
		}
		return stats[i].NumMenuItems < stats[j].NumMenuItems
	})

	result := make([]models.MenuStat, 0, len(stats))
	for _, stat := range stats {
		result = append(result, *stat)
	}
	return result, nil
}
