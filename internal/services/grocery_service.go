package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroceryItemInput carries the writable grocery item fields; nil means not sent.
// ID is only read by bulk updates.
type GroceryItemInput struct {
	ID        uint    `json:"id"`
	List      *uint   `json:"list"`
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
	Order     *int    `json:"order"`
}

type GroceryService interface {
	// Lists returns the lists the actor owns or that were shared to them
	Lists(ctx context.Context, actor *Actor) ([]models.GroceryList, error)
	GetList(ctx context.Context, actor *Actor, slug string) (*models.GroceryList, error)
	CreateList(ctx context.Context, actor *Actor, title string) (*models.GroceryList, error)
	UpdateList(ctx context.Context, actor *Actor, slug, title string) (*models.GroceryList, error)
	DeleteList(ctx context.Context, actor *Actor, slug string) error
	Share(ctx context.Context, actor *Actor, slug, username string) (*models.GroceryShared, error)
	Unshare(ctx context.Context, actor *Actor, slug, username string) error

	Items(ctx context.Context, actor *Actor, listID *uint) ([]models.GroceryItem, error)
	GetItem(ctx context.Context, actor *Actor, id uint) (*models.GroceryItem, error)
	CreateItem(ctx context.Context, actor *Actor, in GroceryItemInput) (*models.GroceryItem, error)
	UpdateItem(ctx context.Context, actor *Actor, id uint, in GroceryItemInput) (*models.GroceryItem, error)
	// BulkUpdate applies several item updates at once; every item must be
	// accessible to the actor or nothing is written
	BulkUpdate(ctx context.Context, actor *Actor, items []GroceryItemInput) ([]models.GroceryItem, error)
	DeleteItem(ctx context.Context, actor *Actor, id uint) error
}

type groceryService struct {
	db *gorm.DB
}

func NewGroceryService(db *gorm.DB) GroceryService {
	return &groceryService{db: db}
}

// visibleLists restricts a query to lists the actor may read
func (s *groceryService) visibleLists(db *gorm.DB, actor *Actor) *gorm.DB {
	if actor.IsSuperuser() {
		return db
	}
	shared := db.Session(&gorm.Session{NewDB: true}).Model(&models.GroceryShared{}).
		Select("list_id").Where("shared_to_id = ?", actor.UserID)
	return db.Where("grocery_lists.author_id = ? OR grocery_lists.id IN (?)", actor.UserID, shared)
}

func (s *groceryService) fillItemCounts(db *gorm.DB, lists []models.GroceryList) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]uint, len(lists))
	for i := range lists {
		ids[i] = lists[i].ID
	}

	var counts []struct {
		ListID uint
		Total  int64
	}
	err := db.Model(&models.GroceryItem{}).
		Select("list_id, COUNT(*) AS total").
		Where("list_id IN ? AND completed = ?", ids, false).
		Group("list_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}

	byList := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byList[c.ListID] = c.Total
	}
	for i := range lists {
		lists[i].ItemCount = byList[lists[i].ID]
	}
	return nil
}

func (s *groceryService) Lists(ctx context.Context, actor *Actor) ([]models.GroceryList, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var lists []models.GroceryList
	err := s.visibleLists(db.Preload("Author"), actor).Order("grocery_lists.created_at DESC, grocery_lists.id DESC").Find(&lists).Error
	if err != nil {
		return nil, err
	}
	if err := s.fillItemCounts(db, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *groceryService) GetList(ctx context.Context, actor *Actor, slug string) (*models.GroceryList, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var list models.GroceryList
	err := s.visibleLists(db.Preload("Author"), actor).Where("grocery_lists.slug = ?", slug).First(&list).Error
	if err != nil {
		return nil, notFound(err, "grocery list "+slug)
	}
	lists := []models.GroceryList{list}
	if err := s.fillItemCounts(db, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

// ownedList loads a list the actor may modify: its author or a superuser
func (s *groceryService) ownedList(ctx context.Context, actor *Actor, slug string) (*models.GroceryList, error) {
	list, err := s.GetList(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if list.AuthorID != actor.UserID && !actor.IsSuperuser() {
		return nil, ErrForbidden
	}
	return list, nil
}

func (s *groceryService) CreateList(ctx context.Context, actor *Actor, title string) (*models.GroceryList, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	list := models.GroceryList{Title: strings.TrimSpace(title), AuthorID: actor.UserID}
	if verr := validation.ValidateStruct(&list, ""); verr != nil {
		return nil, verr
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to create grocery list: %w", err)
	}
	return s.GetList(ctx, actor, list.Slug)
}

func (s *groceryService) UpdateList(ctx context.Context, actor *Actor, slug, title string) (*models.GroceryList, error) {
	list, err := s.ownedList(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	list.Title = strings.TrimSpace(title)
	if verr := validation.ValidateStruct(list, ""); verr != nil {
		return nil, verr
	}
	if err := s.db.WithContext(ctx).Model(&models.GroceryList{}).Where("id = ?", list.ID).Update("title", list.Title).Error; err != nil {
		return nil, err
	}
	return s.GetList(ctx, actor, slug)
}

func (s *groceryService) DeleteList(ctx context.Context, actor *Actor, slug string) error {
	list, err := s.ownedList(ctx, actor, slug)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.GroceryItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.GroceryShared{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.GroceryList{}, list.ID).Error
	})
}

func (s *groceryService) Share(ctx context.Context, actor *Actor, slug, username string) (*models.GroceryShared, error) {
	list, err := s.ownedList(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user "+username)
	}
	if user.ID == list.AuthorID {
		return nil, fieldError("shared_to", "A list cannot be shared with its owner.")
	}

	share := models.GroceryShared{ListID: list.ID, SharedByID: actor.UserID, SharedToID: user.ID}
	if err := db.Omit(clause.Associations).Create(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("grocery list %s already shared with %s: %w", slug, username, ErrConflict)
		}
		return nil, err
	}
	log.WithField("list_id", list.ID).WithField("shared_to", user.ID).Info("Grocery list shared")
	return &share, nil
}

func (s *groceryService) Unshare(ctx context.Context, actor *Actor, slug, username string) error {
	list, err := s.ownedList(ctx, actor, slug)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)

	users := db.Model(&models.User{}).Select("id").Where("username = ?", username)
	res := db.Where("list_id = ? AND shared_to_id IN (?)", list.ID, users).Delete(&models.GroceryShared{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("share of %s with %s: %w", slug, username, ErrNotFound)
	}
	return nil
}

// visibleItems restricts an item query to lists the actor may read
func (s *groceryService) visibleItems(db *gorm.DB, actor *Actor) *gorm.DB {
	if actor.IsSuperuser() {
		return db
	}
	lists := s.visibleLists(db.Session(&gorm.Session{NewDB: true}).Model(&models.GroceryList{}).Select("grocery_lists.id"), actor)
	return db.Where("grocery_items.list_id IN (?)", lists)
}

func (s *groceryService) Items(ctx context.Context, actor *Actor, listID *uint) ([]models.GroceryItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	query := s.visibleItems(s.db.WithContext(ctx), actor)
	if listID != nil {
		query = query.Where("grocery_items.list_id = ?", *listID)
	}

	var items []models.GroceryItem
	if err := query.Order("grocery_items.item_order, grocery_items.id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *groceryService) GetItem(ctx context.Context, actor *Actor, id uint) (*models.GroceryItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var item models.GroceryItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("grocery item %d", id))
	}
	if err := s.checkListAccess(db, actor, item.ListID); err != nil {
		return nil, err
	}
	return &item, nil
}

// checkListAccess fails with ErrForbidden unless the actor may read listID
func (s *groceryService) checkListAccess(db *gorm.DB, actor *Actor, listID uint) error {
	var count int64
	err := s.visibleLists(db.Model(&models.GroceryList{}), actor).Where("grocery_lists.id = ?", listID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrForbidden
	}
	return nil
}

func applyGroceryItem(item *models.GroceryItem, in GroceryItemInput) {
	if in.List != nil {
		item.ListID = *in.List
	}
	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Completed != nil {
		item.Completed = *in.Completed
	}
	if in.Order != nil {
		item.Order = *in.Order
	}
}

func (s *groceryService) CreateItem(ctx context.Context, actor *Actor, in GroceryItemInput) (*models.GroceryItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	if in.List == nil {
		return nil, fieldError("list", "This field is required.")
	}
	db := s.db.WithContext(ctx)
	if err := s.checkListAccess(db, actor, *in.List); err != nil {
		return nil, err
	}

	var item models.GroceryItem
	applyGroceryItem(&item, in)
	if verr := validation.ValidateStruct(&item, ""); verr != nil {
		return nil, verr
	}
	if err := db.Omit(clause.Associations).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create grocery item: %w", err)
	}
	return &item, nil
}

func (s *groceryService) updateItem(db *gorm.DB, actor *Actor, item *models.GroceryItem, in GroceryItemInput) error {
	applyGroceryItem(item, in)
	if in.List != nil {
		if err := s.checkListAccess(db, actor, item.ListID); err != nil {
			return err
		}
	}
	if verr := validation.ValidateStruct(item, ""); verr != nil {
		return verr
	}
	return db.Omit(clause.Associations).Save(item).Error
}

func (s *groceryService) UpdateItem(ctx context.Context, actor *Actor, id uint, in GroceryItemInput) (*models.GroceryItem, error) {
	item, err := s.GetItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.updateItem(s.db.WithContext(ctx), actor, item, in); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *groceryService) BulkUpdate(ctx context.Context, actor *Actor, inputs []GroceryItemInput) ([]models.GroceryItem, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}

	updated := make([]models.GroceryItem, 0, len(inputs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, in := range inputs {
			var item models.GroceryItem
			if err := tx.First(&item, in.ID).Error; err != nil {
				return notFound(err, fmt.Sprintf("grocery item %d", in.ID))
			}
			if err := s.checkListAccess(tx, actor, item.ListID); err != nil {
				return err
			}
			if err := s.updateItem(tx, actor, &item, in); err != nil {
				return prefixValidation(err, fmt.Sprintf("[%d].", i))
			}
			updated = append(updated, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *groceryService) DeleteItem(ctx context.Context, actor *Actor, id uint) error {
	item, err := s.GetItem(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.GroceryItem{}, item.ID).Error
}
