package models

import (
	"time"

	"gorm.io/gorm"
)

type GroceryList struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Title     string        `gorm:"size:250;not null" json:"title" validate:"required,max=250"`
	Slug      string        `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	AuthorID  uint          `gorm:"index;not null" json:"author"`
	Author    *User         `json:"-" validate:"-"`
	Username  string        `gorm:"-" json:"pub_username"`
	ItemCount int64         `gorm:"-" json:"item_count"`
	Items     []GroceryItem `gorm:"foreignKey:ListID" json:"-"`
	CreatedAt time.Time     `json:"pub_date"`
}

func (l *GroceryList) BeforeCreate(tx *gorm.DB) (err error) {
	l.Slug, err = UniqueSlug(tx, "grocery_lists", l.Title)
	return err
}

func (l *GroceryList) AfterFind(tx *gorm.DB) error {
	if l.Author != nil {
		l.Username = l.Author.Username
	}
	return nil
}

type GroceryItem struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ListID    uint         `gorm:"index;not null" json:"list"`
	List      *GroceryList `json:"-" validate:"-"`
	Title     string       `gorm:"size:550;not null" json:"title" validate:"required,max=550"`
	Completed bool         `gorm:"not null" json:"completed"`
	Order     int          `gorm:"column:item_order;not null" json:"order"`
}

// GroceryShared grants another user access to a grocery list
type GroceryShared struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ListID     uint         `gorm:"uniqueIndex:idx_grocery_shared_list_user;not null" json:"list"`
	List       *GroceryList `json:"-" validate:"-"`
	SharedByID uint         `gorm:"not null" json:"shared_by"`
	SharedToID uint         `gorm:"uniqueIndex:idx_grocery_shared_list_user;not null" json:"shared_to"`
	SharedTo   *User        `json:"-" validate:"-"`
}
