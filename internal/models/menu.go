package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem schedules a recipe, or an external dish, on a user's menu plan
type MenuItem struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AuthorID     uint       `gorm:"index;not null" json:"author"`
	RecipeID     *uint      `gorm:"index" json:"recipe"`
	Recipe       *Recipe    `json:"-" validate:"-"`
	RecipeTitle  string     `gorm:"-" json:"recipe_title"`
	RecipeSlug   string     `gorm:"-" json:"recipe_slug"`
	StartDate    time.Time  `gorm:"not null;index" json:"start_date"`
	Complete     bool       `gorm:"not null" json:"complete"`
	CompleteDate *time.Time `json:"complete_date"`
	ExtTitle     string     `gorm:"size:250" json:"ext_title" validate:"max=250"`
	ExtSource    string     `gorm:"size:200" json:"ext_source" validate:"max=200"`
}

func (m *MenuItem) AfterFind(tx *gorm.DB) error {
	if m.Recipe != nil {
		m.RecipeTitle = m.Recipe.Title
		m.RecipeSlug = m.Recipe.Slug
	}
	return nil
}

// MenuStat summarises how often a recipe was cooked from the menu plan
type MenuStat struct {
	RecipeID     uint      `json:"recipe"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	NumMenuItems int64     `json:"num_menuitems"`
	LastMade     time.Time `json:"last_made"`
}
