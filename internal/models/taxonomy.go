package models

import (
	"gorm.io/gorm"
)

// Course classifies a recipe by the part of the meal it is served in
type Course struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"size:100;uniqueIndex;not null" json:"title" validate:"required,max=100"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	AuthorID *uint  `json:"author,omitempty"`
	Author   *User  `json:"-" validate:"-"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	c.Slug, err = UniqueSlug(tx, "courses", c.Title)
	return err
}

// Cuisine classifies a recipe by its culinary tradition
type Cuisine struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"size:100;uniqueIndex;not null" json:"title" validate:"required,max=100"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	AuthorID *uint  `json:"author,omitempty"`
	Author   *User  `json:"-" validate:"-"`
}

func (c *Cuisine) BeforeCreate(tx *gorm.DB) (err error) {
	c.Slug, err = UniqueSlug(tx, "cuisines", c.Title)
	return err
}

type Season struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:100;uniqueIndex;not null" json:"title" validate:"required,max=100"`
	Slug  string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

func (s *Season) BeforeCreate(tx *gorm.DB) (err error) {
	s.Slug, err = UniqueSlug(tx, "seasons", s.Title)
	return err
}

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:100;uniqueIndex;not null" json:"title" validate:"required,max=100"`
	Slug  string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) (err error) {
	t.Slug, err = UniqueSlug(tx, "tags", t.Title)
	return err
}

// TaxonomyCount is a taxonomy row annotated with the number of matching recipes
type TaxonomyCount struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Total int64  `json:"total"`
}

func (c Course) GetID() uint  { return c.ID }
func (c Cuisine) GetID() uint { return c.ID }
func (s Season) GetID() uint  { return s.ID }
func (t Tag) GetID() uint     { return t.ID }
