package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating scores bounds
const (
	MinRating = 0
	MaxRating = 5
)

// Rating is a user's score and comment on a recipe
type Rating struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RecipeID       uint      `gorm:"index;not null" json:"-"`
	Recipe         *Recipe   `json:"-" validate:"-"`
	RecipeSlug     string    `gorm:"-" json:"recipe"`
	Comment        string    `gorm:"type:text" json:"comment"`
	Rating         int       `gorm:"not null" json:"rating" validate:"gte=0,lte=5"`
	AuthorID       *uint     `gorm:"index" json:"user_id"`
	Author         *User     `json:"-" validate:"-"`
	Username       string    `gorm:"-" json:"username"`
	UpdateAuthorID *uint     `json:"-"`
	CreatedAt      time.Time `json:"pub_date"`
	UpdatedAt      time.Time `json:"update_date"`
}

func (r *Rating) AfterFind(tx *gorm.DB) error {
	if r.Recipe != nil {
		r.RecipeSlug = r.Recipe.Slug
	}
	if r.Author != nil {
		r.Username = r.Author.Username
	}
	return nil
}

// ClampRating bounds a submitted score to the allowed range
func ClampRating(score int) int {
	if score < MinRating {
		return MinRating
	}
	if score > MaxRating {
		return MaxRating
	}
	return score
}

// RatingBucket is the number of recipes whose rating floors to Rating
type RatingBucket struct {
	Rating int   `json:"rating"`
	Total  int64 `json:"total"`
}
