package models

import (
	"time"

	"gorm.io/gorm"
)

// Recipe is the aggregate root for a dish: its scalar fields, ingredient
// groups, sub-recipe edges and taxonomy links.
type Recipe struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Title          string  `gorm:"size:250;not null;index" json:"title" validate:"required,max=250"`
	Slug           string  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Photo          string  `gorm:"size:255;index" json:"-"`
	PhotoThumbnail string  `gorm:"size:255" json:"-"`
	PhotoURL       string  `gorm:"-" json:"photo"`
	ThumbnailURL   string  `gorm:"-" json:"photo_thumbnail"`
	Info           string  `gorm:"type:text" json:"info"`
	Directions     string  `gorm:"type:text" json:"directions"`
	Source         string  `gorm:"size:200" json:"source" validate:"max=200"`
	PrepTime       *int    `json:"prep_time" validate:"omitempty,gte=0"`
	CookTime       *int    `json:"cook_time" validate:"omitempty,gte=0"`
	Servings       int     `gorm:"not null" json:"servings" validate:"gte=0"`
	Public         bool    `gorm:"not null;index" json:"public"`
	Rating         float64 `gorm:"not null;default:0" json:"rating"`
	RatingCount    int     `gorm:"not null;default:0" json:"rating_count"`

	AuthorID       *uint  `gorm:"index" json:"author"`
	Author         *User  `json:"-" validate:"-"`
	Username       string `gorm:"-" json:"username"`
	UpdateAuthorID *uint  `json:"update_author"`
	UpdateAuthor   *User  `json:"-" validate:"-"`

	CourseID  *uint    `gorm:"index" json:"-"`
	Course    *Course  `json:"course" validate:"-"`
	CuisineID *uint    `gorm:"index" json:"-"`
	Cuisine   *Cuisine `json:"cuisine" validate:"-"`
	Tags      []Tag    `gorm:"many2many:recipe_tags;" json:"tags"`
	Seasons   []Season `gorm:"many2many:recipe_seasons;" json:"seasons"`

	IngredientGroups []IngredientGroup `gorm:"foreignKey:RecipeID" json:"ingredient_groups"`
	SubRecipes       []SubRecipe       `gorm:"foreignKey:ParentRecipeID" json:"subrecipes"`

	CreatedAt time.Time `json:"pub_date"`
	UpdatedAt time.Time `json:"update_date"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) (err error) {
	r.Slug, err = UniqueSlug(tx, "recipes", r.Title)
	return err
}

func (r *Recipe) AfterFind(tx *gorm.DB) error {
	if r.Author != nil {
		r.Username = r.Author.Username
	}
	return nil
}

// IsOwnedBy reports whether userID authored the recipe
func (r *Recipe) IsOwnedBy(userID uint) bool {
	return r.AuthorID != nil && *r.AuthorID == userID
}

// IngredientGroup is a titled section of a recipe's ingredient list.
// Groups are recreated on every save, so their ids are not stable.
type IngredientGroup struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RecipeID    uint         `gorm:"index;not null" json:"-"`
	Title       string       `gorm:"size:150" json:"title" validate:"max=150"`
	Ingredients []Ingredient `gorm:"foreignKey:IngredientGroupID" json:"ingredients"`
}

type Ingredient struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	IngredientGroupID uint    `gorm:"index;not null" json:"-"`
	Title             string  `gorm:"size:250;not null" json:"title" validate:"required,max=250"`
	Numerator         float64 `json:"numerator" validate:"gte=0"`
	Denominator       float64 `json:"denominator" validate:"gt=0"`
	Measurement       string  `gorm:"size:200" json:"measurement" validate:"max=200"`
}

// SubRecipe links a parent recipe to a child recipe used as a scaled ingredient
type SubRecipe struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	ParentRecipeID uint    `gorm:"index;not null" json:"-"`
	ChildRecipeID  *uint   `gorm:"index" json:"child_recipe_id" validate:"required"`
	ChildRecipe    *Recipe `gorm:"foreignKey:ChildRecipeID" json:"-" validate:"-"`
	Numerator      float64 `json:"numerator" validate:"gte=0"`
	Denominator    float64 `json:"denominator" validate:"gt=0"`
	Measurement    string  `gorm:"size:200" json:"measurement" validate:"max=200"`
	Title          string  `gorm:"-" json:"title"`
	Slug           string  `gorm:"-" json:"slug"`
}

func (s *SubRecipe) AfterFind(tx *gorm.DB) error {
	if s.ChildRecipe != nil {
		s.Title = s.ChildRecipe.Title
		s.Slug = s.ChildRecipe.Slug
	}
	return nil
}
