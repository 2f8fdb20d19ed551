package services

import (
	"context"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/metrics"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingInput is the writable part of a rating
type RatingInput struct {
	Recipe  string  `json:"recipe"`
	Comment *string `json:"comment"`
	Rating  *int    `json:"rating"`
}

func (in RatingInput) comment() string {
	if in.Comment == nil {
		return ""
	}
	return *in.Comment
}

func (in RatingInput) score() int {
	if in.Rating == nil {
		return 0
	}
	return models.ClampRating(*in.Rating)
}

// RatingQuery narrows a rating listing
type RatingQuery struct {
	Recipe string
	Author string
}

type RatingService interface {
	List(ctx context.Context, q RatingQuery) ([]models.Rating, error)
	Get(ctx context.Context, id uint) (*models.Rating, error)
	Create(ctx context.Context, actor *Actor, in RatingInput) (*models.Rating, error)
	Update(ctx context.Context, actor *Actor, id uint, in RatingInput, partial bool) (*models.Rating, error)
	Delete(ctx context.Context, actor *Actor, id uint) error
	// Recompute refreshes the denormalized rating fields of one recipe
	Recompute(ctx context.Context, recipeID uint) error
	// RecomputeAll refreshes every recipe and returns how many were visited
	RecomputeAll(ctx context.Context) (int, error)
	// Counts buckets the recipes matching filter by floor(rating), 5 down to 0
	Counts(ctx context.Context, filter RecipeFilter) ([]models.RatingBucket, error)
}

type ratingService struct {
	db *gorm.DB
}

func NewRatingService(db *gorm.DB) RatingService {
	return &ratingService{db: db}
}

// recomputeRating writes floor(avg*10)/10 and the rating count to the
// recipe. The average is taken over integer scores so the floor is exact.
func recomputeRating(db *gorm.DB, recipeID uint) error {
	var agg struct {
		Total int64
		Count int64
	}
	err := db.Model(&models.Rating{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("recipe_id = ?", recipeID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings of recipe %d: %w", recipeID, err)
	}

	var rating float64
	if agg.Count > 0 {
		rating = float64(agg.Total*10/agg.Count) / 10
	}

	err = db.Model(&models.Recipe{}).Where("id = ?", recipeID).
		UpdateColumns(map[string]interface{}{"rating": rating, "rating_count": agg.Count}).Error
	if err != nil {
		return fmt.Errorf("failed to update rating of recipe %d: %w", recipeID, err)
	}
	metrics.RatingRecomputes.Inc()
	return nil
}

func (s *ratingService) Recompute(ctx context.Context, recipeID uint) error {
	return recomputeRating(s.db.WithContext(ctx), recipeID)
}

func (s *ratingService) RecomputeAll(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	visited := 0
	var batch []models.Recipe
	result := db.Select("id").FindInBatches(&batch, 100, func(tx *gorm.DB, _ int) error {
		for _, r := range batch {
			if err := recomputeRating(db, r.ID); err != nil {
				return err
			}
			visited++
		}
		return nil
	})
	if result.Error != nil {
		return visited, result.Error
	}

	log.WithField("recipes", visited).Info("Recomputed recipe ratings")
	return visited, nil
}

func (s *ratingService) List(ctx context.Context, q RatingQuery) ([]models.Rating, error) {
	query := s.db.WithContext(ctx).Preload("Recipe").Preload("Author").Order("ratings.id")
	if q.Recipe != "" {
		query = query.Where("ratings.recipe_id IN (?)",
			s.db.WithContext(ctx).Model(&models.Recipe{}).Select("id").Where("slug = ?", q.Recipe))
	}
	if q.Author != "" {
		query = query.Where("ratings.author_id IN (?)",
			s.db.WithContext(ctx).Model(&models.User{}).Select("id").Where("username = ?", q.Author))
	}

	var ratings []models.Rating
	if err := query.Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

func (s *ratingService) Get(ctx context.Context, id uint) (*models.Rating, error) {
	var rating models.Rating
	err := s.db.WithContext(ctx).Preload("Recipe").Preload("Author").First(&rating, id).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("rating %d", id))
	}
	return &rating, nil
}

func (s *ratingService) Create(ctx context.Context, actor *Actor, in RatingInput) (*models.Rating, error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	if in.Recipe == "" {
		return nil, fieldError("recipe", "This field is required.")
	}

	db := s.db.WithContext(ctx)
	var recipe models.Recipe
	if err := db.Select("id").Where("slug = ?", in.Recipe).First(&recipe).Error; err != nil {
		return nil, notFound(err, "recipe "+in.Recipe)
	}

	rating := models.Rating{
		RecipeID: recipe.ID,
		Comment:  in.comment(),
		Rating:   in.score(),
		AuthorID: actor.idPtr(),
	}
	if verr := validation.ValidateStruct(&rating, ""); verr != nil {
		return nil, verr
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&rating).Error; err != nil {
			return err
		}
		return recomputeRating(tx, recipe.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, rating.ID)
}

func (s *ratingService) Update(ctx context.Context, actor *Actor, id uint, in RatingInput, partial bool) (*models.Rating, error) {
	db := s.db.WithContext(ctx)
	var rating models.Rating
	if err := db.First(&rating, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("rating %d", id))
	}
	if !actor.CanEdit(rating.AuthorID) {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{"update_author_id": actor.idPtr()}
	if !partial || in.Comment != nil {
		updates["comment"] = in.comment()
	}
	if !partial || in.Rating != nil {
		updates["rating"] = in.score()
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&rating).Updates(updates).Error; err != nil {
			return err
		}
		return recomputeRating(tx, rating.RecipeID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ratingService) Delete(ctx context.Context, actor *Actor, id uint) error {
	db := s.db.WithContext(ctx)
	var rating models.Rating
	if err := db.First(&rating, id).Error; err != nil {
		return notFound(err, fmt.Sprintf("rating %d", id))
	}
	if !actor.CanEdit(rating.AuthorID) {
		return ErrForbidden
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&rating).Error; err != nil {
			return err
		}
		return recomputeRating(tx, rating.RecipeID)
	})
}

func (s *ratingService) Counts(ctx context.Context, filter RecipeFilter) ([]models.RatingBucket, error) {
	db := s.db.WithContext(ctx)

	buckets := make([]models.RatingBucket, 0, models.MaxRating-models.MinRating+1)
	for k := models.MaxRating; k >= models.MinRating; k-- {
		var total int64
		err := filter.Apply(db.Model(&models.Recipe{})).
			Where("recipes.rating >= ? AND recipes.rating < ?", k, k+1).
			Count(&total).Error
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, models.RatingBucket{Rating: k, Total: total})
	}
	return buckets, nil
}
