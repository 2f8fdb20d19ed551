package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-recipe-api/internal/metrics"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	photoPrefix     = "upload/recipe_photos/"
	thumbnailPrefix = "upload/recipe_photos/thumbnails/"
)

// PhotoService stores recipe photos and cleans up files no recipe uses
type PhotoService interface {
	// SetPhoto replaces a recipe's photo with the uploaded image
	SetPhoto(ctx context.Context, slug string, actor *Actor, upload io.Reader) (*models.Recipe, error)
	// Release deletes a photo and its thumbnail unless a recipe still
	// references the photo key
	Release(ctx context.Context, photo, thumbnail string)
	// FillURLs sets the public photo addresses on loaded recipes
	FillURLs(recipes ...*models.Recipe)
}

type photoService struct {
	db            *gorm.DB
	store         storage.Store
	quality       string
	deleteOrphans bool
}

func NewPhotoService(db *gorm.DB, store storage.Store, quality string, deleteOrphans bool) PhotoService {
	return &photoService{db: db, store: store, quality: quality, deleteOrphans: deleteOrphans}
}

func (s *photoService) SetPhoto(ctx context.Context, slug string, actor *Actor, upload io.Reader) (*models.Recipe, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Where("slug = ?", slug).First(&recipe).Error; err != nil {
		return nil, notFound(err, "recipe "+slug)
	}
	if !actor.CanEdit(recipe.AuthorID) {
		return nil, ErrForbidden
	}

	img, err := storage.ProcessPhoto(upload, s.quality)
	if err != nil {
		metrics.PhotoUploads.WithLabelValues("invalid").Inc()
		return nil, fieldError("photo", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	name := uuid.New().String() + ".jpg"
	photoKey, thumbKey := photoPrefix+name, thumbnailPrefix+name
	if err := s.store.Save(ctx, photoKey, bytes.NewReader(img.Photo), "image/jpeg"); err != nil {
		metrics.PhotoUploads.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := s.store.Save(ctx, thumbKey, bytes.NewReader(img.Thumbnail), "image/jpeg"); err != nil {
		metrics.PhotoUploads.WithLabelValues("error").Inc()
		_ = s.store.Delete(ctx, photoKey)
		return nil, err
	}

	oldPhoto, oldThumb := recipe.Photo, recipe.PhotoThumbnail
	err = db.Model(&recipe).Updates(map[string]interface{}{
		"photo":           photoKey,
		"photo_thumbnail": thumbKey,
	}).Error
	if err != nil {
		_ = s.store.Delete(ctx, photoKey)
		_ = s.store.Delete(ctx, thumbKey)
		return nil, fmt.Errorf("failed to update recipe photo: %w", err)
	}
	metrics.PhotoUploads.WithLabelValues("success").Inc()

	if oldPhoto != "" && oldPhoto != photoKey {
		s.Release(ctx, oldPhoto, oldThumb)
	}

	var loaded models.Recipe
	if err := preloadRecipe(db).First(&loaded, recipe.ID).Error; err != nil {
		return nil, err
	}
	s.FillURLs(&loaded)
	return &loaded, nil
}

func (s *photoService) Release(ctx context.Context, photo, thumbnail string) {
	if photo == "" || !s.deleteOrphans {
		return
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("photo = ?", photo).Count(&refs).Error; err != nil {
		log.WithError(err).WithField("photo", photo).Error("Failed to count photo references")
		return
	}
	if refs > 0 {
		log.WithField("photo", photo).WithField("references", refs).Debug("Photo still in use, keeping file")
		return
	}

	if err := s.store.Delete(ctx, photo); err != nil {
		log.WithError(err).WithField("photo", photo).Error("Failed to delete photo")
		return
	}
	if thumbnail != "" {
		if err := s.store.Delete(ctx, thumbnail); err != nil {
			log.WithError(err).WithField("thumbnail", thumbnail).Warn("Failed to delete thumbnail")
		}
	}
}

func (s *photoService) FillURLs(recipes ...*models.Recipe) {
	for _, r := range recipes {
		if r.Photo != "" {
			r.PhotoURL = s.store.URL(r.Photo)
		}
		if r.PhotoThumbnail != "" {
			r.ThumbnailURL = s.store.URL(r.PhotoThumbnail)
		}
	}
}
