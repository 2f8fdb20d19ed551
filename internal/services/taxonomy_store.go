package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
)

// getOrCreate finds a taxonomy row by title and inserts it when missing.
// A concurrent insert of the same title surfaces as a duplicate key, in
// which case the winner's row is fetched instead.
func getOrCreate[T Taxon](tx *gorm.DB, kind taxonomyKind[T], title string, author *uint) (*T, error) {
	var row T
	err := tx.Where("title = ?", title).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := kind.build(title, author)
	if verr := validation.ValidateStruct(created, ""); verr != nil {
		return nil, verr
	}
	if err := tx.Create(created).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		var existing T
		if ferr := tx.Where("title = ?", title).First(&existing).Error; ferr != nil {
			return nil, fmt.Errorf("re-fetch %s %q after conflict: %w", kind.table, title, ferr)
		}
		return &existing, nil
	}
	return created, nil
}

// resolveRef resolves a course or cuisine reference: a non-zero id is looked
// up and must exist, otherwise a title is fetched or created with author as
// owner, and anything else clears the reference. Falsy ids (0, "", null)
// count as absent.
func resolveRef[T Taxon](tx *gorm.DB, kind taxonomyKind[T], field string, ref interface{}, author *uint) (*uint, error) {
	m, ok := ref.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	rawID := m["id"]
	id, ok := validation.ToInt(rawID)
	if !ok && !validation.IsBlank(rawID) {
		return nil, fieldError(field, validation.MsgNumber)
	}
	if ok && id != 0 {
		var row T
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return nil, notFound(err, fmt.Sprintf("%s %d", field, id))
		}
		rowID := row.GetID()
		return &rowID, nil
	}

	if title := strings.TrimSpace(stringValue(m["title"])); title != "" {
		row, err := getOrCreate(tx, kind, title, author)
		if err != nil {
			return nil, prefixValidation(err, field+".")
		}
		rowID := (*row).GetID()
		return &rowID, nil
	}

	return nil, nil
}

// replaceTaxonomyLinks clears a recipe's links in the kind's join table and
// re-adds one link per distinct title, creating rows as needed.
func replaceTaxonomyLinks[T Taxon](tx *gorm.DB, kind taxonomyKind[T], field string, recipeID uint, entries []interface{}) error {
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE recipe_id = ?", kind.refTable), recipeID).Error; err != nil {
		return err
	}

	seen := map[uint]bool{}
	for i, entry := range entries {
		var title string
		switch e := entry.(type) {
		case map[string]interface{}:
			title = stringValue(e["title"])
		case string:
			title = e
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		row, err := getOrCreate(tx, kind, title, nil)
		if err != nil {
			return prefixValidation(err, fmt.Sprintf("%s[%d].", field, i))
		}
		id := (*row).GetID()
		if seen[id] {
			continue
		}
		seen[id] = true

		insert := fmt.Sprintf("INSERT INTO %s (recipe_id, %s) VALUES (?, ?)", kind.refTable, kind.refColumn)
		if err := tx.Exec(insert, recipeID, id).Error; err != nil {
			return err
		}
	}
	return nil
}

// pruneOrphanTaxonomies deletes courses and cuisines no recipe references,
// keeping rows owned by staff users.
func pruneOrphanTaxonomies(tx *gorm.DB) error {
	for _, kind := range []struct{ table, column string }{
		{courseKind.table, courseKind.refColumn},
		{cuisineKind.table, cuisineKind.refColumn},
	} {
		used := tx.Table("recipes").Select(kind.column).Where(kind.column + " IS NOT NULL")
		staff := tx.Table("users").Select("id").Where("role IN ?", models.StaffRoles)
		res := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id NOT IN (?) AND (author_id IS NULL OR author_id NOT IN (?))", kind.table), used, staff)
		if res.Error != nil {
			return fmt.Errorf("failed to prune %s: %w", kind.table, res.Error)
		}
		if res.RowsAffected > 0 {
			log.WithField("table", kind.table).WithField("deleted", res.RowsAffected).Debug("Pruned orphan taxonomy rows")
		}
	}
	return nil
}

// prefixValidation nests validation error fields under prefix
func prefixValidation(err error, prefix string) error {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	nested := models.NewValidationError()
	for field, messages := range verr.Fields {
		nested.Add(prefix+field, messages...)
	}
	return nested
}
