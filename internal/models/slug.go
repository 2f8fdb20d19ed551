package models

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const maxSlugBase = 90

// UniqueSlug derives a lower-cased, hyphenated slug from source and appends
// the first free numeric suffix when the slug is already taken in table.
func UniqueSlug(tx *gorm.DB, table, source string) (string, error) {
	base := slug.Make(source)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "item"
	}

	db := tx.Session(&gorm.Session{NewDB: true})
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := db.Table(table).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
