package database

import (
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name:     "sqlite file gets pragmas",
			config:   DatabaseConfig{Driver: "sqlite", Path: "recipes.sqlite"},
			expected: "recipes.sqlite?_foreign_keys=on&_busy_timeout=5000",
		},
		{
			name:     "sqlite path with query is kept",
			config:   DatabaseConfig{Driver: "sqlite", Path: "file:test.db?cache=shared"},
			expected: "file:test.db?cache=shared",
		},
		{
			name: "postgres fields",
			config: DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "chef",
				Password: "secret", Name: "recipes", SSLMode: "disable"},
			expected: "host=db user=chef password=secret dbname=recipes port=5432 sslmode=disable",
		},
		{
			name:     "postgres url wins",
			config:   DatabaseConfig{Driver: "postgresql", URL: "postgres://chef:secret@db/recipes", Host: "ignored"},
			expected: "postgres://chef:secret@db/recipes",
		},
		{
			name:     "unknown driver",
			config:   DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.config.DSN())
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5433", DBName: "recipes",
		DBUser: "chef", DBPassword: "secret", DBSSLMode: "require", DatabaseURL: "postgres://x", DBPath: "unused"}

	dbc := FromAppConfig(cfg)

	assert.Equal(t, "postgres", dbc.Driver)
	assert.Equal(t, "5433", dbc.Port)
	assert.Equal(t, "postgres://x", dbc.URL)
	assert.NotContains(t, dbc.String(), "secret")
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(db))
	// running twice is harmless
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "recipes", "ingredient_groups", "ingredients", "sub_recipes",
		"courses", "cuisines", "seasons", "tags", "recipe_tags", "recipe_seasons", "ratings",
		"menu_items", "grocery_lists", "grocery_items", "oauth_clients"} {
		assert.Truef(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.Migrator().HasTable(&models.RevokedToken{}))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
