package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	role := flag.String("role", models.RoleAdmin, "Owner role (user, staff or admin)")
	flag.Parse()

	if !models.IsStaffRole(*role) && *role != models.RoleUser {
		log.Fatalf("Unknown role %q", *role)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx := context.Background()
	db, err := database.InitDatabase(ctx, database.FromAppConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Determine client credentials based on role
	clientID := fmt.Sprintf("dev-%s-client", *role)
	clientSecret := fmt.Sprintf("dev-%s-secret-123", *role)

	// Check if client already exists
	var existing models.OAuthClient
	err = db.Where("id = ?", clientID).First(&existing).Error
	if err == nil {
		fmt.Printf("Development client already exists for role '%s'!\n", *role)
		printCredentials(clientID, clientSecret, existing.UserID)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to look up client:", err)
	}

	// Get or create the owner the client's tokens act for
	owner, err := services.NewUserService(db).EnsureUser(ctx,
		fmt.Sprintf("dev-%s", *role), fmt.Sprintf("dev-%s@example.com", *role), clientSecret, *role)
	if err != nil {
		log.Fatal("Failed to get owner for role:", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash secret:", err)
	}

	client := models.OAuthClient{
		ID:         clientID,
		Secret:     string(hash),
		Name:       fmt.Sprintf("Development %s Client", *role),
		Domain:     "http://localhost",
		UserID:     owner.ID,
		Scopes:     "read,write",
		GrantTypes: "client_credentials",
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("Development OAuth client created for role '%s'!\n", *role)
	printCredentials(clientID, clientSecret, owner.ID)
}

func printCredentials(clientID, clientSecret string, userID uint) {
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Printf("Client Secret: %s\n", clientSecret)
	fmt.Printf("User ID: %d\n", userID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:8080/oauth/token \\\n")
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", clientID)
	fmt.Printf("  -d 'client_secret=%s'\n", clientSecret)
}
