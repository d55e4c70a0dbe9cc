package db

import (
	"log"

	"kitchen-collab/internal/presence"
	"kitchen-collab/internal/project"
	"kitchen-collab/internal/user"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&user.User{},
		&project.Project{},
		&project.Section{},
		&project.UploadedImage{},
		&project.Proposal{},
		&presence.Record{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	// Create a gicho user if it doesn't exist
	userRepo := user.NewRepository(AppDb)

	testUser := &user.User{
		Name:     "Test Gicho",
		Email:    "gicho@example.com",
		Password: "password123",
		Role:     user.RoleGicho,
		IsActive: true,
	}

	// Check if user exists
	_, err := userRepo.FindByEmail(testUser.Email)
	if err != nil {
		userService := user.NewService(userRepo)
		// User doesn't exist, create it
		if err := userService.Register(testUser); err != nil {
			log.Printf("Error creating test user: %v", err)
		} else {
			log.Printf("Created test user: %s", testUser.Email)
		}
	} else {
		log.Printf("Test user already exists: %s", testUser.Email)
	}
}
