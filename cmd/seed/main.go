package main

import (
	"context"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"givehub/internal/database"
	"givehub/internal/domain"
	"givehub/internal/repository"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "givehub.db"
	}
	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Campaign{},
		&domain.Donation{},
		&domain.PaymentVerification{},
	); err != nil {
		log.Fatal("AutoMigrate failed: ", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM payment_verifications")
	db.Exec("DELETE FROM donations")
	db.Exec("DELETE FROM campaigns")
	db.Exec("DELETE FROM categories")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@givehub.local",
		PasswordHash: string(adminHash),
		Name:         "GiveHub Admin",
		Role:         domain.RoleAdmin,
	}
	db.Create(&admin)

	orgHash, _ := bcrypt.GenerateFromPassword([]byte("organizer123"), bcrypt.DefaultCost)
	organizer := domain.User{
		Email:        "meera@helpinghands.org",
		PasswordHash: string(orgHash),
		Name:         "Meera Joshi",
		Phone:        "+91 98200 12345",
		Role:         domain.RoleOrganizer,
	}
	db.Create(&organizer)

	donorHash, _ := bcrypt.GenerateFromPassword([]byte("donor123"), bcrypt.DefaultCost)
	donor := domain.User{
		Email:        "asha@example.com",
		PasswordHash: string(donorHash),
		Name:         "Asha Rao",
		Role:         domain.RoleDonor,
	}
	db.Create(&donor)

	log.Println("Creating categories...")
	categoryRepo := repository.NewCategoryRepository(db)
	categories := []domain.Category{
		{Name: "Education", Slug: "education"},
		{Name: "Healthcare", Slug: "healthcare"},
		{Name: "Disaster Relief", Slug: "disaster-relief"},
		{Name: "Environment", Slug: "environment"},
		{Name: "Animal Welfare", Slug: "animal-welfare"},
	}
	for i := range categories {
		if err := categoryRepo.Upsert(context.Background(), &categories[i]); err != nil {
			log.Fatal("seed category: ", err)
		}
	}

	log.Println("Creating campaigns...")
	now := time.Now()
	approvedAt := now.Add(-72 * time.Hour)
	campaigns := []domain.Campaign{
		{
			Title:       "Clean Water for Rajasthan Villages",
			Description: "Install hand pumps and water filters across 12 villages in rural Rajasthan.",
			Organizer:   organizer.Name,
			OrganizerID: organizer.ID,
			CategoryID:  categories[1].ID,
			GoalAmount:  500000,
			CoverImage:  "https://images.givehub.local/water.jpg",
			Status:      domain.CampaignApproved,
			EndDate:     now.Add(60 * 24 * time.Hour),
			ApprovedBy:  &admin.ID,
			ApprovedAt:  &approvedAt,
		},
		{
			Title:       "School Supplies for 200 Children",
			Description: "Notebooks, uniforms and textbooks for government school students in Pune.",
			Organizer:   organizer.Name,
			OrganizerID: organizer.ID,
			CategoryID:  categories[0].ID,
			GoalAmount:  150000,
			CoverImage:  "https://images.givehub.local/school.jpg",
			Status:      domain.CampaignApproved,
			EndDate:     now.Add(45 * 24 * time.Hour),
			ApprovedBy:  &admin.ID,
			ApprovedAt:  &approvedAt,
		},
		{
			Title:       "Flood Relief Kits for Assam",
			Description: "Emergency rations, tarpaulins and medicine kits for flood-hit families.",
			Organizer:   organizer.Name,
			OrganizerID: organizer.ID,
			CategoryID:  categories[2].ID,
			GoalAmount:  1000000,
			Status:      domain.CampaignPending,
			EndDate:     now.Add(30 * 24 * time.Hour),
		},
	}
	for i := range campaigns {
		db.Create(&campaigns[i])
	}

	log.Println("Seed complete.")
	log.Println("  admin@givehub.local / admin123")
	log.Println("  meera@helpinghands.org / organizer123")
	log.Println("  asha@example.com / donor123")
}
