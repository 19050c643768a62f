package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"givehub/internal/config"
	"givehub/internal/database"
	"givehub/internal/domain"
	"givehub/internal/gateway"
	"givehub/internal/middleware"
	"givehub/internal/modules/auth"
	"givehub/internal/modules/campaign"
	"givehub/internal/modules/certificate"
	"givehub/internal/modules/donation"
	jwtsvc "givehub/internal/pkg/jwt"
	"givehub/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Campaign{},
		&domain.Donation{},
		&domain.PaymentVerification{},
	); err != nil {
		log.Fatal("migrate: ", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	verificationRepo := repository.NewPaymentVerificationRepository(db)
	uow := repository.NewUnitOfWork(db, log.Printf)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	gw, err := gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if err != nil {
		log.Fatal("razorpay: ", err)
	}

	store, err := certificate.NewDiskStore(cfg.CertificateDir)
	if err != nil {
		log.Fatal(err)
	}
	var mailer certificate.Mailer = certificate.DevConsoleMailer{}
	if cfg.SMTPHost != "" {
		mailer = certificate.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	campaignService := campaign.NewService(campaignRepo, categoryRepo)
	campaignHandler := campaign.NewHandler(campaignService)

	certService := certificate.NewService(donationRepo, campaignRepo, store, mailer, log.Printf)

	settlement := donation.NewSettlement(uow, donationRepo, campaignRepo, verificationRepo, log.Printf)
	donationService := donation.NewService(
		donationRepo,
		campaignRepo,
		verificationRepo,
		settlement,
		gw,
		certService,
		cfg.RazorpayKeySecret,
		cfg.RazorpayWebhookSecret,
		log.Printf,
	)
	donationHandler := donation.NewHandler(donationService, log.Printf)

	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Razorpay-Signature"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/certificates", cfg.CertificateDir)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		campaignHandler.RegisterPublicRoutes(v1)
		donationHandler.RegisterWebhookRoute(v1)

		// donations work for guests too; identity is attached when present
		optional := v1.Group("/")
		optional.Use(middleware.OptionalAuth(j))
		{
			donationHandler.RegisterRoutes(optional)
		}

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			campaignHandler.RegisterProtectedRoutes(protected)
		}
	}

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
