package main

import (
	"log"
	"os"
	"os/signal"
	"studysync/config"
	"studysync/database"
	"studysync/middleware"
	"studysync/routers"
	"studysync/services/cart"
	"studysync/services/catalog"
	"studysync/services/certificate"
	"studysync/services/comment"
	"studysync/services/media"
	"studysync/services/notification"
	"studysync/services/payment"
	"studysync/services/progress"
	"studysync/services/review"
	"studysync/utils"
	"syscall"

	"github.com/redis/go-redis/v9"
)

const appName = "Study Sync"

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	utils.InitErrorReporting(cfg.RollbarToken, cfg.Env, cfg.CodeVersion)
	defer utils.CloseErrorReporting()

	database.ConnectDb()
	db := database.Database.Db

	// Media storage
	var store media.Store
	switch cfg.MediaDriver {
	case "cloudinary":
		store = media.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	default:
		store = media.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
	}
	releaser := media.NewReleaser(db, store)

	// Email delivery
	var notifier notification.Notifier = notification.LogNotifier{}
	if cfg.EmailDriver == "sendgrid" {
		notifier = notification.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailSenderName)
	}
	dispatcher := notification.NewDispatcher(db, notifier)
	templates := notification.Templates{AppName: appName, BaseURL: cfg.FrontendURL}

	// Rate limiting is optional
	var limiter *middleware.RateLimiter
	if cfg.RedisAddr != "" {
		limiter = middleware.NewRateLimiter(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Printf("Rate limiting enabled via Redis at %s", cfg.RedisAddr)
	}

	issuer := certificate.NewIssuer(db, dispatcher, templates)
	payments := payment.NewService(db, payment.NewRazorpayGateway(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret), dispatcher, payment.Options{
		KeyID:                  cfg.RazorpayKeyID,
		KeySecret:              cfg.RazorpayKeySecret,
		Currency:               cfg.Currency,
		InstructorSharePercent: cfg.InstructorSharePercent,
		Templates:              templates,
	})

	scheduler := utils.InitializeScheduler(dispatcher, releaser)

	app := routers.New(routers.Deps{
		DB:           db,
		Payments:     payments,
		Tracker:      progress.NewTracker(db, issuer),
		Certificates: issuer,
		Catalog:      catalog.NewService(db, store, releaser),
		Reviews:      review.NewService(db, dispatcher, templates),
		Comments:     comment.NewService(db),
		Cart:         cart.NewService(db),
		Limiter:      limiter,
		AppName:      appName,
		AllowOrigins: cfg.AllowOrigins,
		StaticDir:    "./public",
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		<-scheduler.Stop().Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
