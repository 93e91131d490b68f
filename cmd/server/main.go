package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/tijara/internal/config"
	"github.com/example/tijara/internal/database"
	"github.com/example/tijara/internal/handlers"
	"github.com/example/tijara/internal/routes"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	utils.SetStoredCurrency(cfg.StoredCurrency)
	utils.SetDefaultCurrency(cfg.DefaultCurrency)

	storage := buildStorage(cfg)
	mailer := buildMailer(cfg)
	sms := buildSMS(cfg)

	mailQueue, err := services.NewMailQueue(cfg.RabbitMQURL, cfg.MailQueue, mailer)
	if err != nil {
		log.Printf("[Main] mail queue unavailable, sending directly: %v", err)
		mailQueue, _ = services.NewMailQueue("", cfg.MailQueue, mailer)
	} else if cfg.RabbitMQURL != "" {
		go func() {
			if err := mailQueue.Consume(); err != nil {
				log.Printf("[Main] mail consumer stopped: %v", err)
			}
		}()
	}

	otp := services.NewOTPService(db, sms, cfg.OTPThrottle, cfg.OTPExpiry, cfg.OTPMaxAttempts)
	invoices := services.NewPDFInvoiceRenderer("Tijara", cfg.StoredCurrency)
	orders := services.NewOrderService(db, storage, mailQueue, cfg.CODMaxTotal)
	payments := services.NewPaymentService(db, mailer, mailQueue, invoices, storage,
		cfg.JWTSecret, cfg.BaseURL, cfg.PaymentEditTTL)

	app := fiber.New(fiber.Config{
		AppName:      "Tijara Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Static("/uploads", cfg.UploadDir)

	routes.Register(app, routes.Deps{
		DB:       db,
		Config:   cfg,
		OTP:      otp,
		Orders:   orders,
		Payments: payments,
		Storage:  storage,
	})

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// buildStorage prefers the CDN when one is configured and falls back to local
// disk on upload failures.
func buildStorage(cfg *config.Config) services.Storage {
	local := services.NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
	if cfg.CDNUploadURL == "" {
		return local
	}
	cdn := services.NewCDNStorage(cfg.CDNUploadURL, cfg.CDNAPIKey)
	return services.NewFallbackStorage(cdn, local)
}

func buildMailer(cfg *config.Config) services.Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Println("[Main] SENDGRID_API_KEY not set, mail goes to the log")
		return services.LogMailer{}
	}
	return services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
}

func buildSMS(cfg *config.Config) services.SMSSender {
	if cfg.SMSAPIURL == "" {
		log.Println("[Main] SMS_API_URL not set, verification codes go to the log")
		return services.LogSMSSender{}
	}
	return services.NewHTTPSMSSender(cfg.SMSAPIURL, cfg.SMSAPIToken, cfg.SMSSender)
}
