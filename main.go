package main

import (
	"context"
	"log"

	"payments-service/config"
	"payments-service/controllers"
	"payments-service/database"
	"payments-service/logger"
	"payments-service/middleware"
	"payments-service/repository"
	"payments-service/routes"
	"payments-service/services"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[PaymentsService] Failed to load config: ", err)
	}

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("[PaymentsService] Failed to initialize logger: ", err)
	}
	defer zapLogger.Sync()

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		zapLogger.Fatal("failed to connect to record store", zap.Error(err))
	}
	defer database.Close()

	eventRepo := repository.NewMongoEventRepository(database.DB)
	promoRepo := repository.NewMongoPromoRepository(database.DB)
	txnRepo := repository.NewMongoTransactionRepository(database.DB)

	currencySvc := services.NewCurrencyService(cfg, zapLogger)
	router := services.NewProviderRouter(cfg, zapLogger)
	inventorySvc := services.NewInventoryService(eventRepo, zapLogger)
	pricingSvc := services.NewPricingService(promoRepo, zapLogger)

	stripeSvc := services.NewStripeService(cfg.StripeSecretKey)
	mobileMoney := services.NewMobileMoneyClient(services.MobileMoneyConfig{
		ClientID:  cfg.MobileMoneyClientID,
		SecretKey: cfg.MobileMoneySecret,
		BaseURL:   mobileMoneyBaseURL(cfg),
	}, zapLogger)
	bankCheckout := services.NewBankCheckoutClient(cfg.BankCheckoutEnabled, cfg.BankCheckoutBaseURL)

	var publisher services.EventPublisher
	if cfg.PaymentSNSTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			zapLogger.Warn("failed to load AWS config, settlement events disabled", zap.Error(err))
		} else {
			publisher = services.NewSNSPublisher(awsCfg, zapLogger)
		}
	}

	checkoutSvc := services.NewCheckoutService(services.CheckoutServiceDeps{
		Events:       eventRepo,
		Transactions: txnRepo,
		Router:       router,
		Inventory:    inventorySvc,
		Pricing:      pricingSvc,
		Currency:     currencySvc,
		Card:         stripeSvc,
		MobileMoney:  mobileMoney,
		BankCheckout: bankCheckout,
		Publisher:    publisher,
		TopicARN:     cfg.PaymentSNSTopicARN,
		Logger:       zapLogger,
	})

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(zapLogger))

	cc := &controllers.CheckoutController{
		Checkout: checkoutSvc,
		Logger:   zapLogger,
	}
	routes.RegisterRoutes(r, cc)

	zapLogger.Info("payments service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
}

// mobileMoneyBaseURL picks the provider host for the configured mode, with an
// explicit override taking precedence.
func mobileMoneyBaseURL(cfg *config.Config) string {
	if cfg.MobileMoneyBaseURL != "" {
		return cfg.MobileMoneyBaseURL
	}
	if cfg.MobileMoneyMode == "production" {
		return "https://moncashbutton.digicelgroup.com"
	}
	return "https://sandbox.moncashbutton.digicelgroup.com"
}
