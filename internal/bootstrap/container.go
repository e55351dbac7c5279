package bootstrap

import (
	"log"

	"career-counselor-be/internal/config"
	"career-counselor-be/internal/controller"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/internal/service"
	"career-counselor-be/pkg/ai/completion"
	"career-counselor-be/pkg/ai/factory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	ChatController controller.IChatController

	// Background services, run by main.go
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	consumerService := service.NewActivityConsumerService(pubSub, cfg.App.EventTopic, appLogger)

	// 3. Completion provider
	provider, err := factory.NewProvider(cfg.Ai.Mode, cfg.Ai.APIKey, cfg.Ai.BaseURL, cfg.Ai.Model)
	if err != nil {
		log.Panicf("Unable to initialize AI provider: %v", err)
	}
	adapter := completion.NewAdapter(provider, appLogger)

	// 4. Services
	authService := service.NewAuthService(uowFactory, cfg.Auth.JwtSecret, cfg.Auth.TokenTTLHours)
	chatService := service.NewChatService(uowFactory, adapter, publisherService)

	// 5. Controllers
	authController := controller.NewAuthController(authService)
	chatController := controller.NewChatController(chatService)

	return &Container{
		AuthController:  authController,
		ChatController:  chatController,
		ConsumerService: consumerService,
	}
}
