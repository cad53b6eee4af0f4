package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/api"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/cache"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/appstate"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/notification"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/purchase"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/refcode"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/ssb"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/sweep"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/workflow"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/zb"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/logger"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/middleware"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.ChannelMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, stateRepo appstate.StateRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := stateRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure application state indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database & Cache
			database.NewDatabase,
			cache.NewCache,

			// Initialize Repositories
			appstate.NewStateRepository,
			appstate.NewStateCache,
			refcode.NewCodeRepository,
			notification.NewNotificationRepository,
			purchase.NewPurchaseRepository,

			// Initialize Services
			workflow.NewHub,
			workflow.NewEngine,
			appstate.NewStateService,
			refcode.NewService,
			notification.NewLoggingSender,
			notification.NewDispatcher,
			purchase.NewPurchaseService,
			ssb.NewSSBService,
			zb.NewZBService,
			sweep.NewSweepService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s refcode.Service) appstate.CodeIssuer { return s },
			func(d notification.Dispatcher) appstate.Notifier { return d },
			func(e workflow.Engine) appstate.TransitionEngine { return e },
			func(c appstate.StateCache) workflow.Cache { return c },
			func(r appstate.StateRepository) ssb.StateReader { return r },
			func(e workflow.Engine) ssb.Engine { return e },
			func(d notification.Dispatcher) ssb.Dispatcher { return d },
			func(r appstate.StateRepository) zb.StateStore { return r },
			func(e workflow.Engine) zb.Engine { return e },
			func(d notification.Dispatcher) zb.Dispatcher { return d },
			func(p purchase.PurchaseService) zb.OrderCreator { return p },
			func() zb.AutomatedCheckRunner { return zb.PassthroughCheckRunner{} },
			func(r appstate.StateRepository) sweep.SessionArchiver { return r },
			func(r refcode.CodeRepository) sweep.CodeReaper { return r },

			// Initialize Controllers
			appstate.NewStateController,
			refcode.NewCodeController,
			workflow.NewWorkflowController,
			notification.NewNotificationController,
			ssb.NewSSBController,
			zb.NewZBController,

			// Initialize API Routes
			AsRoute(appstate.NewStateApi),
			AsRoute(refcode.NewCodeApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(ssb.NewSSBApi),
			AsRoute(zb.NewZBApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			func(lc fx.Lifecycle, sweeper sweep.SweepService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweeper.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sweeper.Stop()
					},
				})
			},
		),
	)

	app.Run()
}
