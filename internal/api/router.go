package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DevMandate/LinknaMali-sub000/internal/api/handlers"
	"github.com/DevMandate/LinknaMali-sub000/internal/api/middleware"
	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/cache"
	"github.com/DevMandate/LinknaMali-sub000/internal/config"
	"github.com/DevMandate/LinknaMali-sub000/internal/payment"
	"github.com/DevMandate/LinknaMali-sub000/internal/search"
	"github.com/DevMandate/LinknaMali-sub000/internal/tasks"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// Services bundles the service layer wired by SetupRouter so main can reach
// them for shutdown.
type Services struct {
	Search  search.ISearchService
	Wizard  booking.IWizardService
	Payment payment.IService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient tasks.IClient) (*gin.Engine, *Services) {
	// Initialize services needed by API handlers HERE
	client := upstream.NewClient(cfg)

	wizardStore := cache.NewStore(rdb, "wizard", cfg.WizardSessionTTL)
	paymentStore := cache.NewStore(rdb, "payment", cfg.PaymentSessionTTL)
	blockedStore := cache.NewStore(rdb, "blocked_dates", cfg.BlockedDatesCacheTTL)

	searchService := search.NewService(client, cfg.SearchSessionTTL)
	ledger := payment.NewLedger(db)
	paymentService := payment.NewService(cfg, payment.NewGateway(cfg), paymentStore, ledger)
	wizardService := booking.NewWizardService(client, wizardStore, blockedStore, paymentService, taskClient)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, wizardService)
	bookingHandler := handlers.NewBookingHandler(wizardService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, wizardService)
	adminHandler := handlers.NewAdminHandler(taskClient)

	v1 := r.Group("/v1")
	{
		// Public Routes (Rate limiting already applied globally)
		v1.GET("/search", searchHandler.Search)
		v1.GET("/search/results", searchHandler.CurrentResults)
		v1.GET("/properties/:id/blocked-dates", searchHandler.BlockedDates)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated Routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/bookings/wizard", bookingHandler.Start)
			authRequired.GET("/bookings/wizard/:id", bookingHandler.Get)
			authRequired.PUT("/bookings/wizard/:id/details", bookingHandler.ApplyDetails)
			authRequired.PUT("/bookings/wizard/:id/payment", bookingHandler.SelectPayment)
			authRequired.POST("/bookings/wizard/:id/advance", bookingHandler.Advance)
			authRequired.POST("/bookings/wizard/:id/back", bookingHandler.Back)
			authRequired.POST("/bookings/wizard/:id/submit", bookingHandler.Submit)
			authRequired.DELETE("/bookings/wizard/:id", bookingHandler.Cancel)

			authRequired.POST("/payments/mpesa", paymentHandler.Initiate)
			authRequired.GET("/payments/mpesa/:id", paymentHandler.Status)
			authRequired.DELETE("/payments/mpesa/:id", paymentHandler.Cancel)

			admin := authRequired.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("/payments/reconcile", adminHandler.ReconcilePayments)
			}
		}
	}

	return r, &Services{
		Search:  searchService,
		Wizard:  wizardService,
		Payment: paymentService,
	}
}

// SetupServiceRouter configures and returns the service Gin engine.
func SetupServiceRouter(cfg *config.Config, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
