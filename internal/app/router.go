package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	JourneyHandler *handler.JourneyHandler
	DriverHandler  *handler.DriverHandler
	Tokens         middleware.TokenValidator
	Idempotency    middleware.IdempotencyStore
	AllowedOrigins []string
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins...))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	riderOnly := middleware.RequireRole(domain.RoleRider)
	driverOnly := middleware.RequireRole(domain.RoleDriver)
	party := middleware.RequireRole(domain.RoleRider, domain.RoleDriver)

	v1 := router.Group("/v1")
	{
		// Public auth routes.
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", deps.UserHandler.Register)
			authRoutes.POST("/login", deps.UserHandler.Login)
		}

		// Everything below needs a bearer token. Idempotency keys are scoped
		// to the authenticated actor, so the middleware runs after auth.
		secured := v1.Group("")
		secured.Use(middleware.AuthMiddleware(deps.Tokens))
		secured.Use(middleware.IdempotencyMiddleware(deps.Idempotency))

		secured.GET("/users/me", deps.UserHandler.Me)

		// Journey routes.
		journeys := secured.Group("/journeys")
		{
			journeys.POST("", riderOnly, deps.JourneyHandler.CreateJourney)
			journeys.GET("/estimate", deps.JourneyHandler.EstimateFare)
			journeys.GET("/rider", riderOnly, deps.JourneyHandler.ListRiderJourneys)
			journeys.GET("/driver", driverOnly, deps.JourneyHandler.ListDriverJourneys)
			journeys.GET("/:id", deps.JourneyHandler.GetJourney)
			journeys.POST("/:id/accept", driverOnly, deps.JourneyHandler.AcceptJourney)
			journeys.POST("/:id/status", driverOnly, deps.JourneyHandler.UpdateStatus)
			journeys.POST("/:id/complete", driverOnly, deps.JourneyHandler.CompleteJourney)
			journeys.POST("/:id/cancel", party, deps.JourneyHandler.CancelJourney)
			journeys.GET("/:id/payment-qr", riderOnly, deps.JourneyHandler.PaymentQR)
			journeys.POST("/:id/confirm-payment", riderOnly, deps.JourneyHandler.ConfirmPayment)
			journeys.POST("/:id/rate", riderOnly, deps.JourneyHandler.RateJourney)
			journeys.GET("/:id/receipt", deps.JourneyHandler.Receipt)
		}

		// Driver routes.
		drivers := secured.Group("/drivers", driverOnly)
		{
			drivers.POST("/profile", deps.DriverHandler.CreateProfile)
			drivers.GET("/profile", deps.DriverHandler.GetProfile)
			drivers.PATCH("/profile", deps.DriverHandler.UpdateProfile)
			drivers.GET("/profile/completion", deps.DriverHandler.GetCompletion)
			drivers.POST("/status", deps.DriverHandler.UpdateStatus)
			drivers.POST("/location", deps.DriverHandler.UpdateLocation)
		}

		// Admin routes.
		admin := secured.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/drivers/:id/verify", deps.DriverHandler.VerifyDriver)
		}
	}

	return router
}
