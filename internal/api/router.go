package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	assocHttp "github.com/nekogravitycat/cab-booking-backend/internal/association/http"
	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/cab-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	fleetHttp "github.com/nekogravitycat/cab-booking-backend/internal/fleet/http"
)

// RouterConfig carries the services and settings NewRouter wires together.
type RouterConfig struct {
	BookingService     booking.Service
	AssociationService association.Service
	FleetService       fleet.Service
	JWTManager         *auth.JWTManager
	Logger             *zap.Logger
	ProdOrigins        string
	RateLimiter        *RateLimiter
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: one structured line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(cfg.Logger), Recovery(cfg.Logger))

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	for _, origin := range strings.Split(cfg.ProdOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.AllowOrigins = append(config.AllowOrigins, origin)
		}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(0, 1)
	}
	rateLimit := limiter.Middleware()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.AssociationService)
	assocHandler := assocHttp.NewHandler(cfg.AssociationService)
	fleetHandler := fleetHttp.NewHandler(cfg.FleetService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		company := v1.Group("/company", authMiddleware, RequireRole(auth.RoleCompany), rateLimit)
		vendor := v1.Group("/vendor", authMiddleware, RequireRole(auth.RoleVendor), rateLimit)
		shared := v1.Group("", authMiddleware, rateLimit)

		bookingHttp.RegisterRoutes(company, vendor, shared, bookingHandler)
		assocHttp.RegisterRoutes(company, vendor, assocHandler)
		fleetHttp.RegisterRoutes(vendor, fleetHandler)
	}

	return r
}
