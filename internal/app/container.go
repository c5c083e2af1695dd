package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/cab-booking-backend/internal/api"
	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	"github.com/nekogravitycat/cab-booking-backend/internal/booking"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/store/memory"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	ProdOrigins string

	// Exactly one store: MemoryStore wins when both are set.
	DBPool      *pgxpool.Pool
	MemoryStore *memory.Store

	// Optional association cache.
	RedisClient         *redis.Client
	AssociationCacheTTL time.Duration

	JWTSecret             string
	JWTTTL                time.Duration
	OpenMarketExclusivity time.Duration
	RateLimitPerMinute    int
	RateLimitBurst        int

	Logger *zap.Logger
	// Now overrides the booking clock; nil means time.Now.
	Now func() time.Time
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Store drivers
	var (
		bookingRepo booking.Repository
		assocRepo   association.Repository
		fleetRepo   fleet.Repository
	)
	if cfg.MemoryStore != nil {
		bookingRepo = cfg.MemoryStore.Bookings()
		assocRepo = cfg.MemoryStore.Associations()
		fleetRepo = cfg.MemoryStore.Fleet()
	} else {
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
		assocRepo = association.NewPgxRepository(cfg.DBPool)
		fleetRepo = fleet.NewPgxRepository(cfg.DBPool)
	}

	// Association Module
	if cfg.RedisClient != nil {
		assocRepo = association.NewCachedRepository(assocRepo, cfg.RedisClient, cfg.AssociationCacheTTL, logger.Named("association"))
	}
	assocService := association.NewService(assocRepo)

	// Fleet Module
	fleetService := fleet.NewService(fleetRepo)

	// Booking Module
	bookingService := booking.NewService(bookingRepo, assocService, logger.Named("booking"), booking.Options{
		ExclusivityWindow: cfg.OpenMarketExclusivity,
		Now:               cfg.Now,
	})

	// Router
	router := api.NewRouter(api.RouterConfig{
		BookingService:     bookingService,
		AssociationService: assocService,
		FleetService:       fleetService,
		JWTManager:         jwtManager,
		Logger:             logger.Named("http"),
		ProdOrigins:        cfg.ProdOrigins,
		RateLimiter:        api.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
	}
}
