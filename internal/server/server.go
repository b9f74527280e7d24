package server

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"taxengine-api/internal/client/addressval"
	httpclient "taxengine-api/internal/client/http"
	"taxengine-api/internal/db"
	"taxengine-api/internal/guard"
	"taxengine-api/internal/handlers"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/services"
)

// Handler Definitions
var (
	taxHandler     *handlers.TaxHandler
	addressHandler *handlers.AddressHandler
	healthHandler  *handlers.HealthHandler

	webhookDispatcher *services.WebhookDispatcher

	// Database
	dbQueries *db.Queries
)

func InitializeHandlers() {
	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	// Create a connection pool using pgxpool
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		logger.Fatal("Unable to parse database connection string", zap.Error(err))
	}

	// Configure the connection pool
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	// Create the connection pool
	connPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}

	// Create queries instance with the connection pool
	dbQueries = db.New(connPool)

	// Every outbound call (providers, webhooks) goes through the guard.
	outboundGuard := guard.NewOutboundGuard(guard.Config{
		AllowedHosts:  splitEnvList("OUTBOUND_ALLOWED_HOSTS"),
		AllowLoopback: os.Getenv("OUTBOUND_ALLOW_LOOPBACK") == "true",
	})

	cache := buildCache()

	addressService := services.NewAddressService(services.AddressNormalizerConfig{
		Providers: buildAddressProviders(outboundGuard),
	}, cache)
	jurisdictionService := services.NewJurisdictionService(dbQueries, cache)
	taxService := services.NewTaxService(dbQueries)

	webhookEndpoints := splitEnvList("WEBHOOK_ENDPOINTS")
	webhookClient := httpclient.NewHTTPClient(outboundGuard,
		httpclient.WithTimeout(15*time.Second))
	webhookDispatcher = services.NewWebhookDispatcher(webhookClient, webhookEndpoints, 3, 100)

	transactionService := services.NewTransactionService(
		dbQueries,
		addressService,
		jurisdictionService,
		taxService,
		webhookDispatcher,
		services.TransactionServiceConfig{
			MaxAmountCents: envInt64("TAX_MAX_AMOUNT_CENTS", services.DefaultMaxAmountCents),
		},
	)

	commonServices := handlers.NewCommonServices(transactionService, addressService, jurisdictionService)

	// API Handler initialization
	taxHandler = handlers.NewTaxHandler(commonServices)
	addressHandler = handlers.NewAddressHandler(commonServices)
	healthHandler = handlers.NewHealthHandler()
}

func InitializeRoutes(router *gin.Engine) {
	// Initialize logger first
	logger.InitLogger()

	// Configure and apply CORS middleware
	router.Use(configureCORS())
	router.Use(handlers.RequestID())

	// Add Swagger endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", healthHandler.Health)

	// Start the webhook dispatcher with 3 workers and a buffer size of 100.
	// Shutdown is signal-driven: cmd/api stops it via StopBackground.
	webhookDispatcher.Start()

	// if we are not in production, log the request body
	if os.Getenv("GIN_MODE") != "release" {
		router.Use(handlers.LogRequest())
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Protected routes (API key required when keys are configured)
		protected := v1.Group("/")
		if apiKeys := splitEnvList("TAX_API_KEYS"); len(apiKeys) > 0 {
			protected.Use(handlers.RequireAPIKey(apiKeys))
		}
		{
			// Tax calculation and lifecycle
			tax := protected.Group("/tax")
			{
				tax.POST("/calculate", taxHandler.CalculateTax)
				tax.POST("/commit", taxHandler.CommitTax)
				tax.GET("/:transaction_id", taxHandler.GetTransaction)
				tax.POST("/:transaction_id/void", taxHandler.VoidTax)
				tax.POST("/:transaction_id/refund", taxHandler.RefundTax)
			}

			// Address validation
			address := protected.Group("/address")
			{
				address.POST("/validate", addressHandler.ValidateAddress)
				address.POST("/resolve-jurisdictions", addressHandler.ResolveJurisdictions)
			}
		}
	}
}

// StopBackground stops background workers; used by the graceful shutdown
// path in cmd/api.
func StopBackground() {
	if webhookDispatcher != nil {
		webhookDispatcher.Stop()
	}
}

// buildCache prefers Redis when REDIS_URL is set so cached normalizations
// are shared across instances; otherwise an in-process TTL map is used.
func buildCache() services.Cache {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return services.NewMemoryCache()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("Unable to parse REDIS_URL", zap.Error(err))
	}
	logger.Info("Using Redis-backed cache")
	return services.NewRedisCache(redis.NewClient(opts))
}

// buildAddressProviders wires the configured provider chain in priority
// order. A missing secondary just shortens the chain.
func buildAddressProviders(g *guard.OutboundGuard) []addressval.Provider {
	type providerEnv struct {
		name   string
		urlVar string
		keyVar string
	}
	configured := []providerEnv{
		{"primary", "ADDRESS_VALIDATOR_PRIMARY_URL", "ADDRESS_VALIDATOR_PRIMARY_API_KEY"},
		{"secondary", "ADDRESS_VALIDATOR_SECONDARY_URL", "ADDRESS_VALIDATOR_SECONDARY_API_KEY"},
	}

	providers := make([]addressval.Provider, 0, len(configured))
	for _, p := range configured {
		baseURL := os.Getenv(p.urlVar)
		if baseURL == "" {
			continue
		}
		client := httpclient.NewHTTPClient(g,
			httpclient.WithBaseURL(baseURL),
			httpclient.WithTimeout(5*time.Second))
		providers = append(providers, addressval.NewHTTPProvider(p.name, client, os.Getenv(p.keyVar)))
	}
	if len(providers) == 0 {
		logger.Warn("No address validation providers configured; all addresses will degrade")
	}
	return providers
}

func splitEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Fatal("Invalid integer environment variable",
			zap.String("key", key), zap.Error(err))
	}
	return v
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		// Split and trim the origins
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	// Get allowed methods from environment variable
	methodsEnv := os.Getenv("CORS_ALLOWED_METHODS")
	if methodsEnv == "" {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	} else {
		methods := strings.Split(methodsEnv, ",")
		for i, method := range methods {
			methods[i] = strings.TrimSpace(method)
		}
		corsConfig.AllowMethods = methods
	}

	// Get allowed headers from environment variable
	headersEnv := os.Getenv("CORS_ALLOWED_HEADERS")
	if headersEnv == "" {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Idempotency-Key", "X-Correlation-ID"}
	} else {
		headers := strings.Split(headersEnv, ",")
		for i, header := range headers {
			headers[i] = strings.TrimSpace(header)
		}
		corsConfig.AllowHeaders = headers
	}

	// Get exposed headers from environment variable
	exposedHeadersEnv := os.Getenv("CORS_EXPOSED_HEADERS")
	if exposedHeadersEnv != "" {
		exposedHeaders := strings.Split(exposedHeadersEnv, ",")
		for i, header := range exposedHeaders {
			exposedHeaders[i] = strings.TrimSpace(header)
		}
		corsConfig.ExposeHeaders = exposedHeaders
	}

	// Set credentials allowed
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
