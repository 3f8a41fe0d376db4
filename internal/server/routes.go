package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = errorHandler(h.Logger)

	// Optional API key authentication; health and metrics stay open
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health" || c.Path() == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// chain state moves every few seconds; never let a proxy hold it
	v1 := e.Group("/v1", noStore)
	v1.GET("/health", h.Health)

	// Every other endpoint reaches the node, so it is rate limited per client
	q := v1.Group("")
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		q.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit),
			Burst:     burst,
			ExpiresIn: 2 * time.Minute,
		})))
	}

	q.GET("/status", h.Status)
	q.GET("/blocks/latest", h.LatestBlock)
	q.GET("/blocks/:number", h.Block)
	q.GET("/transactions/:txid", h.Transaction)
	q.GET("/contracts/:name", h.Contract)

	q.GET("/tokens", h.Tokens)
	q.GET("/tokens/:symbol", h.Token)
	q.GET("/tokens/:symbol/market", h.TokenMarket)
	q.GET("/tokens/:symbol/buybook", h.BuyBook)
	q.GET("/tokens/:symbol/sellbook", h.SellBook)

	q.GET("/wallets/:account", h.Wallet)
	q.GET("/history/:account/:symbol", h.History)

	q.GET("/nfts", h.Nfts)
	q.GET("/nfts/:symbol", h.Nft)
	q.GET("/nfts/:symbol/instances/:id", h.NftInstance)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

func noStore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		return next(c)
	}
}
