package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type Reports interface {
	Orders(ctx context.Context, from, to time.Time) (*excelize.File, error)
	Statement(ctx context.Context, invoiceID int64) (*excelize.File, error)
}

// Deps is what the HTTP API serves.
type Deps struct {
	Reservations domain.ReservationService
	Invoices     domain.InvoiceService
	Orders       domain.OrderService
	Guests       domain.GuestService
	Catalog      domain.CatalogService
	Rooms        domain.RoomService
	Tasks        domain.TaskService
	Reports      Reports
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

// HTTPServer is the JSON admin API under /api/v1.
type HTTPServer struct {
	cfg     config.APIConfig
	deps    Deps
	keys    *keyring
	limiter *rateLimiter
	engine  *gin.Engine
	server  *http.Server
	log     zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{
		cfg:     cfg,
		deps:    deps,
		keys:    newKeyring(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), srv.requestLogger())
	if len(cfg.CORS.Origins) > 0 {
		r.Use(cors.New(corsConfig(cfg.CORS.Origins, cfg.Auth.HeaderAPIKey)))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", srv.ready)

	v1 := r.Group("/api/v1", srv.authMiddleware())
	srv.routes(v1)

	srv.engine = r
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes(v1 *gin.RouterGroup) {
	res := v1.Group("/reservations")
	res.POST("", s.createReservation)
	res.GET("", s.listReservations)
	res.GET("/active", s.activeReservations)
	res.GET("/:id", s.getReservation)
	res.POST("/:id/check-in", s.checkIn)
	res.POST("/:id/check-out", s.checkOut)
	res.POST("/:id/final-bill", s.finalBill)
	res.POST("/:id/cancel", s.cancelReservation)
	res.PATCH("/:id/payment-status", s.reservationPaymentStatus)

	inv := v1.Group("/invoices")
	inv.POST("", s.createInvoice)
	inv.GET("/open", s.openInvoices)
	inv.GET("/:id", s.getInvoice)
	inv.PATCH("/:id/status", s.invoiceStatus)
	inv.POST("/:id/recompute", s.recomputeInvoice)
	inv.GET("/:id/statement.xlsx", s.invoiceStatement)

	orders := v1.Group("/orders")
	orders.POST("", s.createOrder)
	orders.GET("", s.listOrders)
	orders.GET("/:id", s.getOrder)
	orders.PATCH("/:id/status", s.orderStatus)

	guests := v1.Group("/guests")
	guests.GET("", s.listGuests)
	guests.POST("", s.createGuest)
	guests.GET("/:id", s.getGuest)
	guests.PUT("/:id", s.updateGuest)

	items := v1.Group("/items")
	items.GET("", s.listItems)
	items.POST("", s.createItem)
	items.GET("/:id", s.getItem)
	items.PUT("/:id", s.updateItem)

	tasks := v1.Group("/tasks")
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.PATCH("/:id", s.updateTask)

	rooms := v1.Group("/rooms")
	rooms.GET("", s.listRooms)
	rooms.POST("", s.createRoom)
	rooms.GET("/:id", s.getRoom)
	rooms.PATCH("/:id/status", s.roomStatus)
	rooms.GET("/:id/reservations", s.roomReservations)

	products := v1.Group("/reservation-items")
	products.GET("", s.listRateProducts)
	products.POST("", s.createRateProduct)

	v1.GET("/reports/orders.xlsx", s.ordersReport)
}

func corsConfig(origins []string, apiKeyHeader string) cors.Config {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", apiKeyHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) ready(c *gin.Context) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(c.Request.Context()); err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// authMiddleware enforces API keys and the per-client rate limit. Reads need
// the read permission, everything else needs write.
func (s *HTTPServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Auth.Enabled {
			required := permWrite
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				required = permRead
			}
			client, err := s.keys.authenticate(c.GetHeader(s.keys.header), required)
			if err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					code = http.StatusForbidden
				}
				c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
				return
			}
			c.Set("client", client.Name)
		}

		if !s.limiter.allow(s.clientKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *HTTPServer) clientKey(c *gin.Context) string {
	if apiKey := c.GetHeader(s.keys.header); apiKey != "" {
		return apiKey
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return clientKeyUnknown
}

// requestLogger tags each request with an id, logs it and records metrics.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		dur := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		code := c.Writer.Status()
		metrics.ObserveHTTP(endpoint, code, dur)

		ev := s.log.Info()
		if code >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", code).
			Str("client_ip", c.ClientIP()).
			Dur("duration", dur).
			Msg("http request")
	}
}

// fail writes err as JSON with the status its kind maps to. Internal
// failures are logged and reported without detail.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("request failed")
	}
	c.JSON(code, gin.H{"error": domain.Message(err), "kind": string(domain.KindOf(err))})
}

func writeWorkbook(c *gin.Context, f *excelize.File, name string) {
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	_ = f.Write(c.Writer)
}
