package web

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fssonca/ezy-collect-challenge/internal/core"
)

// PaymentCreator executes the idempotent creation protocol.
// Implementations: core.PaymentService
type PaymentCreator interface {
	CreatePayment(ctx context.Context, idempotencyKey string, req core.CreatePaymentRequest) (*core.Result, error)
}

// HealthChecker reports whether the backing store is reachable.
// Implementations: storage.Store
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the payments HTTP server
type Server struct {
	payments PaymentCreator
	health   HealthChecker
	router   *gin.Engine
}

// ServerConfig holds HTTP-surface settings
type ServerConfig struct {
	// AllowedOrigin restricts CORS to a single frontend origin. Empty means
	// allow any origin (local development).
	AllowedOrigin string
}

// NewServer creates the payments web server
func NewServer(payments PaymentCreator, health HealthChecker, cfg ServerConfig) *Server {
	router := gin.Default()

	origins := []string{"*"}
	if cfg.AllowedOrigin != "" {
		origins = []string{cfg.AllowedOrigin}
	} else {
		log.Println("Warning: no allowed origin configured, CORS is permissive")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	s := &Server{
		payments: payments,
		health:   health,
		router:   router,
	}

	router.POST("/payments", s.handleCreatePayment)
	router.GET("/api/health", s.handleHealth)

	return s
}

// Run starts the web server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
