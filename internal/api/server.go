package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/agora/internal/engagement"
	"github.com/agora/internal/realtime"
	"github.com/agora/internal/store"
)

const serviceVersion = "1.0.0"

// Server represents the API server
type Server struct {
	echo    *echo.Echo
	port    int
	store   store.Store
	engine  *engagement.Engine
	gateway *realtime.Gateway
}

// NewServer creates a new API server over the given engagement store. The
// realtime registry, gateway, dispatcher and conviction engine are wired
// here.
func NewServer(port int, s store.Store, sendTimeout time.Duration) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	gateway := realtime.NewGateway(realtime.NewRegistry(), sendTimeout)
	dispatcher := engagement.NewDispatcher(s, gateway)
	engine := engagement.NewEngine(s, dispatcher)

	server := &Server{
		echo:    e,
		port:    port,
		store:   s,
		engine:  engine,
		gateway: gateway,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "agora",
			"version": serviceVersion,
		})
	})

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	v1.POST("/users", s.createUser)
	v1.GET("/users/:id", s.getUser)
	v1.GET("/users/:id/notifications", s.listNotifications)

	v1.GET("/feed", s.getFeed)
	v1.GET("/trending", s.getTrending)

	v1.POST("/posts", s.createPost)
	v1.POST("/posts/:id/like", s.toggleLike)
	v1.POST("/posts/:id/conviction", s.addConviction)
	v1.POST("/posts/:id/comments", s.createComment)
	v1.GET("/posts/:id/comments", s.listComments)

	// Live connection endpoint
	s.echo.GET("/ws/:user_id", s.gateway.Handle)
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Echo exposes the router, used by tests to serve requests directly.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
