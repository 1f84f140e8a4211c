package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RouteRegistrar is implemented by module handlers that mount their routes on the server
type RouteRegistrar interface {
	RegisterRoutes(router fiber.Router)
}

type Server struct {
	app             *fiber.App
	shutdownTimeout time.Duration
}

var log = logger.GetLogger() // Instancia logger para el pakg

func NewServer(shutdownTimeout time.Duration, registrars ...RouteRegistrar) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Middleware de logging
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return err
	})

	// Endpoint de health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	for _, r := range registrars {
		r.RegisterRoutes(app)
	}

	return &Server{app: app, shutdownTimeout: shutdownTimeout}
}

// App returns the fiber app, for routes that need more than a RouteRegistrar (websocket)
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled, then shuts down within the shutdown timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	ready := make(chan struct{})
	s.app.Hooks().OnListen(func(fiber.ListenData) error {
		close(ready)
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	// shutting down before the listener exists would leave Listen running
	select {
	case err := <-errCh:
		return err
	case <-ready:
		log.Info("HTTP server started", zap.String("addr", addr))
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"code": "http_error", "error": err.Error()})
}
