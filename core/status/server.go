package status

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"spoolsync/core/engine"
	"spoolsync/core/updater"
)

// Config holds configuration for the status server.
type Config struct {
	// Port is the listen port. Empty disables the server.
	Port string `mapstructure:"port" default:""`
}

// Server exposes the daemon's health and last sync summary over HTTP.
// It is read-only and plays no part in reconciliation.
type Server struct {
	cfg  Config
	app  *fiber.App
	loop *updater.Loop
	log  *zap.Logger
}

// statusResponse is the /status payload.
type statusResponse struct {
	State   string              `json:"state"`
	Summary *engine.SyncSummary `json:"summary,omitempty"`
}

// New creates a status server reporting on the given loop.
func New(cfg Config, loop *updater.Loop, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{cfg: cfg, app: app, loop: loop, log: log}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(statusResponse{
			State:   loop.State().String(),
			Summary: loop.LastSummary(),
		})
	})

	return s
}

// Enabled reports whether a listen port is configured.
func (s *Server) Enabled() bool { return s.cfg.Port != "" }

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	s.log.Info("Starting status server", zap.String("port", s.cfg.Port))
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
