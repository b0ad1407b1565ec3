// Package web serves the focuscam navigation shell: the HTTP API for
// devices, sessions, captures and photos, plus the preview and status
// websockets.
package web

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	reqlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/focuscam/pkg/camera"
	"github.com/teslashibe/focuscam/pkg/capture"
	"github.com/teslashibe/focuscam/pkg/hub"
)

// PhotoPrefix is the path photos are served under.
const PhotoPrefix = "/photos/"

// Options configures a Server.
type Options struct {
	Port           string
	StaticDir      string        // served at / when the directory exists
	CaptureTimeout time.Duration // upper bound for one capture request
	Debug          bool          // log every request
	Logger         *slog.Logger
}

// Server is the web shell server.
type Server struct {
	app    *fiber.App
	opts   Options
	logger *slog.Logger

	opener  camera.Opener
	cameras *camera.Manager
	session *capture.Session
	photos  *capture.Store

	// Hubs for websocket broadcast
	previewHub *hub.Hub
	statusHub  *hub.Hub
}

// NewServer creates the server and registers its routes.
func NewServer(opts Options, opener camera.Opener, cameras *camera.Manager, session *capture.Session) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = 15 * time.Second
	}

	s := &Server{
		opts:       opts,
		logger:     logger.With("component", "web"),
		opener:     opener,
		cameras:    cameras,
		session:    session,
		photos:     capture.NewStore(PhotoPrefix),
		previewHub: hub.New("preview", true, logger),
		statusHub:  hub.New("status", false, logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "focuscam",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())
	if opts.Debug {
		app.Use(reqlog.New())
	}

	app.Get("/health", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/pages", s.handlePages)
	api.Get("/devices", s.handleDevices)
	api.Get("/devices/:id/capabilities", s.handleCapabilities)
	api.Post("/session", s.handleOpenSession)
	api.Delete("/session", s.handleCloseSession)
	api.Post("/capture/:page", s.handleCapture)
	api.Get("/camera/config", s.handleGetCameraConfig)
	api.Post("/camera/config", s.handleSetCameraConfig)
	api.Get("/camera/presets", s.handleCameraPresets)

	app.Get(PhotoPrefix+":id", s.handleGetPhoto)
	app.Delete(PhotoPrefix+":id", s.handleReleasePhoto)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/preview", websocket.New(s.handleHubWS(s.previewHub)))
	app.Get("/ws/status", websocket.New(s.handleHubWS(s.statusHub)))

	if opts.StaticDir != "" {
		if st, err := os.Stat(opts.StaticDir); err == nil && st.IsDir() {
			app.Static("/", opts.StaticDir)
		}
	}

	s.app = app
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// PreviewHub returns the hub preview frames are broadcast on.
func (s *Server) PreviewHub() *hub.Hub {
	return s.previewHub
}

// StatusHub returns the hub capture status events are broadcast on.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// Photos returns the photo store.
func (s *Server) Photos() *capture.Store {
	return s.photos
}

// Run starts the hubs and serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	go s.previewHub.Run(ctx)
	go s.statusHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "url", "http://localhost:"+s.opts.Port)
		errc <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("web server shutting down")
		s.photos.ReleaseAll()
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}
