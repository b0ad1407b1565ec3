package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/focuscam/pkg/camera"
	"github.com/teslashibe/focuscam/pkg/capture"
	"github.com/teslashibe/focuscam/pkg/focus"
	"github.com/teslashibe/focuscam/pkg/hub"
)

// StatusEvent is broadcast on /ws/status.
type StatusEvent struct {
	Type  string         `json:"type"` // focus, captured, error
	Page  string         `json:"page"`
	Focus *focus.Event   `json:"focus,omitempty"`
	Photo *capture.Photo `json:"photo,omitempty"`
	Error string         `json:"error,omitempty"`
	Time  time.Time      `json:"time"`
}

// SessionRequest is the request body for opening a device.
type SessionRequest struct {
	DeviceID string `json:"device_id"`
}

// SessionStatus describes the camera session.
type SessionStatus struct {
	Backend  string `json:"backend"`
	DeviceID string `json:"device_id"`
	Active   bool   `json:"active"`
}

// CapabilitiesResponse is the viewer page's per-device report.
type CapabilitiesResponse struct {
	Device camera.RankedDevice      `json:"device"`
	Track  camera.TrackCapabilities `json:"track"`
	Photo  camera.PhotoCapabilities `json:"photo"`
}

// handleError renders errors as {"error": "..."} with a mapped status.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, capture.ErrUnknownPage):
		return fiber.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, focus.ErrCancelled), errors.Is(err, capture.ErrSuperseded):
		return fiber.StatusConflict
	case focus.IsFatal(err), errors.Is(err, camera.ErrNoDevice),
		errors.Is(err, camera.ErrTrackStopped), errors.Is(err, camera.ErrFrameUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) sessionStatus() SessionStatus {
	return SessionStatus{
		Backend:  s.opener.Name(),
		DeviceID: s.session.DeviceID(),
		Active:   s.session.Active(),
	}
}

// handleHealth reports liveness and session state
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "ok",
		"session":         s.sessionStatus(),
		"photos":          s.photos.Len(),
		"preview_clients": s.previewHub.ClientCount(),
		"status_clients":  s.statusHub.ClientCount(),
	})
}

// handlePages returns the navigation shell
func (s *Server) handlePages(c *fiber.Ctx) error {
	return c.JSON(capture.Pages())
}

// handleDevices returns video inputs, most useful first
func (s *Server) handleDevices(c *fiber.Ctx) error {
	devices, err := s.opener.Enumerate(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "enumerate devices: "+err.Error())
	}
	ranked := camera.RankDevices(devices)
	if ranked == nil {
		ranked = []camera.RankedDevice{}
	}
	return c.JSON(ranked)
}

// handleCapabilities opens a device and reports what it can do
func (s *Server) handleCapabilities(c *fiber.Ctx) error {
	id := c.Params("id")

	devices, err := s.opener.Enumerate(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "enumerate devices: "+err.Error())
	}
	var device *camera.RankedDevice
	for _, d := range camera.RankDevices(devices) {
		if d.Device.ID == id {
			device = &d
			break
		}
	}
	if device == nil {
		return fiber.NewError(fiber.StatusNotFound, "unknown device: "+id)
	}

	if s.session.DeviceID() != id || !s.session.Active() {
		if err := s.session.Open(c.UserContext(), id); err != nil {
			return err
		}
	}
	track, photo, err := s.session.Capabilities(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(CapabilitiesResponse{Device: *device, Track: track, Photo: photo})
}

// handleOpenSession starts streaming from a device
func (s *Server) handleOpenSession(c *fiber.Ctx) error {
	var req SessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
		}
	}

	if err := s.session.Open(c.UserContext(), req.DeviceID); err != nil {
		return err
	}
	return c.JSON(s.sessionStatus())
}

// handleCloseSession stops the device
func (s *Server) handleCloseSession(c *fiber.Ctx) error {
	if err := s.session.Close(); err != nil {
		return err
	}
	return c.JSON(s.sessionStatus())
}

// handleCapture runs the page's capture strategy and publishes the photo.
// ?smart=true selects content-aware placement on the square page.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	page := c.Params("page")

	strat, err := capture.NewStrategy(page, s.cameras.GetConfig(), capture.Options{
		SmartCrop: c.QueryBool("smart"),
		OnState: func(ev focus.Event) {
			s.broadcastStatus(StatusEvent{Type: "focus", Page: page, Focus: &ev})
		},
		Logger: s.logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.opts.CaptureTimeout)
	defer cancel()

	photo, err := s.session.Capture(ctx, strat)
	if err != nil {
		s.broadcastStatus(StatusEvent{Type: "error", Page: page, Error: err.Error()})
		return err
	}

	s.photos.Publish(photo)
	s.broadcastStatus(StatusEvent{Type: "captured", Page: page, Photo: photo})
	return c.Status(fiber.StatusCreated).JSON(photo)
}

func (s *Server) broadcastStatus(ev StatusEvent) {
	ev.Time = time.Now()
	if err := s.statusHub.BroadcastJSON(ev); err != nil {
		s.logger.Warn("encode status event", "error", err)
	}
}

// handleGetPhoto serves a published photo
func (s *Server) handleGetPhoto(c *fiber.Ctx) error {
	photo, ok := s.photos.Get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "photo not found")
	}
	c.Set(fiber.HeaderContentType, photo.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(photo.Data)
}

// handleReleasePhoto drops a photo; releasing twice is fine
func (s *Server) handleReleasePhoto(c *fiber.Ctx) error {
	released := s.photos.Release(c.Params("id"))
	return c.JSON(fiber.Map{"released": released})
}

// handleGetCameraConfig returns the current camera configuration
func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	return c.JSON(s.cameras.GetConfig())
}

// handleSetCameraConfig applies a partial camera configuration update
func (s *Server) handleSetCameraConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}

	if err := s.cameras.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	s.logger.Info("camera config updated", "params", params)
	return c.JSON(s.cameras.GetConfig())
}

// handleCameraPresets lists the named camera presets
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}

// handleHubWS attaches a websocket to a broadcast hub
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}
