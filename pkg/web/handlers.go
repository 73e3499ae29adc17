package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/lumenrobotics/go-aria/pkg/hub"
)

// newEventID returns a unique identifier for a feed event.
func newEventID() string {
	return uuid.NewString()
}

// handleStatus returns the current session state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetEvents returns recent activity feed entries.
func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleGetConversation returns the recent conversation feed.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleMetrics returns the session metrics report.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	if s.OnMetrics == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "metrics not available",
		})
	}
	return c.JSON(fiber.Map{"report": s.OnMetrics()})
}

// QueryRequest is the request body for injecting a typed query.
type QueryRequest struct {
	Text string `json:"text"`
}

// handleQuery injects a typed query into the live session.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if s.OnQuery == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no active session",
		})
	}

	if err := s.OnQuery(text); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"accepted": true})
}

// handleEventsWS streams the activity feed to a dashboard client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	// Send recent events before switching to live broadcast.
	s.eventsMu.RLock()
	for _, entry := range s.events {
		c.WriteJSON(entry)
	}
	s.eventsMu.RUnlock()

	hub.NewClient(s.eventHub, c).Run()
}

// handleStatusWS streams session state updates to a dashboard client.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()
	c.WriteJSON(state)

	hub.NewClient(s.statusHub, c).Run()
}
