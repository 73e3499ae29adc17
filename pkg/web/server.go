// Package web provides a real-time dashboard for the assistant: live
// conversation feed, classifier decisions, session state, and metrics.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/lumenrobotics/go-aria/internal/log"
	"github.com/lumenrobotics/go-aria/pkg/hub"
)

// SessionState is the current assistant state shown on the dashboard.
type SessionState struct {
	VoiceConnected bool   `json:"voice_connected"`
	Speaking       bool   `json:"speaking"`
	ChatID         string `json:"chat_id"`
	TotalQueries   int    `json:"total_queries"`
	DelegatedTurns int    `json:"delegated_turns"`
	LastUserText   string `json:"last_user_text"`
	LastResponse   string `json:"last_response"`
}

// ConversationEntry is one message in the conversation feed.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"`    // user, assistant, tool
	Channel string `json:"channel"` // direct, isolated, "" for user/tool entries
	Message string `json:"message"`
}

// Event is one item in the activity feed: classifier decisions, tool
// calls, turn completions, errors.
type Event struct {
	ID      string         `json:"id"`
	Time    string         `json:"time"`
	Type    string         `json:"type"` // classification, tool, turn, error
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

const (
	maxEvents       = 500
	maxConversation = 100
)

// Server is the web dashboard server.
type Server struct {
	app  *fiber.App
	port string

	// State
	state   SessionState
	stateMu sync.RWMutex

	// Event buffer (last maxEvents entries)
	events   []Event
	eventsMu sync.RWMutex

	// Conversation buffer
	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	eventHub  *hub.Hub

	// OnQuery, when set, injects a typed query into the live session.
	OnQuery func(text string) error

	// OnMetrics, when set, returns the session metrics report text.
	OnMetrics func() string
}

// NewServer creates a new web dashboard server.
func NewServer(port string) *Server {
	s := &Server{
		port:         port,
		events:       make([]Event, 0, maxEvents),
		conversation: make([]ConversationEntry, 0, maxConversation),
		statusHub:    hub.New("status"),
		eventHub:     hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Aria Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleGetEvents)
	api.Get("/conversation", s.handleGetConversation)
	api.Get("/metrics", s.handleMetrics)
	api.Post("/query", s.handleQuery)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start starts the web server.
func (s *Server) Start() error {
	log.Info("web dashboard listening", "addr", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.eventHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// UpdateState updates the session state and broadcasts to clients.
func (s *Server) UpdateState(update func(*SessionState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddEvent adds an activity feed entry and broadcasts it to clients.
func (s *Server) AddEvent(eventType, message string, detail map[string]any) {
	entry := Event{
		ID:      newEventID(),
		Time:    time.Now().Format("15:04:05"),
		Type:    eventType,
		Message: message,
		Detail:  detail,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, entry)
	if len(s.events) > maxEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	s.eventHub.BroadcastJSON(entry)
}

// AddConversation adds a conversation feed entry and broadcasts it.
func (s *Server) AddConversation(role, channel, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Channel: channel,
		Message: message,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > maxConversation {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()

	s.eventHub.BroadcastJSON(fiber.Map{"conversation": entry})
}

// StatusHub returns the status hub for external use.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// EventHub returns the event hub for external use.
func (s *Server) EventHub() *hub.Hub {
	return s.eventHub
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
