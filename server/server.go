// Package server exposes the agent runner over HTTP with gin.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relabs-ai/relay/agent"
	"github.com/relabs-ai/relay/guardrail"
	"github.com/relabs-ai/relay/logging"
	"github.com/relabs-ai/relay/internal/util"
	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/runner"
	"github.com/relabs-ai/relay/session"
)

// Banner identifies the service on GET /.
const Banner = "relay agentic framework"

// Options configure the server.
type Options struct {
	// DefaultAgent is the agent /agent/respond runs.
	DefaultAgent string
	// Sessions enables server-side conversation history. When set, respond
	// requests may carry a session_id and the session routes are mounted.
	Sessions session.Store
	Logger   logging.Logger
}

// Server binds HTTP routes to the runner and registry.
type Server struct {
	runner   *runner.Runner
	registry *agent.Registry
	opts     Options
}

// New creates a Server. Call Router to obtain the gin engine.
func New(r *runner.Runner, registry *agent.Registry, optFns ...func(o *Options)) *Server {
	opts := Options{
		DefaultAgent: agent.NameMeta,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{runner: r, registry: registry, opts: opts}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.root)
	r.GET("/healthz", s.healthz)
	r.GET("/agents", s.listAgents)
	r.POST("/agents/:name/refresh", s.refreshAgent)
	r.POST("/agent/respond", s.respond)

	if s.opts.Sessions != nil {
		r.GET("/sessions", s.listSessions)
		r.GET("/sessions/:id", s.getSession)
		r.DELETE("/sessions/:id", s.deleteSession)
	}

	return r
}

type messageItem struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type respondRequest struct {
	// Agent optionally overrides the default agent.
	Agent string `json:"agent"`
	// SessionID continues a stored conversation. Ignored when the server
	// has no session store.
	SessionID string        `json:"session_id"`
	Messages  []messageItem `json:"messages" binding:"required,min=1"`
}

type respondResponse struct {
	FinalOutput string          `json:"final_output"`
	AllMessages []model.Message `json:"all_messages"`
	AgentName   string          `json:"agent_name"`
	SessionID   string          `json:"session_id,omitempty"`
}

// POST /agent/respond
func (s *Server) respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "bad payload"})
		return
	}

	name := req.Agent
	if name == "" {
		name = s.opts.DefaultAgent
	}

	messages := make([]model.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, model.Message{Role: m.Role, Content: m.Content})
	}

	var sessionID string
	var history []model.Message
	if s.opts.Sessions != nil {
		sessionID = req.SessionID
		if sessionID == "" {
			sessionID = util.NewPrefixedID("sess")
		} else {
			sess, err := s.opts.Sessions.Get(sessionID)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
				return
			}
			if sess != nil {
				history = sess.Messages
			}
		}
		messages = append(history, messages...)
	}

	result, err := s.runner.Run(c.Request.Context(), name, messages)
	if err != nil {
		var trip *guardrail.TripError
		switch {
		case errors.As(err, &trip):
			c.JSON(http.StatusBadRequest, gin.H{"detail": trip.Reason})
		case errors.Is(err, agent.ErrNotRegistered):
			c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
		default:
			s.opts.Logger.Error("agent run failed", "agent", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		}
		return
	}

	if s.opts.Sessions != nil {
		// Persist only the turns this request added on top of the stored
		// transcript.
		delta := result.Messages
		if len(history) <= len(delta) {
			delta = delta[len(history):]
		}
		if _, err := s.opts.Sessions.Append(sessionID, result.AgentName, delta...); err != nil {
			s.opts.Logger.Error("session append failed", "session_id", sessionID, "error", err)
		}
	}

	c.JSON(http.StatusOK, respondResponse{
		FinalOutput: result.FinalOutput,
		AllMessages: result.Messages,
		AgentName:   result.AgentName,
		SessionID:   sessionID,
	})
}

// GET /sessions
func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.opts.Sessions.IDs()})
}

// GET /sessions/:id
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.opts.Sessions.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DELETE /sessions/:id
func (s *Server) deleteSession(c *gin.Context) {
	if err := s.opts.Sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// GET /
func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": Banner})
}

// GET /healthz
func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /agents
func (s *Server) listAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.registry.Names()})
}

// POST /agents/:name/refresh
func (s *Server) refreshAgent(c *gin.Context) {
	name := c.Param("name")

	d, err := s.registry.Resolve(c.Request.Context(), name, agent.WithRefresh())
	if err != nil {
		if errors.Is(err, agent.ErrNotRegistered) {
			c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent": d.Name, "model": d.Model})
}
