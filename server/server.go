// Package server exposes loan application sessions over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/patch"
	"github.com/tbxark/loanagent/types"
)

type Server struct {
	flow   *agent.Flow
	logger *slog.Logger
}

func New(flow *agent.Flow, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{flow: flow, logger: logger}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	engine := gin.New()
	engine.Use(requestID(), s.logging(), s.recovery())

	sessions := engine.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id", s.withSession, s.getSession)
	sessions.DELETE("/:id", s.withSession, s.deleteSession)
	sessions.POST("/:id/turns", s.withSession, s.postTurn)
	sessions.POST("/:id/repeatables/:field", s.withSession, s.postRepeatable)
	sessions.GET("/:id/transcript", s.withSession, s.getTranscript)
	return engine
}

// Addr normalizes a listen address or bare port.
func Addr(listen string) string {
	if listen == "" {
		return ":8080"
	}
	if strings.Contains(listen, ":") {
		return listen
	}
	return fmt.Sprintf(":%s", listen)
}

type createSessionRequest struct {
	Prefill map[string]string `json:"prefill"`
}

type textRequest struct {
	Text string `json:"text"`
}

// withSession routes the request context to the session named in the path.
func (s *Server) withSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		s.respondError(c, http.StatusNotFound, "session_not_found", fmt.Sprintf("session %q not found", id))
		return
	}
	c.Request = c.Request.WithContext(agent.WithStateKey(c.Request.Context(), id))
	c.Next()
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	// an empty body, chunked or not, starts a session without prefill
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	id := uuid.NewString()
	ctx := agent.WithStateKey(c.Request.Context(), id)

	var prefill *types.Record
	if len(req.Prefill) > 0 {
		prefill = patch.FromStrings(s.flow.Catalog().FieldNames(), req.Prefill)
	}
	resp, err := s.flow.Start(ctx, prefill)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) postTurn(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	resp, err := s.flow.Invoke(c.Request.Context(), &agent.Request{UserInput: req.Text})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) postRepeatable(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	resp, err := s.flow.AppendRepeatable(c.Request.Context(), c.Param("field"), req.Text)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getSession(c *gin.Context) {
	snap, err := s.flow.Snapshot(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getTranscript(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.flow.Snapshot(ctx); err != nil {
		s.respondErr(c, err)
		return
	}
	out := agent.Transcript{Session: c.Param("id")}
	if store := s.flow.Transcripts(); store != nil {
		msgs, err := store.Load(ctx)
		if err != nil {
			s.respondErr(c, err)
			return
		}
		out.Messages = msgs
	}
	if out.Messages == nil {
		out.Messages = []*schema.Message{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.flow.Reset(c.Request.Context()); err != nil {
		s.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
