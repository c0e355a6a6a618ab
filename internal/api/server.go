// Package api exposes the management HTTP API: parse and check commands,
// inspect and edit the allowlist.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShellGate/shellgate/internal/allowlist"
	"github.com/ShellGate/shellgate/internal/gate"
	"github.com/ShellGate/shellgate/internal/logger"
	"github.com/ShellGate/shellgate/internal/shell"
)

var log = logger.New("api")

// Server is the management API server.
type Server struct {
	gate   *gate.Gate
	store  *allowlist.Store
	engine *gin.Engine
	http   *http.Server
}

// NewServer wires the routes. token authenticates every /v1 request.
func NewServer(g *gate.Gate, store *allowlist.Store, token string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(SecurityHeadersMiddleware())
	engine.Use(BodySizeLimitMiddleware(MaxBodySize))

	s := &Server{gate: g, store: store, engine: engine}

	engine.GET("/healthz", s.handleHealth)

	v1 := engine.Group("/v1", AuthMiddleware(token))
	v1.POST("/parse", s.handleParse)
	v1.POST("/check", s.handleCheck)
	v1.GET("/allowlist", s.handleAllowlistGet)
	v1.POST("/allowlist", s.handleAllowlistAdd)
	v1.DELETE("/allowlist", s.handleAllowlistRemove)

	return s
}

// Handler exposes the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the given port until the context is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("management API listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	Success(c, gin.H{"status": "ok"})
}

// commandRequest is the body of /v1/parse and /v1/check.
type commandRequest struct {
	Command string `json:"command" binding:"required"`
	// Dialect overrides the gate's configured dialect for this request.
	Dialect string `json:"dialect"`
}

// resolveDialect picks the request dialect or falls back to the gate's.
func (s *Server) resolveDialect(c *gin.Context, req *commandRequest) (shell.Dialect, bool) {
	if req.Dialect == "" {
		return s.gate.Dialect(), true
	}
	d, err := shell.ParseDialect(req.Dialect)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return shell.DialectUnknown, false
	}
	return d, true
}

func (s *Server) handleParse(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "command is required")
		return
	}

	d, ok := s.resolveDialect(c, &req)
	if !ok {
		return
	}

	parsed, err := shell.Parse(req.Command, d)
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	Success(c, parsed)
}

func (s *Server) handleCheck(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "command is required")
		return
	}

	d, ok := s.resolveDialect(c, &req)
	if !ok {
		return
	}

	dec, err := s.gate.Evaluate(req.Command, d)
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	Success(c, dec)
}

func (s *Server) handleAllowlistGet(c *gin.Context) {
	Success(c, gin.H{"entries": s.store.Entries()})
}

// entryRequest is the body of POST and DELETE /v1/allowlist.
type entryRequest struct {
	Prefix  []string `json:"prefix" binding:"required"`
	Dialect string   `json:"dialect"`
	Comment string   `json:"comment"`
}

func (s *Server) handleAllowlistAdd(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "prefix is required")
		return
	}

	entry := allowlist.Entry{Prefix: req.Prefix, Dialect: req.Dialect, Comment: req.Comment}
	if err := s.store.Add(entry); err != nil {
		Error(c, http.StatusConflict, err.Error())
		return
	}
	if err := s.store.Save(); err != nil {
		log.Error("failed to persist allowlist: %v", err)
		Error(c, http.StatusInternalServerError, "failed to persist allowlist")
		return
	}
	log.Info("allowlist entry added: %v", req.Prefix)
	Success(c, entry)
}

func (s *Server) handleAllowlistRemove(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "prefix is required")
		return
	}

	if !s.store.Remove(req.Prefix, req.Dialect) {
		Error(c, http.StatusNotFound, "no such allowlist entry")
		return
	}
	if err := s.store.Save(); err != nil {
		log.Error("failed to persist allowlist: %v", err)
		Error(c, http.StatusInternalServerError, "failed to persist allowlist")
		return
	}
	log.Info("allowlist entry removed: %v", req.Prefix)
	Success(c, gin.H{"removed": true})
}
