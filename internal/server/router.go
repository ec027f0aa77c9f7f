package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hermes-app/hermes/internal/metrics"
	"github.com/hermes-app/hermes/internal/osinfo"
	"github.com/hermes-app/hermes/internal/sidecar"
)

// Source is what the diagnostics endpoints report on.
type Source interface {
	SidecarStatus() sidecar.Status
	SidecarUsage(ctx context.Context) (sidecar.Usage, error)
	OSInfo() osinfo.Info
	PluginNames() []string
	StoreKeys(ctx context.Context, store string) ([]string, error)
}

// Router provides the local diagnostics endpoints.
// Endpoints:
//
//	GET {basePath}/healthz
//	GET {basePath}/sidecar
//	GET {basePath}/sidecar/usage      409 when the sidecar is not running
//	GET {basePath}/os
//	GET {basePath}/plugins
//	GET {basePath}/store/:name/keys   key names only, never values
//	GET {basePath}/metrics            Prometheus exposition
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	src      Source
	basePath string
}

func NewRouter(src Source, basePath string) *Router {
	return &Router{src: src, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/healthz", r.handleHealth)
	group.GET("/sidecar", r.handleSidecar)
	group.GET("/sidecar/usage", r.handleSidecarUsage)
	group.GET("/os", r.handleOS)
	group.GET("/plugins", r.handlePlugins)
	group.GET("/store/:name/keys", r.handleStoreKeys)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer binds addr and serves the diagnostics router in the background.
// The returned server's Addr is the bound address; call Shutdown or Close
// to stop it.
func NewServer(addr, basePath string, src Source) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	r := NewRouter(src, basePath)
	server := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.Serve(ln) }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type healthResp struct {
	OK      bool `json:"ok"`
	Sidecar bool `json:"sidecar"`
}

func (r *Router) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, healthResp{OK: true, Sidecar: r.src.SidecarStatus().Running})
}

func (r *Router) handleSidecar(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.src.SidecarStatus())
}

func (r *Router) handleSidecarUsage(c *gin.Context) {
	u, err := r.src.SidecarUsage(c.Request.Context())
	if errors.Is(err, sidecar.ErrNotRunning) {
		writeJSON(c, http.StatusConflict, errorResp{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, u)
}

func (r *Router) handleOS(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.src.OSInfo())
}

func (r *Router) handlePlugins(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.src.PluginNames())
}

func (r *Router) handleStoreKeys(c *gin.Context) {
	name := c.Param("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid store name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	keys, err := r.src.StoreKeys(c.Request.Context(), name)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(c, http.StatusOK, keys)
}
