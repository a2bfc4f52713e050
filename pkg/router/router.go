package router

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/niels/pageserve/pkg/config"
	"github.com/niels/pageserve/pkg/mediatype"
	"github.com/niels/pageserve/pkg/resolver"
	"github.com/rs/zerolog"
)

// Fixed paths handled by the router
const (
	PathRoot       = "/"
	PathHome       = "/home"
	PathController = "/controller"
)

// Routes holds the configured targets of the fixed paths
type Routes struct {
	// HomeLocation is the redirect target for GET /
	HomeLocation string
	// HomePage is the file served for GET /home
	HomePage string
	// ControllerPage is the file served for GET /controller
	ControllerPage string
}

// RoutesFromConfig extracts the routing targets from the application configuration
func RoutesFromConfig(cfg *config.Config) Routes {
	return Routes{
		HomeLocation:   cfg.Location.Home,
		HomePage:       cfg.Pages.Home,
		ControllerPage: cfg.Pages.Controller,
	}
}

// rule pairs a request predicate with the action answering it.
// Rules are evaluated in order; the first match wins.
type rule struct {
	name   string
	match  func(method, path string) bool
	handle http.HandlerFunc
}

// Router dispatches each request to exactly one response
type Router struct {
	resolver resolver.Resolver
	types    *mediatype.Table
	logger   zerolog.Logger
	rules    []rule
}

// New creates a router serving files through res
func New(res resolver.Resolver, types *mediatype.Table, routes Routes, logger zerolog.Logger) *Router {
	rt := &Router{
		resolver: res,
		types:    types,
		logger:   logger,
	}

	rt.rules = []rule{
		{
			name:   "redirect-home",
			match:  getPath(PathRoot),
			handle: rt.redirect(routes.HomeLocation),
		},
		{
			name:   "home",
			match:  getPath(PathHome),
			handle: rt.serveAlias(routes.HomePage),
		},
		{
			name:   "controller",
			match:  getPath(PathController),
			handle: rt.serveAlias(routes.ControllerPage),
		},
		{
			name:   "static",
			match:  func(method, _ string) bool { return method == http.MethodGet },
			handle: rt.serveRequested,
		},
		{
			name:   "not-found",
			match:  func(string, string) bool { return true },
			handle: rt.notFound,
		},
	}

	return rt
}

func getPath(p string) func(method, path string) bool {
	return func(method, path string) bool {
		return method == http.MethodGet && path == p
	}
}

// ServeHTTP implements http.Handler
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, ru := range rt.rules {
		if !ru.match(r.Method, r.URL.Path) {
			continue
		}
		rt.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("rule", ru.name).
			Msg("Routing request")
		ru.handle(w, r)
		return
	}
}

func (rt *Router) redirect(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
	}
}

func (rt *Router) serveAlias(filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt.serveFile(w, r, filename)
	}
}

func (rt *Router) serveRequested(w http.ResponseWriter, r *http.Request) {
	rt.serveFile(w, r, r.URL.Path)
}

func (rt *Router) notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

// serveFile resolves logicalPath and pipes it into the response body.
// A known media type gets an explicit 200 and Content-Type; otherwise the
// body write carries net/http's implicit status.
func (rt *Router) serveFile(w http.ResponseWriter, r *http.Request, logicalPath string) {
	file, err := rt.resolver.Resolve(r.Context(), logicalPath)
	if err != nil {
		rt.writeError(w, logicalPath, err)
		return
	}
	defer file.Stream.Close()

	if contentType, ok := rt.types.Lookup(file.MediaType); ok {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
	}

	written, err := io.Copy(w, &contextReader{ctx: r.Context(), r: file.Stream})
	if err != nil {
		// Headers are already on the wire; nothing more can be sent
		rt.logger.Warn().
			Err(err).
			Str("path", logicalPath).
			Int64("bytes", written).
			Msg("File stream aborted")
	}
}

func (rt *Router) writeError(w http.ResponseWriter, logicalPath string, err error) {
	if errors.Is(err, resolver.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rt.logger.Error().Err(err).Str("path", logicalPath).Msg("Failed to serve file")
	w.WriteHeader(http.StatusInternalServerError)
}

// contextReader stops reading once ctx is done, so a client disconnect
// ends the copy and releases the file
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
