package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts a set of routes on an API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router serving /api/v1 unless configured otherwise
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registered route group
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// ResourceRoutes holds the routes of one resource under a shared prefix
type ResourceRoutes struct {
	prefix string
	routes []resourceRoute
}

type resourceRoute struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// NewResourceRoutes starts a route set under prefix
func NewResourceRoutes(prefix string) *ResourceRoutes {
	return &ResourceRoutes{prefix: prefix}
}

// POST adds a POST route
func (rr *ResourceRoutes) POST(path string, h gin.HandlerFunc) *ResourceRoutes {
	rr.routes = append(rr.routes, resourceRoute{http.MethodPost, path, h})
	return rr
}

// DELETE adds a DELETE route
func (rr *ResourceRoutes) DELETE(path string, h gin.HandlerFunc) *ResourceRoutes {
	rr.routes = append(rr.routes, resourceRoute{http.MethodDelete, path, h})
	return rr
}

// RegisterRoutes implements RouteRegistrar
func (rr *ResourceRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(rr.prefix)
	for _, route := range rr.routes {
		group.Handle(route.method, route.path, route.handler)
	}
}
