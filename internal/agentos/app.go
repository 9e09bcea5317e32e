package agentos

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/handlers"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
)

// Route is a registered method and path pair
type Route = handlers.Route

// App is the HTTP application of an AgentOS
type App struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	handlers *handlers.Handlers

	mu        sync.RWMutex
	routes    []Route
	fallbacks map[string]bool
}

type handlerFunc func(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper)

func newApp(o *AgentOS, h *handlers.Handlers) (*App, error) {
	app := &App{
		mux:       http.NewServeMux(),
		logger:    o.logger,
		handlers:  h,
		fallbacks: make(map[string]bool),
	}
	h.SetRouteTable(app.Routes)

	app.handle("/{$}", map[string]handlerFunc{http.MethodGet: h.HandleUI})
	app.handle("/config", map[string]handlerFunc{http.MethodGet: h.HandleConfig})
	app.handle("/docs", map[string]handlerFunc{http.MethodGet: h.HandleDocs})
	app.handle(handlers.OpenAPIPath, map[string]handlerFunc{http.MethodGet: h.HandleOpenAPI})
	app.handle("/workflows", map[string]handlerFunc{http.MethodGet: h.HandleListWorkflows})
	app.handle("/workflows/{workflow_id}", map[string]handlerFunc{http.MethodGet: h.HandleGetWorkflow})
	app.handle("/workflows/{workflow_id}/runs", map[string]handlerFunc{
		http.MethodGet:  h.HandleListRuns,
		http.MethodPost: h.HandleCreateRun,
	})
	app.handle("/workflows/{workflow_id}/runs/{run_id}", map[string]handlerFunc{http.MethodGet: h.HandleGetRun})
	app.handle("/workflows/{workflow_id}/runs/{run_id}/cancel", map[string]handlerFunc{http.MethodPost: h.HandleCancelRun})

	if o.enableMCP {
		mcpHandler := newMCPHandler(o)
		app.mux.Handle(MCPPath, mcpHandler)
		app.addRoute("*", MCPPath)
	}

	// everything else
	app.mux.HandleFunc("/", app.wrap(h.HandleNotFound))
	return app, nil
}

// handle registers a path whose unsupported methods are answered with 405
func (a *App) handle(path string, methods map[string]handlerFunc) {
	a.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		fn, ok := methods[r.Method]
		if !ok {
			fn = a.handlers.HandleMethodNotAllowed
		}
		a.wrap(fn)(w, r)
	})
	a.fallbacks[path] = true
	routePath := strings.TrimSuffix(path, "{$}")
	for _, method := range slices.Sorted(maps.Keys(methods)) {
		a.addRoute(method, routePath)
	}
}

func (a *App) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := a.newExecutionContext(r)
		w.Header().Set(constants.REQUEST_ID_HEADER, ctx.RequestID)
		fn(ctx, http_wrappers.NewRequestWrapper(r), http_wrappers.NewResponseWrapper(w, ctx.Logger))
	}
}

// newExecutionContext creates the request scoped context, the request id is taken
// from the X-Global-Transaction-Id header when the caller sent one
func (a *App) newExecutionContext(r *http.Request) *executioncontext.ExecutionContext {
	requestID := strings.TrimSpace(r.Header.Get(constants.REQUEST_ID_HEADER))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := a.logger.With(
		constants.LOG_REQUEST_ID, requestID,
		constants.LOG_METHOD, r.Method,
		constants.LOG_URI, r.URL.RequestURI(),
	)
	return executioncontext.NewExecutionContext(r.Context(), requestID, logger)
}

func (a *App) addRoute(method string, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes = append(a.routes, Route{Method: method, Path: path})
}

// AddRoute registers an additional handler for method and path. Registering a
// pattern that is already taken is an error.
func (a *App) AddRoute(method string, path string, handler http.Handler) (err error) {
	if method == "" || !strings.HasPrefix(path, "/") || handler == nil {
		return fmt.Errorf("invalid route %q %q", method, path)
	}
	a.mu.RLock()
	for _, route := range a.routes {
		if route.Method == method && route.Path == path {
			a.mu.RUnlock()
			return fmt.Errorf("route %s %s is already registered", method, path)
		}
	}
	a.mu.RUnlock()

	defer func() {
		// ServeMux panics on conflicting patterns
		if r := recover(); r != nil {
			err = fmt.Errorf("route %s %s: %v", method, path, r)
		}
	}()
	a.mux.Handle(method+" "+path, handler)
	if !a.fallbacks[path] {
		// other methods on the same path get a 405 instead of the catch-all 404
		a.mux.HandleFunc(path, a.wrap(a.handlers.HandleMethodNotAllowed))
		a.fallbacks[path] = true
	}
	a.addRoute(method, path)
	a.logger.Info("Route added", "method", method, "path", path)
	return nil
}

// Routes lists the registered routes in registration order
func (a *App) Routes() []Route {
	a.mu.RLock()
	defer a.mu.RUnlock()
	routes := make([]Route, len(a.routes))
	copy(routes, a.routes)
	return routes
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}
