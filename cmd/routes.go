package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	app.handle(router, http.MethodGet, "/healthz", app.healthz)
	app.handle(router, http.MethodGet, "/readyz", app.readyz)

	// Read access is open; visibility narrows what anonymous callers see.
	app.handle(router, http.MethodGet, "/api/articles", app.listArticles)
	app.handle(router, http.MethodGet, "/api/articles/:id", app.showArticle)

	// Require authentication for these routes
	app.handle(router, http.MethodPost, "/api/articles", app.requireAuthenticatedUser(app.createArticle))
	app.handle(router, http.MethodPut, "/api/articles/:id", app.requireAuthenticatedUser(app.updateArticle(false)))
	app.handle(router, http.MethodPatch, "/api/articles/:id", app.requireAuthenticatedUser(app.updateArticle(true)))
	app.handle(router, http.MethodDelete, "/api/articles/:id", app.requireAuthenticatedUser(app.deleteArticle))
	app.handle(router, http.MethodPost, "/api/articles/:id/toggle_featured", app.requireAuthenticatedUser(app.toggleFeatured))

	return app.recoverPanic(app.requestID(app.authenticate(router)))
}

// handle registers a route instrumented under its pattern, so metrics stay
// bounded regardless of the ids in request paths.
func (app *application) handle(router *httprouter.Router, method, path string, handler http.HandlerFunc) {
	router.Handler(method, path, app.instrument(path, handler))
}
