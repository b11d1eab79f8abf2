package handlers

import (
	"net/http"

	"github.com/hotube/backend/internal/middleware"
)

// Prefixes lists the mount points of every API route. "/api" keeps the
// original web client working unchanged.
var Prefixes = []string{"", "/api"}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.HealthChecks}
	videoRoutes := VideoHandler{Videos: deps.Videos}
	accountRoutes := AccountHandler{Accounts: deps.Accounts}
	commentRoutes := CommentHandler{Comments: deps.Comments}
	lookup := LookupHandler{Metadata: deps.VideoMetadata}

	limitLogin := middleware.RateLimit(deps.AuthLimiter, "login")
	limitRegister := middleware.RateLimit(deps.AuthLimiter, "register")

	for _, p := range Prefixes {
		mux.HandleFunc("GET "+p+"/health", health.Handle)

		mux.HandleFunc("GET "+p+"/videos", videoRoutes.List)
		mux.HandleFunc("GET "+p+"/videos/{id}", videoRoutes.Get)
		mux.HandleFunc("POST "+p+"/videos", videoRoutes.Create)
		mux.HandleFunc("PUT "+p+"/videos/{id}", videoRoutes.Update)
		mux.HandleFunc("DELETE "+p+"/videos/{id}", videoRoutes.Delete)

		mux.Handle("POST "+p+"/register", limitRegister(http.HandlerFunc(accountRoutes.Register)))
		mux.Handle("POST "+p+"/login", limitLogin(http.HandlerFunc(accountRoutes.Login)))
		mux.HandleFunc("GET "+p+"/users/{id}", accountRoutes.GetUser)
		mux.HandleFunc("PUT "+p+"/users/{id}", accountRoutes.UpdateUser)
		mux.HandleFunc("PUT "+p+"/users/{id}/password", accountRoutes.ChangePassword)
		mux.HandleFunc("POST "+p+"/likes", accountRoutes.ToggleLike)
		mux.HandleFunc("POST "+p+"/watched", accountRoutes.MarkWatched)

		mux.HandleFunc("POST "+p+"/comments", commentRoutes.Create)
		mux.HandleFunc("GET "+p+"/comments", commentRoutes.List)
		mux.HandleFunc("PUT "+p+"/comments/{id}", commentRoutes.Update)
		mux.HandleFunc("DELETE "+p+"/comments/{id}", commentRoutes.Delete)

		mux.HandleFunc("GET "+p+"/youtube/lookup", lookup.Lookup)
	}

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Videos        VideoCatalog
	Accounts      AccountService
	Comments      CommentService
	VideoMetadata VideoMetadataProvider
	AuthLimiter   middleware.RateLimiter
	HealthChecks  map[string]HealthCheck
	Metrics       http.Handler
}
