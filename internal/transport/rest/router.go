package rest

import (
	"net/http"

	"github.com/openagora/agora/internal/transport/middleware"
)

// RouterDeps bundles everything the HTTP router needs.
type RouterDeps struct {
	Participation *ParticipationHandler
	Conversations *ConversationHandler
	Auth          *AuthHandler
	Health        *HealthHandler

	// Base is applied to every route; RequireAccount additionally guards the
	// owner-facing conversation management routes.
	Base           middleware.Middleware
	RequireAccount middleware.Middleware
}

// NewRouter builds the HTTP routing table.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", d.Health.Live)
	mux.HandleFunc("GET /readyz", d.Health.Ready)
	mux.HandleFunc("GET /health", d.Health.Health)

	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.Auth.Login)

	mux.HandleFunc("POST /api/participants", d.Participation.Join)
	mux.HandleFunc("POST /api/votes", d.Participation.Vote)
	mux.HandleFunc("POST /api/comments", d.Participation.Comment)
	mux.HandleFunc("GET /api/nextComment", d.Participation.NextComment)
	mux.HandleFunc("PUT /api/agenda", d.Participation.SetAgenda)

	owner := func(h http.HandlerFunc) http.Handler {
		return d.RequireAccount(h)
	}
	mux.Handle("POST /api/conversations", owner(d.Conversations.Create))
	mux.Handle("GET /api/conversations/{id}", http.HandlerFunc(d.Conversations.Get))
	mux.Handle("PUT /api/conversations/{id}", owner(d.Conversations.Update))
	mux.Handle("GET /api/conversations/{id}/comments/pending", owner(d.Conversations.Pending))
	mux.Handle("POST /api/conversations/{id}/comments/{commentId}/moderate", owner(d.Conversations.Moderate))
	mux.Handle("POST /api/allowlist", owner(d.Conversations.Allow))
	mux.Handle("DELETE /api/allowlist/{externalId}", owner(d.Conversations.Disallow))

	return d.Base(mux)
}
