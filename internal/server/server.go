// Package server Agora
//
// The Agora is a content store which provides access to posts, profiles, reactions, comments and polls.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	mm "github.com/monadsocial/agora/internal/middleware"
	"github.com/monadsocial/agora/internal/service"
)

const maxBodySize = 1 << 20

const statsTTL = 10 * time.Second

type server struct {
	s service.Service
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s service.Service, r chi.Router, timeout time.Duration) {
	r.Use(
		middleware.RequestID,
		mm.Logger,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		mm.BodyLimiter(maxBodySize),
	)

	srv := server{
		s: s,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts", srv.listPosts)
		r.Post("/posts", srv.createPost)
		r.Get("/posts/{id}", srv.getPost)
		r.Put("/posts/{id}", srv.updatePost)
		r.Delete("/posts/{id}", srv.deletePost)
		r.Post("/posts/{id}/like", srv.toggleLike)
		r.Post("/posts/{id}/comments", srv.addComment)

		r.Get("/profiles", srv.listProfiles)
		r.Get("/profiles/{address}", srv.getProfile)
		r.Put("/profiles/{address}", srv.upsertProfile)

		r.Get("/polls", srv.listPolls)
		r.Post("/polls", srv.createPoll)
		r.Get("/polls/{id}", srv.getPoll)
		r.Delete("/polls/{id}", srv.deletePoll)
		r.Post("/polls/{id}/vote", srv.vote)

		r.Get("/stats", mm.Cached(statsTTL, srv.getStats))
		r.Post("/backup", srv.backup)
	})
}
