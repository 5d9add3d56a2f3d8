package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wmsbridge/fleet"
	"wmsbridge/hub"
	"wmsbridge/jobs"
	"wmsbridge/store"
)

type Handlers struct {
	db    *store.DB
	hub   *hub.Hub
	fleet *fleet.Manager
	seq   *jobs.Sequencer
}

func NewRouter(db *store.DB, h *hub.Hub, fl *fleet.Manager, seq *jobs.Sequencer) http.Handler {
	hs := &Handlers{db: db, hub: h, fleet: fl, seq: seq}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", hs.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Route("/robots", func(r chi.Router) {
			r.Get("/", hs.apiListRobots)
			r.Post("/", hs.apiCreateRobot)
			r.Put("/{id}", hs.apiUpdateRobot)
			r.Delete("/{id}", hs.apiDeleteRobot)
			r.Post("/{id}/connect", hs.apiConnectRobot)
			r.Post("/{id}/disconnect", hs.apiDisconnectRobot)
		})
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", hs.apiListStocks)
			r.Get("/{id}", hs.apiGetStock)
			r.Post("/", hs.apiCreateStock)
			r.Put("/{id}", hs.apiUpdateStock)
			r.Delete("/{id}", hs.apiDeleteStock)
		})
		r.Route("/pins", func(r chi.Router) {
			r.Get("/", hs.apiListPins)
			r.Post("/", hs.apiCreatePin)
			r.Put("/{id}", hs.apiUpdatePin)
			r.Delete("/{id}", hs.apiDeletePin)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", hs.apiListCategories)
			r.Post("/", hs.apiCreateCategory)
			r.Put("/{id}", hs.apiUpdateCategory)
			r.Delete("/{id}", hs.apiDeleteCategory)
		})
		r.Get("/logs", hs.apiListLogs)
	})

	return r
}
