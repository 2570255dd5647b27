package httpx

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/auth"
	"github.com/Samyak44/Travel-Agent/internal/config"
	mid "github.com/Samyak44/Travel-Agent/internal/middleware"
	"github.com/Samyak44/Travel-Agent/internal/obs"
)

// NewRouter wires middleware, the public endpoints and the authenticated /api
// group. Streams sit inside the group; the auth middleware also accepts the
// token as a query parameter for EventSource and WebSocket clients.
func NewRouter(h *Handlers, cfg *config.Config, metrics *obs.Metrics, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mid.MetricsMiddleware(metrics))
	r.Use(mid.LoggingMiddleware(logger))

	r.Post("/auth/login", auth.LoginHandler(cfg))
	r.Get("/health", h.Health)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg, logger))

		r.Route("/flights", func(r chi.Router) {
			r.Post("/search", h.SearchFlights)
			r.Get("/airports/search", h.SearchAirports)
			r.Get("/airports/{iataCode}", h.AirportInfo)
			r.Get("/watch/{origin}/{destination}", h.WatchFaresSSE)
			r.Get("/watch/{origin}/{destination}/ws", h.WatchFaresWS)
		})

		r.Route("/hotels", func(r chi.Router) {
			r.Post("/search", h.SearchHotels)
			r.Get("/cities/search", h.SearchCities)
			r.Get("/{hotelID}", h.HotelDetails)
		})

		r.Route("/weather", func(r chi.Router) {
			r.Get("/city/{city}", h.WeatherByCity)
			r.Get("/coordinates", h.WeatherByCoords)
			r.Get("/air-quality", h.AirQuality)
		})

		r.Get("/history", h.History)
	})

	return r
}
