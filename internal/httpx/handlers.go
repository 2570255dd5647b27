package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/history"
	"github.com/Samyak44/Travel-Agent/internal/models"
)

// TravelAPI is the slice of the service layer the handlers consume.
type TravelAPI interface {
	SearchFlights(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error)
	SearchHotels(ctx context.Context, req models.HotelSearchRequest) (*models.HotelSearchResponse, error)
	HotelDetails(ctx context.Context, hotelID string) (json.RawMessage, error)
	Weather(ctx context.Context, city string) (*models.WeatherResponse, error)
	WeatherByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error)
	AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error)
	SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error)
	AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error)
	SearchCities(ctx context.Context, keyword string) ([]models.City, error)
	History(ctx context.Context, limit int) ([]history.Entry, error)
}

type Handlers struct {
	svc TravelAPI
	log *zap.Logger

	watchInterval time.Duration
}

func NewHandlers(svc TravelAPI, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log, watchInterval: fareWatchInterval}
}

func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var req models.FlightSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.SearchFlights(r.Context(), req)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handlers) SearchHotels(w http.ResponseWriter, r *http.Request) {
	var req models.HotelSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.SearchHotels(r.Context(), req)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handlers) HotelDetails(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")
	raw, err := h.svc.HotelDetails(r.Context(), hotelID)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handlers) WeatherByCity(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if unescaped, err := url.PathUnescape(city); err == nil {
		city = unescaped
	}
	if strings.TrimSpace(city) == "" {
		WriteError(w, http.StatusBadRequest, "city is required")
		return
	}
	res, err := h.svc.Weather(r.Context(), city)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handlers) WeatherByCoords(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordsFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.WeatherByCoords(r.Context(), lat, lon)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handlers) AirQuality(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordsFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.AirQuality(r.Context(), lat, lon)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handlers) SearchAirports(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if len(keyword) < 2 {
		WriteError(w, http.StatusBadRequest, "keyword must be at least 2 characters")
		return
	}
	airports, err := h.svc.SearchAirports(r.Context(), keyword)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if airports == nil {
		airports = []models.Airport{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"airports": airports})
}

func (h *Handlers) AirportInfo(w http.ResponseWriter, r *http.Request) {
	airport, err := h.svc.AirportInfo(r.Context(), chi.URLParam(r, "iataCode"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, airport)
}

func (h *Handlers) SearchCities(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if len(keyword) < 2 {
		WriteError(w, http.StatusBadRequest, "keyword must be at least 2 characters")
		return
	}
	cities, err := h.svc.SearchCities(r.Context(), keyword)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if cities == nil {
		cities = []models.City{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}
	entries, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	h.log.Error("upstream call failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	WriteError(w, status, err.Error())
}

func coordsFromQuery(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		return 0, 0, errors.New("latitude must be a number")
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		return 0, 0, errors.New("longitude must be a number")
	}
	return lat, lon, nil
}
