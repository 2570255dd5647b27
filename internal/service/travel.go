package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/auth"
	"github.com/Samyak44/Travel-Agent/internal/cache"
	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/history"
	"github.com/Samyak44/Travel-Agent/internal/models"
	"github.com/Samyak44/Travel-Agent/internal/obs"
	"github.com/Samyak44/Travel-Agent/internal/providers"
)

const (
	providerAmadeus     = "amadeus"
	providerOpenWeather = "openweather"
)

// Clients bundles the provider clients the service orchestrates.
type Clients struct {
	Flights   providers.FlightSearcher
	Hotels    providers.HotelSearcher
	Weather   providers.WeatherProvider
	Locations providers.LocationLookup
}

// TravelService fronts the provider clients with caching, search history and
// metrics. Handlers talk only to this type.
type TravelService struct {
	clients  Clients
	cache    cache.Store
	history  history.Store
	metrics  *obs.Metrics
	log      *zap.Logger
	cacheTTL time.Duration
}

func NewTravelService(c Clients, store cache.Store, hist history.Store, m *obs.Metrics, log *zap.Logger, cfg *config.Config) *TravelService {
	return &TravelService{
		clients:  c,
		cache:    store,
		history:  hist,
		metrics:  m,
		log:      log,
		cacheTTL: cfg.CacheTTL,
	}
}

func (s *TravelService) SearchFlights(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
	s.metrics.IncSearches("flight")
	key := flightCacheKey(req)
	var cached models.FlightSearchResponse
	if s.fromCache(ctx, key, &cached) {
		s.record(ctx, "flight", req, cached.TotalResults)
		return &cached, nil
	}

	start := time.Now()
	resp, err := s.clients.Flights.Search(ctx, req)
	s.metrics.ObserveProviderLatency(providerAmadeus, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerAmadeus)
		return nil, err
	}
	s.metrics.AddSkippedRecords("flight", resp.SkippedRecords)
	s.record(ctx, "flight", req, resp.TotalResults)
	s.toCache(ctx, key, resp)
	return resp, nil
}

func (s *TravelService) SearchHotels(ctx context.Context, req models.HotelSearchRequest) (*models.HotelSearchResponse, error) {
	s.metrics.IncSearches("hotel")
	key := hotelCacheKey(req)
	var cached models.HotelSearchResponse
	if s.fromCache(ctx, key, &cached) {
		s.record(ctx, "hotel", req, cached.TotalResults)
		return &cached, nil
	}

	start := time.Now()
	resp, err := s.clients.Hotels.Search(ctx, req)
	s.metrics.ObserveProviderLatency(providerAmadeus, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerAmadeus)
		return nil, err
	}
	s.metrics.AddSkippedRecords("hotel", resp.SkippedRecords)
	s.record(ctx, "hotel", req, resp.TotalResults)
	s.toCache(ctx, key, resp)
	return resp, nil
}

func (s *TravelService) HotelDetails(ctx context.Context, hotelID string) (json.RawMessage, error) {
	start := time.Now()
	raw, err := s.clients.Hotels.Details(ctx, hotelID)
	s.metrics.ObserveProviderLatency(providerAmadeus, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerAmadeus)
		return nil, err
	}
	return raw, nil
}

func (s *TravelService) Weather(ctx context.Context, city string) (*models.WeatherResponse, error) {
	s.metrics.IncSearches("weather")
	key := "weather|city|" + strings.ToLower(city)
	var cached models.WeatherResponse
	if s.fromCache(ctx, key, &cached) {
		s.record(ctx, "weather", map[string]string{"city": city}, len(cached.Forecast))
		return &cached, nil
	}

	start := time.Now()
	resp, err := s.clients.Weather.CurrentByCity(ctx, city)
	s.metrics.ObserveProviderLatency(providerOpenWeather, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerOpenWeather)
		return nil, err
	}
	s.record(ctx, "weather", map[string]string{"city": city}, len(resp.Forecast))
	s.toCache(ctx, key, resp)
	return resp, nil
}

func (s *TravelService) WeatherByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error) {
	s.metrics.IncSearches("weather")
	key := fmt.Sprintf("weather|coords|%.4f|%.4f", lat, lon)
	var cached models.WeatherResponse
	if s.fromCache(ctx, key, &cached) {
		s.record(ctx, "weather", map[string]float64{"lat": lat, "lon": lon}, len(cached.Forecast))
		return &cached, nil
	}

	start := time.Now()
	resp, err := s.clients.Weather.CurrentByCoords(ctx, lat, lon)
	s.metrics.ObserveProviderLatency(providerOpenWeather, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerOpenWeather)
		return nil, err
	}
	s.record(ctx, "weather", map[string]float64{"lat": lat, "lon": lon}, len(resp.Forecast))
	s.toCache(ctx, key, resp)
	return resp, nil
}

func (s *TravelService) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	start := time.Now()
	aq, err := s.clients.Weather.AirQuality(ctx, lat, lon)
	s.metrics.ObserveProviderLatency(providerOpenWeather, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncProviderFailure(providerOpenWeather)
		return nil, err
	}
	return aq, nil
}

func (s *TravelService) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	airports, err := s.clients.Locations.SearchAirports(ctx, keyword)
	if err != nil {
		s.metrics.IncProviderFailure(providerAmadeus)
		return nil, err
	}
	return airports, nil
}

func (s *TravelService) AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error) {
	airport, err := s.clients.Locations.AirportInfo(ctx, iataCode)
	if err != nil {
		// A miss is an answer, not a provider failure.
		if !errors.Is(err, providers.ErrNotFound) {
			s.metrics.IncProviderFailure(providerAmadeus)
		}
		return nil, err
	}
	return airport, nil
}

func (s *TravelService) SearchCities(ctx context.Context, name string) ([]models.City, error) {
	cities, err := s.clients.Locations.SearchCities(ctx, name)
	if err != nil {
		s.metrics.IncProviderFailure(providerAmadeus)
		return nil, err
	}
	return cities, nil
}

func (s *TravelService) History(ctx context.Context, limit int) ([]history.Entry, error) {
	return s.history.Recent(ctx, limit)
}

func (s *TravelService) fromCache(ctx context.Context, key string, out any) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	s.metrics.IncCacheHits()
	return true
}

func (s *TravelService) toCache(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw, s.cacheTTL)
}

// record writes search history best-effort. A dead history store must never
// fail a search.
func (s *TravelService) record(ctx context.Context, searchType string, params any, resultsCount int) {
	e := history.NewEntry(auth.Username(ctx), searchType, params, resultsCount)
	if err := s.history.Record(ctx, e); err != nil {
		s.log.Warn("search history write failed", zap.Error(err))
	}
}

func flightCacheKey(r models.FlightSearchRequest) string {
	return fmt.Sprintf("flights|%s|%s|%s|%s|%d|%s|%t|%d",
		r.Origin, r.Destination, r.DepartureDate, r.ReturnDate, r.Passengers, r.Class, r.NonStop, r.MaxResults)
}

func hotelCacheKey(r models.HotelSearchRequest) string {
	minRating := 0
	if r.MinRating != nil {
		minRating = *r.MinRating
	}
	maxPrice := 0.0
	if r.MaxPrice != nil {
		maxPrice = *r.MaxPrice
	}
	return fmt.Sprintf("hotels|%s|%s|%s|%d|%d|%d|%g|%d",
		r.CityCode, r.CheckIn, r.CheckOut, r.Guests, r.Rooms, minRating, maxPrice, r.MaxResults)
}
