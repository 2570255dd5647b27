package providers

import (
	"context"
	"encoding/json"

	"github.com/Samyak44/Travel-Agent/internal/models"
)

// Interfaces consumed by the orchestration layer, satisfied by the concrete
// clients in this package.

type FlightSearcher interface {
	Search(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error)
}

type HotelSearcher interface {
	Search(ctx context.Context, req models.HotelSearchRequest) (*models.HotelSearchResponse, error)
	Details(ctx context.Context, hotelID string) (json.RawMessage, error)
}

type WeatherProvider interface {
	CurrentByCity(ctx context.Context, city string) (*models.WeatherResponse, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error)
	AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error)
}

type LocationLookup interface {
	SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error)
	AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error)
	SearchCities(ctx context.Context, name string) ([]models.City, error)
}
