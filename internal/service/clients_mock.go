package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/Samyak44/Travel-Agent/internal/models"
)

type flightMock struct {
	resp      *models.FlightSearchResponse
	err       error
	delay     time.Duration
	callCount *int32
}

func (m flightMock) Search(ctx context.Context, _ models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
	if m.callCount != nil {
		atomic.AddInt32(m.callCount, 1)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type hotelMock struct {
	resp      *models.HotelSearchResponse
	details   json.RawMessage
	err       error
	callCount *int32
}

func (m hotelMock) Search(ctx context.Context, _ models.HotelSearchRequest) (*models.HotelSearchResponse, error) {
	if m.callCount != nil {
		atomic.AddInt32(m.callCount, 1)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m hotelMock) Details(ctx context.Context, hotelID string) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.details, nil
}

type weatherMock struct {
	resp      *models.WeatherResponse
	aq        *models.AirQuality
	err       error
	callCount *int32
}

func (m weatherMock) CurrentByCity(ctx context.Context, city string) (*models.WeatherResponse, error) {
	if m.callCount != nil {
		atomic.AddInt32(m.callCount, 1)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m weatherMock) CurrentByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error) {
	if m.callCount != nil {
		atomic.AddInt32(m.callCount, 1)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m weatherMock) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.aq, nil
}

type locationMock struct {
	airports []models.Airport
	airport  *models.Airport
	cities   []models.City
	err      error
}

func (m locationMock) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.airports, nil
}

func (m locationMock) AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.airport, nil
}

func (m locationMock) SearchCities(ctx context.Context, name string) ([]models.City, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cities, nil
}
