package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/models"
)

// LocationClient answers airport and city reference-data lookups. These back
// the autocomplete endpoints, so they run on the shorter lookup timeout.
type LocationClient struct {
	baseURL string
	tokens  *TokenSource
	client  *http.Client
}

func NewLocationClient(cfg *config.Config, tokens *TokenSource) *LocationClient {
	return &LocationClient{
		baseURL: cfg.AmadeusURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: cfg.LookupTimeout},
	}
}

type locationPayload struct {
	IataCode       string `json:"iataCode"`
	Name           string `json:"name"`
	SubType        string `json:"subType"`
	TimeZoneOffset string `json:"timeZoneOffset"`
	Address        struct {
		CityName    string `json:"cityName"`
		CountryName string `json:"countryName"`
	} `json:"address"`
	GeoCode struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"geoCode"`
}

// SearchAirports matches airports and cities against a free-text keyword.
func (l *LocationClient) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	data, err := l.lookup(ctx, "AIRPORT,CITY", keyword)
	if err != nil {
		return nil, err
	}
	out := make([]models.Airport, 0, len(data))
	for _, d := range data {
		out = append(out, airportFromPayload(d))
	}
	return out, nil
}

// AirportInfo resolves a single airport by IATA code. Returns ErrNotFound
// when the provider knows no such airport.
func (l *LocationClient) AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error) {
	data, err := l.lookup(ctx, "AIRPORT", strings.ToUpper(iataCode))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("airport %s: %w", strings.ToUpper(iataCode), ErrNotFound)
	}
	a := airportFromPayload(data[0])
	return &a, nil
}

// SearchCities matches city reference records by name, used to turn a city
// name into the IATA city code hotel searches need.
func (l *LocationClient) SearchCities(ctx context.Context, name string) ([]models.City, error) {
	data, err := l.lookup(ctx, "CITY", name)
	if err != nil {
		return nil, err
	}
	out := make([]models.City, 0, len(data))
	for _, d := range data {
		out = append(out, models.City{
			IATACode:    d.IataCode,
			Name:        d.Name,
			Country:     d.Address.CountryName,
			Coordinates: coordsFromPayload(d),
		})
	}
	return out, nil
}

func (l *LocationClient) lookup(ctx context.Context, subType, keyword string) ([]locationPayload, error) {
	tok, err := l.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("subType", subType)
	q.Set("keyword", keyword)
	q.Set("page[limit]", "10")
	u := l.baseURL + "/v1/reference-data/locations?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, classifyTransport("amadeus locations", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			l.tokens.Invalidate()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &RejectedError{Provider: "amadeus", Endpoint: "reference-data/locations", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var payload struct {
		Data []locationPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amadeus locations: %w: decoding response: %v", ErrTransport, err)
	}
	return payload.Data, nil
}

func airportFromPayload(d locationPayload) models.Airport {
	return models.Airport{
		IATACode:    d.IataCode,
		Name:        d.Name,
		City:        d.Address.CityName,
		Country:     d.Address.CountryName,
		Timezone:    d.TimeZoneOffset,
		Coordinates: coordsFromPayload(d),
	}
}

func coordsFromPayload(d locationPayload) *models.Coordinates {
	if d.GeoCode.Latitude == nil || d.GeoCode.Longitude == nil {
		return nil
	}
	return &models.Coordinates{Latitude: *d.GeoCode.Latitude, Longitude: *d.GeoCode.Longitude}
}
