package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/auth"
	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/history"
	"github.com/Samyak44/Travel-Agent/internal/models"
	"github.com/Samyak44/Travel-Agent/internal/obs"
	"github.com/Samyak44/Travel-Agent/internal/providers"
)

type apiStub struct {
	searchFlights func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error)
	searchHotels  func(context.Context, models.HotelSearchRequest) (*models.HotelSearchResponse, error)
	hotelDetails  func(context.Context, string) (json.RawMessage, error)
	weather       func(context.Context, string) (*models.WeatherResponse, error)
	weatherCoords func(context.Context, float64, float64) (*models.WeatherResponse, error)
	airQuality    func(context.Context, float64, float64) (*models.AirQuality, error)
	airports      func(context.Context, string) ([]models.Airport, error)
	airportInfo   func(context.Context, string) (*models.Airport, error)
	cities        func(context.Context, string) ([]models.City, error)
	recent        func(context.Context, int) ([]history.Entry, error)
}

func (s apiStub) SearchFlights(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
	return s.searchFlights(ctx, req)
}

func (s apiStub) SearchHotels(ctx context.Context, req models.HotelSearchRequest) (*models.HotelSearchResponse, error) {
	return s.searchHotels(ctx, req)
}

func (s apiStub) HotelDetails(ctx context.Context, hotelID string) (json.RawMessage, error) {
	return s.hotelDetails(ctx, hotelID)
}

func (s apiStub) Weather(ctx context.Context, city string) (*models.WeatherResponse, error) {
	return s.weather(ctx, city)
}

func (s apiStub) WeatherByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error) {
	return s.weatherCoords(ctx, lat, lon)
}

func (s apiStub) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	return s.airQuality(ctx, lat, lon)
}

func (s apiStub) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	return s.airports(ctx, keyword)
}

func (s apiStub) AirportInfo(ctx context.Context, iataCode string) (*models.Airport, error) {
	return s.airportInfo(ctx, iataCode)
}

func (s apiStub) SearchCities(ctx context.Context, keyword string) ([]models.City, error) {
	return s.cities(ctx, keyword)
}

func (s apiStub) History(ctx context.Context, limit int) ([]history.Entry, error) {
	return s.recent(ctx, limit)
}

func testRouter(api TravelAPI) (*chi.Mux, *config.Config) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTUser: "demo", JWTPassword: "demo123"}
	m := obs.NewMetrics(prometheus.NewRegistry())
	h := NewHandlers(api, zap.NewNop())
	return NewRouter(h, cfg, m, zap.NewNop()), cfg
}

func bearer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	tok, err := auth.IssueToken(cfg, cfg.JWTUser)
	require.NoError(t, err)
	return "Bearer " + tok
}

const validFlightBody = `{"origin":"jfk","destination":"lhr","departure_date":"2025-11-01"}`

func TestFlightSearchEndpoint(t *testing.T) {
	var got models.FlightSearchRequest
	api := apiStub{searchFlights: func(_ context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
		got = req
		return &models.FlightSearchResponse{SearchID: "req-9", TotalResults: 0, Results: []models.FlightOffer{}}, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodPost, "/api/flights/search", strings.NewReader(validFlightBody))
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	// Handler validates and normalizes before the service sees the request.
	require.Equal(t, "JFK", got.Origin)
	require.Equal(t, "LHR", got.Destination)
	require.Equal(t, 1, got.Passengers)
	require.Equal(t, models.ClassEconomy, got.Class)

	var res models.FlightSearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, "req-9", res.SearchID)
}

func TestFlightSearchRejectsBadInput(t *testing.T) {
	api := apiStub{searchFlights: func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
		t.Fatal("service must not be called for invalid input")
		return nil, nil
	}}
	router, cfg := testRouter(api)

	for name, body := range map[string]string{
		"malformed json": `{"origin": `,
		"bad iata":       `{"origin":"X","destination":"LHR","departure_date":"2025-11-01"}`,
		"bad date":       `{"origin":"JFK","destination":"LHR","departure_date":"01/11/2025"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/flights/search", strings.NewReader(body))
		req.Header.Set("Authorization", bearer(t, cfg))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400", name, w.Code)
		}
	}
}

func TestFlightSearchStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"auth", fmt.Errorf("amadeus: %w", providers.ErrAuth), http.StatusBadGateway},
		{"rejected", &providers.RejectedError{Provider: "amadeus", Endpoint: "/v2/shopping/flight-offers", Status: 429, Body: "quota exceeded"}, http.StatusBadGateway},
		{"transport", fmt.Errorf("amadeus: %w", providers.ErrTransport), http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("amadeus: %w", providers.ErrTimeout), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := apiStub{searchFlights: func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
				return nil, tc.err
			}}
			router, cfg := testRouter(api)

			req := httptest.NewRequest(http.MethodPost, "/api/flights/search", strings.NewReader(validFlightBody))
			req.Header.Set("Authorization", bearer(t, cfg))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("status: got %d, want %d", w.Code, tc.want)
			}
			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotEmpty(t, body.Error)
		})
	}
}

func TestAPIRequiresToken(t *testing.T) {
	api := apiStub{recent: func(context.Context, int) ([]history.Entry, error) {
		return nil, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Streams cannot set headers, so the token rides a query parameter.
	tok, err := auth.IssueToken(cfg, cfg.JWTUser)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/history?token="+tok, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	api := apiStub{}
	router, _ := testRouter(api)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"demo","password":"demo123"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"demo","password":"wrong"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAirportInfoNotFound(t *testing.T) {
	api := apiStub{airportInfo: func(_ context.Context, code string) (*models.Airport, error) {
		return nil, fmt.Errorf("airport %s: %w", code, providers.ErrNotFound)
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/flights/airports/ZZZ", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAirportSearchKeywordTooShort(t *testing.T) {
	api := apiStub{airports: func(context.Context, string) ([]models.Airport, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/flights/airports/search?keyword=j", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHotelDetailsPassthrough(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"hotel":{"hotelId":"ALNYC647","name":"Aloft"}}]}`)
	api := apiStub{hotelDetails: func(_ context.Context, hotelID string) (json.RawMessage, error) {
		require.Equal(t, "ALNYC647", hotelID)
		return raw, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/hotels/ALNYC647", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, string(raw), w.Body.String())
}

func TestWeatherCoordsValidation(t *testing.T) {
	var gotLat, gotLon float64
	api := apiStub{weatherCoords: func(_ context.Context, lat, lon float64) (*models.WeatherResponse, error) {
		gotLat, gotLon = lat, lon
		return &models.WeatherResponse{Location: "Paris, FR"}, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/weather/coordinates?latitude=48.8566&longitude=2.3522", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.InDelta(t, 48.8566, gotLat, 1e-9)
	require.InDelta(t, 2.3522, gotLon, 1e-9)

	req = httptest.NewRequest(http.MethodGet, "/api/weather/coordinates?longitude=2.3522", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEndpointLimit(t *testing.T) {
	var gotLimit int
	api := apiStub{recent: func(_ context.Context, limit int) ([]history.Entry, error) {
		gotLimit = limit
		return []history.Entry{{ID: "1", SearchType: "flight", Params: json.RawMessage(`{}`), CreatedAt: time.Now()}}, nil
	}}
	router, cfg := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 20, gotLimit)

	req = httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5, gotLimit)

	req = httptest.NewRequest(http.MethodGet, "/api/history?limit=0", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	api := apiStub{}
	router, _ := testRouter(api)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWatchFaresSSE(t *testing.T) {
	api := apiStub{searchFlights: func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
		return &models.FlightSearchResponse{SearchID: "req-7", TotalResults: 1, Results: []models.FlightOffer{{ID: "1", Price: 199.0, Currency: "EUR"}}}, nil
	}}
	h := NewHandlers(api, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/flights/watch/JFK/LHR?date=2025-11-01", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("origin", "JFK")
	rctx.URLParams.Add("destination", "LHR")
	ctx, cancel := context.WithCancel(req.Context())
	cancel() // first update is pushed, then the handler sees the closed client
	req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.WatchFaresSSE(w, req)

	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	require.Contains(t, body, "event: update\n")
	require.Contains(t, body, `"search_id":"req-7"`)
}

func TestWatchFaresSSEUpstreamError(t *testing.T) {
	api := apiStub{searchFlights: func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
		return nil, fmt.Errorf("amadeus: %w", providers.ErrTransport)
	}}
	h := NewHandlers(api, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/flights/watch/JFK/LHR?date=2025-11-01", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("origin", "JFK")
	rctx.URLParams.Add("destination", "LHR")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.WatchFaresSSE(w, req)

	require.Contains(t, w.Body.String(), "event: error\n")
}

func TestWatchFaresSSERequiresDate(t *testing.T) {
	api := apiStub{}
	h := NewHandlers(api, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/flights/watch/JFK/LHR", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("origin", "JFK")
	rctx.URLParams.Add("destination", "LHR")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.WatchFaresSSE(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatchFaresWS(t *testing.T) {
	api := apiStub{searchFlights: func(context.Context, models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
		return &models.FlightSearchResponse{SearchID: "req-7", TotalResults: 1, Results: []models.FlightOffer{{ID: "1", Price: 199.0, Currency: "EUR"}}}, nil
	}}
	cfg := &config.Config{JWTSecret: "test-secret", JWTUser: "demo", JWTPassword: "demo123"}
	h := NewHandlers(api, zap.NewNop())
	h.watchInterval = 10 * time.Millisecond
	router := NewRouter(h, cfg, obs.NewMetrics(prometheus.NewRegistry()), zap.NewNop())

	srv := httptest.NewServer(router)
	defer srv.Close()

	tok, err := auth.IssueToken(cfg, cfg.JWTUser)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/flights/watch/JFK/LHR/ws?date=2025-11-01&token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var res models.FlightSearchResponse
	require.NoError(t, conn.ReadJSON(&res))
	require.Equal(t, "req-7", res.SearchID)
	require.Len(t, res.Results, 1)
}
