package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/models"
)

// WeatherClient talks to the OpenWeatherMap-style API. Current conditions
// and the 5-day forecast are fetched together; a failed forecast degrades to
// an empty one while a failed current call fails the whole request.
type WeatherClient struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	lookupTimeout time.Duration
	log           *zap.Logger
}

func NewWeatherClient(cfg *config.Config, log *zap.Logger) *WeatherClient {
	return &WeatherClient{
		baseURL:       cfg.OpenWeatherURL,
		apiKey:        cfg.OpenWeatherAPIKey,
		client:        &http.Client{Timeout: cfg.ProviderTimeout},
		lookupTimeout: cfg.LookupTimeout,
		log:           log,
	}
}

// aqiLabels is the provider's 1-5 air quality scale. Anything else reads
// "Unknown" rather than failing the lookup.
var aqiLabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

func (w *WeatherClient) CurrentByCity(ctx context.Context, city string) (*models.WeatherResponse, error) {
	q := url.Values{}
	q.Set("q", city)
	return w.current(ctx, q)
}

func (w *WeatherClient) CurrentByCoords(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	return w.current(ctx, q)
}

type currentConditionsPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility *int `json:"visibility"`
	Timezone   int  `json:"timezone"` // UTC offset seconds
}

type forecastPayload struct {
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"` // 0-1 fraction
	} `json:"list"`
}

func (w *WeatherClient) current(ctx context.Context, locParams url.Values) (*models.WeatherResponse, error) {
	var (
		cur currentConditionsPayload
		fc  forecastPayload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.getJSON(gctx, "/weather", withUnits(locParams), &cur)
	})
	g.Go(func() error {
		q := withUnits(locParams)
		q.Set("cnt", "40") // 5 days, 8 entries per day
		if err := w.getJSON(gctx, "/forecast", q, &fc); err != nil {
			w.log.Warn("forecast unavailable, returning current conditions only", zap.Error(err))
			fc = forecastPayload{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return normalizeWeather(cur, fc), nil
}

func normalizeWeather(cur currentConditionsPayload, fc forecastPayload) *models.WeatherResponse {
	current := models.CurrentWeather{
		Temperature: cur.Main.Temp,
		FeelsLike:   cur.Main.FeelsLike,
		Humidity:    cur.Main.Humidity,
		Pressure:    cur.Main.Pressure,
		WindSpeed:   cur.Wind.Speed,
		Clouds:      cur.Clouds.All,
		Visibility:  cur.Visibility,
	}
	if len(cur.Weather) > 0 {
		current.Condition = cur.Weather[0].Main
		current.Description = cur.Weather[0].Description
	}

	// One entry per calendar day, taken from the midday window so the
	// min/max read like "the day" rather than 3am. Hours are local to the
	// forecast location, not to this server.
	loc := time.FixedZone("local", fc.City.Timezone)
	seen := make(map[string]bool)
	forecasts := make([]models.WeatherForecast, 0, 5)
	for _, item := range fc.List {
		local := time.Unix(item.Dt, 0).In(loc)
		if local.Hour() < 11 || local.Hour() > 13 {
			continue
		}
		day := local.Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		f := models.WeatherForecast{
			Date:           local,
			TemperatureMin: item.Main.TempMin,
			TemperatureMax: item.Main.TempMax,
			Humidity:       item.Main.Humidity,
			WindSpeed:      item.Wind.Speed,
			PrecipProb:     item.Pop * 100,
		}
		if len(item.Weather) > 0 {
			f.Condition = item.Weather[0].Main
			f.Description = item.Weather[0].Description
		}
		forecasts = append(forecasts, f)
	}

	return &models.WeatherResponse{
		Location:    cur.Name,
		Coordinates: models.Coordinates{Latitude: cur.Coord.Lat, Longitude: cur.Coord.Lon},
		Current:     current,
		Forecast:    forecasts,
		Timezone:    cur.Timezone,
	}
}

func (w *WeatherClient) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	ctx, cancel := context.WithTimeout(ctx, w.lookupTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components map[string]float64 `json:"components"`
		} `json:"list"`
	}
	if err := w.getJSON(ctx, "/air_pollution", q, &payload); err != nil {
		return nil, err
	}
	aqi := 0
	components := map[string]float64{}
	if len(payload.List) > 0 {
		aqi = payload.List[0].Main.AQI
		if payload.List[0].Components != nil {
			components = payload.List[0].Components
		}
	}
	quality, ok := aqiLabels[aqi]
	if !ok {
		quality = "Unknown"
	}
	return &models.AirQuality{AQI: aqi, Quality: quality, Components: components}, nil
}

func (w *WeatherClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	q.Set("appid", w.apiKey)
	u := w.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return classifyTransport("openweather", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return &RejectedError{Provider: "openweather", Endpoint: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openweather: %w: decoding %s response: %v", ErrTransport, path, err)
	}
	return nil
}

func withUnits(locParams url.Values) url.Values {
	q := url.Values{}
	for k, vs := range locParams {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("units", "metric") // Celsius
	return q
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
