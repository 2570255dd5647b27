package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

type FlightClass string

const (
	ClassEconomy        FlightClass = "economy"
	ClassPremiumEconomy FlightClass = "premium_economy"
	ClassBusiness       FlightClass = "business"
	ClassFirst          FlightClass = "first"
)

// FlightSearchRequest is the canonical flight search. Dates are YYYY-MM-DD.
type FlightSearchRequest struct {
	Origin        string      `json:"origin" validate:"required,len=3,alpha"`
	Destination   string      `json:"destination" validate:"required,len=3,alpha"`
	DepartureDate string      `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate    string      `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Passengers    int         `json:"passengers" validate:"min=1,max=9"`
	Class         FlightClass `json:"flight_class" validate:"oneof=economy premium_economy business first"`
	NonStop       bool        `json:"non_stop"`
	MaxResults    int         `json:"max_results" validate:"min=1,max=50"`
}

// Validate normalizes defaults and checks field plus cross-field rules.
func (r *FlightSearchRequest) Validate() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	if r.Passengers == 0 {
		r.Passengers = 1
	}
	if r.Class == "" {
		r.Class = ClassEconomy
	}
	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.ReturnDate != "" {
		dep, _ := time.Parse(dateLayout, r.DepartureDate)
		ret, _ := time.Parse(dateLayout, r.ReturnDate)
		if ret.Before(dep) {
			return fmt.Errorf("return_date %s precedes departure_date %s", r.ReturnDate, r.DepartureDate)
		}
	}
	return nil
}

type FlightSegment struct {
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	Airline          string    `json:"airline"`
	FlightNumber     string    `json:"flight_number"`
	Duration         string    `json:"duration"` // ISO8601, e.g. PT2H30M
	Aircraft         string    `json:"aircraft,omitempty"`
}

type FlightOffer struct {
	ID               string          `json:"id"`
	Price            float64         `json:"price"`
	Currency         string          `json:"currency"`
	OutboundSegments []FlightSegment `json:"outbound_segments"`
	ReturnSegments   []FlightSegment `json:"return_segments,omitempty"`
	TotalDuration    string          `json:"total_duration"`
	DurationMinutes  int             `json:"duration_minutes"`
	Stops            int             `json:"stops"`
}

type FlightSearchResponse struct {
	Results        []FlightOffer `json:"results"`
	SearchID       string        `json:"search_id"`
	TotalResults   int           `json:"total_results"`
	SkippedRecords int           `json:"skipped_records"`
}

// HotelSearchRequest is the canonical hotel search keyed by a city IATA code.
type HotelSearchRequest struct {
	CityCode   string   `json:"city_code" validate:"required,len=3,alpha"`
	CheckIn    string   `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string   `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests     int      `json:"guests" validate:"min=1,max=9"`
	Rooms      int      `json:"rooms" validate:"min=1,max=9"`
	MinRating  *int     `json:"min_rating,omitempty" validate:"omitempty,min=1,max=5"`
	MaxPrice   *float64 `json:"max_price,omitempty" validate:"omitempty,gt=0"`
	MaxResults int      `json:"max_results" validate:"min=1,max=50"`
}

func (r *HotelSearchRequest) Validate() error {
	r.CityCode = strings.ToUpper(strings.TrimSpace(r.CityCode))
	if r.Guests == 0 {
		r.Guests = 1
	}
	if r.Rooms == 0 {
		r.Rooms = 1
	}
	if r.MaxResults == 0 {
		r.MaxResults = 20
	}
	if err := validate.Struct(r); err != nil {
		return err
	}
	in, _ := time.Parse(dateLayout, r.CheckIn)
	out, _ := time.Parse(dateLayout, r.CheckOut)
	if !out.After(in) {
		return fmt.Errorf("check_out %s must be after check_in %s", r.CheckOut, r.CheckIn)
	}
	return nil
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type HotelOffer struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Rating        *float64     `json:"rating,omitempty"` // 1-5 stars, absent when the provider has none
	PricePerNight float64      `json:"price_per_night"`
	TotalPrice    float64      `json:"total_price"`
	Currency      string       `json:"currency"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	Country       string       `json:"country"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Amenities     []string     `json:"amenities"`
	Description   string       `json:"description,omitempty"`
}

type HotelSearchResponse struct {
	Results        []HotelOffer `json:"results"`
	SearchID       string       `json:"search_id"`
	TotalResults   int          `json:"total_results"`
	SkippedRecords int          `json:"skipped_records"`
}

type CurrentWeather struct {
	Temperature float64 `json:"temperature"` // Celsius
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"` // percentage
	Pressure    int     `json:"pressure"` // hPa
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
	Clouds      int     `json:"clouds"`     // percentage
	Visibility  *int    `json:"visibility,omitempty"`
}

type WeatherForecast struct {
	Date           time.Time `json:"date"`
	TemperatureMin float64   `json:"temperature_min"`
	TemperatureMax float64   `json:"temperature_max"`
	Condition      string    `json:"condition"`
	Description    string    `json:"description"`
	Humidity       int       `json:"humidity"`
	WindSpeed      float64   `json:"wind_speed"`
	PrecipProb     float64   `json:"precipitation_probability"` // 0-100
}

// WeatherResponse holds current conditions plus a forecast with at most one
// entry per calendar day. Timezone is the provider's UTC offset in seconds.
type WeatherResponse struct {
	Location    string            `json:"location"`
	Coordinates Coordinates       `json:"coordinates"`
	Current     CurrentWeather    `json:"current"`
	Forecast    []WeatherForecast `json:"forecast"`
	Timezone    int               `json:"timezone"`
}

type AirQuality struct {
	AQI        int                `json:"aqi"` // 1=Good .. 5=Very Poor, 0=unknown
	Quality    string             `json:"quality"`
	Components map[string]float64 `json:"components"`
}

// Airport is a reference-data lookup record.
type Airport struct {
	IATACode    string       `json:"iata_code"`
	Name        string       `json:"name"`
	City        string       `json:"city"`
	Country     string       `json:"country"`
	Timezone    string       `json:"timezone,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// City is a reference-data lookup record used to resolve hotel city codes.
type City struct {
	IATACode    string       `json:"iata_code"`
	Name        string       `json:"name"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
