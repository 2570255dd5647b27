package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlightSearchRequestDefaults(t *testing.T) {
	req := FlightSearchRequest{
		Origin:        "jfk",
		Destination:   "lax",
		DepartureDate: "2026-09-10",
	}
	require.NoError(t, req.Validate())
	require.Equal(t, "JFK", req.Origin)
	require.Equal(t, "LAX", req.Destination)
	require.Equal(t, 1, req.Passengers)
	require.Equal(t, ClassEconomy, req.Class)
	require.Equal(t, 10, req.MaxResults)
}

func TestFlightSearchRequestRejects(t *testing.T) {
	cases := []struct {
		name string
		req  FlightSearchRequest
	}{
		{"missing origin", FlightSearchRequest{Destination: "LAX", DepartureDate: "2026-09-10"}},
		{"bad airport code", FlightSearchRequest{Origin: "JFKX", Destination: "LAX", DepartureDate: "2026-09-10"}},
		{"bad date format", FlightSearchRequest{Origin: "JFK", Destination: "LAX", DepartureDate: "10-09-2026"}},
		{"return before departure", FlightSearchRequest{Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", ReturnDate: "2026-09-01"}},
		{"too many passengers", FlightSearchRequest{Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Passengers: 12}},
		{"unknown class", FlightSearchRequest{Origin: "JFK", Destination: "LAX", DepartureDate: "2026-09-10", Class: "luxury"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.req.Validate())
		})
	}
}

func TestFlightSearchRequestRoundTripSameDay(t *testing.T) {
	req := FlightSearchRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2026-09-10",
		ReturnDate:    "2026-09-10",
	}
	require.NoError(t, req.Validate())
}

func TestHotelSearchRequestDefaults(t *testing.T) {
	req := HotelSearchRequest{
		CityCode: "par",
		CheckIn:  "2026-09-10",
		CheckOut: "2026-09-12",
	}
	require.NoError(t, req.Validate())
	require.Equal(t, "PAR", req.CityCode)
	require.Equal(t, 1, req.Guests)
	require.Equal(t, 1, req.Rooms)
	require.Equal(t, 20, req.MaxResults)
}

func TestHotelSearchRequestRejectsDates(t *testing.T) {
	req := HotelSearchRequest{CityCode: "PAR", CheckIn: "2026-09-12", CheckOut: "2026-09-12"}
	require.Error(t, req.Validate(), "zero-night stay must be rejected")

	req = HotelSearchRequest{CityCode: "PAR", CheckIn: "2026-09-12", CheckOut: "2026-09-10"}
	require.Error(t, req.Validate())
}

func TestHotelSearchRequestOptionalFilters(t *testing.T) {
	rating := 6
	req := HotelSearchRequest{CityCode: "PAR", CheckIn: "2026-09-10", CheckOut: "2026-09-12", MinRating: &rating}
	require.Error(t, req.Validate())

	price := -10.0
	req = HotelSearchRequest{CityCode: "PAR", CheckIn: "2026-09-10", CheckOut: "2026-09-12", MaxPrice: &price}
	require.Error(t, req.Validate())

	rating = 4
	price = 300
	req = HotelSearchRequest{CityCode: "PAR", CheckIn: "2026-09-10", CheckOut: "2026-09-12", MinRating: &rating, MaxPrice: &price}
	require.NoError(t, req.Validate())
}
