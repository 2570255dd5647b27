package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const airportSearchBody = `{
  "data": [
    {
      "iataCode": "JFK", "name": "JOHN F KENNEDY INTL", "subType": "AIRPORT",
      "timeZoneOffset": "-04:00",
      "address": {"cityName": "NEW YORK", "countryName": "UNITED STATES OF AMERICA"},
      "geoCode": {"latitude": 40.63975, "longitude": -73.77893}
    },
    {
      "iataCode": "NYC", "name": "NEW YORK", "subType": "CITY",
      "address": {"cityName": "NEW YORK", "countryName": "UNITED STATES OF AMERICA"}
    }
  ]
}`

func TestSearchAirports(t *testing.T) {
	var gotQuery map[string][]string
	srv := amadeusTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/reference-data/locations", r.URL.Path)
		gotQuery = r.URL.Query()
		fmt.Fprint(w, airportSearchBody)
	})
	defer srv.Close()

	lc := NewLocationClient(testConfig(srv.URL), testTokens(srv))
	airports, err := lc.SearchAirports(context.Background(), "new york")
	require.NoError(t, err)

	require.Equal(t, []string{"AIRPORT,CITY"}, gotQuery["subType"])
	require.Equal(t, []string{"new york"}, gotQuery["keyword"])
	require.Equal(t, []string{"10"}, gotQuery["page[limit]"])

	require.Len(t, airports, 2)
	jfk := airports[0]
	require.Equal(t, "JFK", jfk.IATACode)
	require.Equal(t, "NEW YORK", jfk.City)
	require.Equal(t, "-04:00", jfk.Timezone)
	require.NotNil(t, jfk.Coordinates)
	require.Equal(t, 40.63975, jfk.Coordinates.Latitude)
	require.Nil(t, airports[1].Coordinates, "no geoCode means no coordinates")
}

func TestAirportInfo(t *testing.T) {
	srv := amadeusTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "AIRPORT", r.URL.Query().Get("subType"))
		require.Equal(t, "JFK", r.URL.Query().Get("keyword"))
		fmt.Fprint(w, airportSearchBody)
	})
	defer srv.Close()

	lc := NewLocationClient(testConfig(srv.URL), testTokens(srv))
	airport, err := lc.AirportInfo(context.Background(), "jfk")
	require.NoError(t, err)
	require.Equal(t, "JFK", airport.IATACode)
	require.Equal(t, "JOHN F KENNEDY INTL", airport.Name)
}

func TestAirportInfoNotFound(t *testing.T) {
	srv := amadeusTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	defer srv.Close()

	lc := NewLocationClient(testConfig(srv.URL), testTokens(srv))
	_, err := lc.AirportInfo(context.Background(), "XXX")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchCities(t *testing.T) {
	srv := amadeusTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "CITY", r.URL.Query().Get("subType"))
		fmt.Fprint(w, `{
		  "data": [{
		    "iataCode": "PAR", "name": "PARIS", "subType": "CITY",
		    "address": {"countryName": "FRANCE"},
		    "geoCode": {"latitude": 48.85341, "longitude": 2.3488}
		  }]
		}`)
	})
	defer srv.Close()

	lc := NewLocationClient(testConfig(srv.URL), testTokens(srv))
	cities, err := lc.SearchCities(context.Background(), "paris")
	require.NoError(t, err)
	require.Len(t, cities, 1)
	require.Equal(t, "PAR", cities[0].IATACode)
	require.Equal(t, "FRANCE", cities[0].Country)
	require.NotNil(t, cities[0].Coordinates)
}
