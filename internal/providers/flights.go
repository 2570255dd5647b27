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

	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/models"
)

// FlightClient searches flight offers and flattens the provider's nested
// payload into canonical offers.
type FlightClient struct {
	baseURL string
	tokens  *TokenSource
	client  *http.Client
	log     *zap.Logger
}

func NewFlightClient(cfg *config.Config, tokens *TokenSource, log *zap.Logger) *FlightClient {
	return &FlightClient{
		baseURL: cfg.AmadeusURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: cfg.ProviderTimeout},
		log:     log,
	}
}

type flightSegmentPayload struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
	Duration    string `json:"duration"`
	Aircraft    struct {
		Code string `json:"code"`
	} `json:"aircraft"`
}

type flightItineraryPayload struct {
	Duration string                 `json:"duration"` // ISO8601 e.g. PT2H10M
	Segments []flightSegmentPayload `json:"segments"`
}

type flightOfferPayload struct {
	ID    string `json:"id"`
	Price struct {
		// json.Number: the provider quotes totals, but numeric totals
		// show up in the wild and both are valid prices.
		Total    json.Number `json:"total"`
		Currency string      `json:"currency"`
	} `json:"price"`
	Itineraries []flightItineraryPayload `json:"itineraries"`
}

// Search runs one flight-offers call. Offers that cannot be parsed are
// dropped individually and reported through SkippedRecords.
func (f *FlightClient) Search(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
	tok, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("originLocationCode", strings.ToUpper(req.Origin))
	q.Set("destinationLocationCode", strings.ToUpper(req.Destination))
	q.Set("departureDate", req.DepartureDate)
	q.Set("adults", strconv.Itoa(req.Passengers))
	q.Set("nonStop", strconv.FormatBool(req.NonStop))
	q.Set("max", strconv.Itoa(req.MaxResults))
	if req.ReturnDate != "" {
		q.Set("returnDate", req.ReturnDate)
	}
	if req.Class != models.ClassEconomy {
		q.Set("travelClass", strings.ToUpper(string(req.Class)))
	}

	u := f.baseURL + "/v2/shopping/flight-offers?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("amadeus flights", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			f.tokens.Invalidate()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &RejectedError{Provider: "amadeus", Endpoint: "flight-offers", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		Meta struct {
			RequestID string `json:"requestId"`
		} `json:"meta"`
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amadeus flights: %w: decoding response: %v", ErrTransport, err)
	}

	offers := make([]models.FlightOffer, 0, len(payload.Data))
	skipped := 0
	for _, raw := range payload.Data {
		// Records decode one at a time: a mistyped field drops that
		// record only, never the whole search.
		var d flightOfferPayload
		if err := json.Unmarshal(raw, &d); err != nil {
			skipped++
			f.log.Warn("skipping undecodable flight offer", zap.Error(err))
			continue
		}
		if len(d.Itineraries) == 0 || len(d.Itineraries[0].Segments) == 0 {
			skipped++
			f.log.Warn("skipping flight offer without itinerary", zap.String("offer_id", d.ID))
			continue
		}
		price, err := d.Price.Total.Float64()
		if err != nil {
			skipped++
			f.log.Warn("skipping flight offer with bad price", zap.String("offer_id", d.ID), zap.String("total", string(d.Price.Total)))
			continue
		}
		outbound, err := flightSegments(d.Itineraries[0].Segments)
		if err != nil {
			skipped++
			f.log.Warn("skipping flight offer", zap.String("offer_id", d.ID), zap.Error(err))
			continue
		}
		var returns []models.FlightSegment
		if len(d.Itineraries) > 1 {
			returns, err = flightSegments(d.Itineraries[1].Segments)
			if err != nil {
				skipped++
				f.log.Warn("skipping flight offer", zap.String("offer_id", d.ID), zap.Error(err))
				continue
			}
		}
		total := d.Itineraries[0].Duration
		offers = append(offers, models.FlightOffer{
			ID:               d.ID,
			Price:            price,
			Currency:         d.Price.Currency,
			OutboundSegments: outbound,
			ReturnSegments:   returns,
			TotalDuration:    total,
			DurationMinutes:  parseISODurationMinutes(total),
			Stops:            len(outbound) - 1,
		})
	}

	return &models.FlightSearchResponse{
		Results:        offers,
		SearchID:       searchID(payload.Meta.RequestID),
		TotalResults:   len(offers),
		SkippedRecords: skipped,
	}, nil
}

func flightSegments(raw []flightSegmentPayload) ([]models.FlightSegment, error) {
	out := make([]models.FlightSegment, 0, len(raw))
	for _, s := range raw {
		depart, err := parseAmadeusTime(s.Departure.At)
		if err != nil {
			return nil, err
		}
		arrive, err := parseAmadeusTime(s.Arrival.At)
		if err != nil {
			return nil, err
		}
		out = append(out, models.FlightSegment{
			DepartureAirport: s.Departure.IataCode,
			ArrivalAirport:   s.Arrival.IataCode,
			DepartureTime:    depart,
			ArrivalTime:      arrive,
			Airline:          s.CarrierCode,
			FlightNumber:     s.Number,
			Duration:         s.Duration,
			Aircraft:         s.Aircraft.Code,
		})
	}
	return out, nil
}

func searchID(requestID string) string {
	if requestID == "" {
		return "unknown"
	}
	return requestID
}

func parseISODurationMinutes(s string) int {
	// very small parser for formats like PT2H10M, PT150M
	s = strings.TrimPrefix(s, "PT")
	total := 0
	var num strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num.WriteRune(r)
			continue
		}
		v, _ := strconv.Atoi(num.String())
		num.Reset()
		switch r {
		case 'H':
			total += v * 60
		case 'M':
			total += v
		}
	}
	return total
}

func parseAmadeusTime(s string) (time.Time, error) {
	// Amadeus returns local time without offset, e.g. 2025-09-10T08:45:00.
	// Anchor naive times in UTC so every stored timestamp is UTC.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}
