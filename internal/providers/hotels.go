package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/models"
)

// SearchIDEmpty tags a hotel search that resolved zero candidate hotels for
// the city. It is a valid outcome, not an error.
const SearchIDEmpty = "empty"

// hotelIDCap bounds stage one of the search: the provider's by-city lookup
// can return thousands of properties, only the first 100 are considered.
const hotelIDCap = 100

// HotelClient searches hotel offers in two stages: resolve the city code to
// candidate hotel IDs, then fetch offers for those IDs in one batched call.
type HotelClient struct {
	baseURL string
	tokens  *TokenSource
	client  *http.Client
	log     *zap.Logger
}

func NewHotelClient(cfg *config.Config, tokens *TokenSource, log *zap.Logger) *HotelClient {
	return &HotelClient{
		baseURL: cfg.AmadeusURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: cfg.ProviderTimeout},
		log:     log,
	}
}

func (h *HotelClient) Search(ctx context.Context, req models.HotelSearchRequest) (*models.HotelSearchResponse, error) {
	tok, err := h.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := h.hotelIDsByCity(ctx, tok, req.CityCode)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &models.HotelSearchResponse{Results: []models.HotelOffer{}, SearchID: SearchIDEmpty}, nil
	}
	if len(ids) > req.MaxResults {
		ids = ids[:req.MaxResults]
	}

	q := url.Values{}
	q.Set("hotelIds", strings.Join(ids, ","))
	q.Set("checkInDate", req.CheckIn)
	q.Set("checkOutDate", req.CheckOut)
	q.Set("adults", strconv.Itoa(req.Guests))
	q.Set("roomQuantity", strconv.Itoa(req.Rooms))
	if req.MaxPrice != nil {
		q.Set("priceRange", fmt.Sprintf("0-%d", int(*req.MaxPrice)))
	}

	u := h.baseURL + "/v3/shopping/hotel-offers?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("amadeus hotels", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			h.tokens.Invalidate()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &RejectedError{Provider: "amadeus", Endpoint: "hotel-offers", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		Meta struct {
			RequestID string `json:"requestId"`
		} `json:"meta"`
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amadeus hotels: %w: decoding response: %v", ErrTransport, err)
	}

	offers := make([]models.HotelOffer, 0, len(payload.Data))
	skipped := 0
	for _, raw := range payload.Data {
		// Records decode one at a time: a mistyped field drops that
		// record only, never the whole search.
		var rec hotelRecordPayload
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			h.log.Warn("skipping undecodable hotel record", zap.Error(err))
			continue
		}
		offer, err := normalizeHotelRecord(rec)
		if err != nil {
			skipped++
			h.log.Warn("skipping hotel record", zap.String("hotel_id", rec.Hotel.HotelID), zap.Error(err))
			continue
		}
		if req.MinRating != nil && offer.Rating != nil && *offer.Rating < float64(*req.MinRating) {
			continue
		}
		offers = append(offers, *offer)
	}

	// Highest rating first, cheapest first within a rating. Unrated hotels
	// sort as rating 0. Stable so provider order breaks remaining ties.
	sort.SliceStable(offers, func(i, j int) bool {
		ri, rj := ratingValue(offers[i].Rating), ratingValue(offers[j].Rating)
		if ri != rj {
			return ri > rj
		}
		return offers[i].TotalPrice < offers[j].TotalPrice
	})

	return &models.HotelSearchResponse{
		Results:        offers,
		SearchID:       searchID(payload.Meta.RequestID),
		TotalResults:   len(offers),
		SkippedRecords: skipped,
	}, nil
}

func (h *HotelClient) hotelIDsByCity(ctx context.Context, tok, cityCode string) ([]string, error) {
	u := h.baseURL + "/v1/reference-data/locations/hotels/by-city?cityCode=" + url.QueryEscape(strings.ToUpper(cityCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, classifyTransport("amadeus hotels", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			h.tokens.Invalidate()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &RejectedError{Provider: "amadeus", Endpoint: "hotels/by-city", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var payload struct {
		Data []struct {
			HotelID string `json:"hotelId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amadeus hotels: %w: decoding by-city response: %v", ErrTransport, err)
	}
	ids := make([]string, 0, len(payload.Data))
	for _, d := range payload.Data {
		if d.HotelID == "" {
			continue
		}
		ids = append(ids, d.HotelID)
		if len(ids) == hotelIDCap {
			break
		}
	}
	return ids, nil
}

// Details fetches the provider's full offer document for one hotel. The
// payload is passed through untouched; only search results are normalized.
func (h *HotelClient) Details(ctx context.Context, hotelID string) (json.RawMessage, error) {
	tok, err := h.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	u := h.baseURL + "/v2/shopping/hotel-offers/by-hotel?hotelId=" + url.QueryEscape(hotelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, classifyTransport("amadeus hotels", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			h.tokens.Invalidate()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &RejectedError{Provider: "amadeus", Endpoint: "hotel-offers/by-hotel", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("amadeus hotels", err)
	}
	return json.RawMessage(raw), nil
}

type hotelRecordPayload struct {
	Hotel struct {
		HotelID string `json:"hotelId"`
		Name    string `json:"name"`
		// json.Number: the provider quotes ratings ("4") but numeric
		// ratings (4) appear too, and both mean the same thing.
		Rating    json.Number `json:"rating"`
		Latitude  *float64    `json:"latitude"`
		Longitude *float64    `json:"longitude"`
		Address   struct {
			Lines       []string `json:"lines"`
			CityName    string   `json:"cityName"`
			CountryCode string   `json:"countryCode"`
		} `json:"address"`
		Amenities []string `json:"amenities"`
	} `json:"hotel"`
	Offers []struct {
		CheckInDate  string `json:"checkInDate"`
		CheckOutDate string `json:"checkOutDate"`
		Price        struct {
			Total    json.Number `json:"total"`
			Currency string      `json:"currency"`
		} `json:"price"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	} `json:"offers"`
}

func normalizeHotelRecord(rec hotelRecordPayload) (*models.HotelOffer, error) {
	if len(rec.Offers) == 0 {
		return nil, fmt.Errorf("record has no offers")
	}
	first := rec.Offers[0]

	total := 0.0
	if first.Price.Total != "" {
		var err error
		total, err = first.Price.Total.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad total price %q", first.Price.Total)
		}
	}
	currency := first.Price.Currency
	if currency == "" {
		currency = "USD"
	}

	var rating *float64
	if rec.Hotel.Rating != "" {
		v, err := rec.Hotel.Rating.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad rating %q", rec.Hotel.Rating)
		}
		rating = &v
	}

	var coords *models.Coordinates
	if rec.Hotel.Latitude != nil && rec.Hotel.Longitude != nil {
		coords = &models.Coordinates{Latitude: *rec.Hotel.Latitude, Longitude: *rec.Hotel.Longitude}
	}

	id := rec.Hotel.HotelID
	if id == "" {
		id = "unknown"
	}
	name := rec.Hotel.Name
	if name == "" {
		name = "Unknown Hotel"
	}
	address := ""
	if len(rec.Hotel.Address.Lines) > 0 {
		address = rec.Hotel.Address.Lines[0]
	}
	amenities := rec.Hotel.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	nights := stayNights(first.CheckInDate, first.CheckOutDate)
	return &models.HotelOffer{
		ID:            id,
		Name:          name,
		Rating:        rating,
		PricePerNight: total / float64(nights),
		TotalPrice:    total,
		Currency:      currency,
		Address:       address,
		City:          rec.Hotel.Address.CityName,
		Country:       rec.Hotel.Address.CountryCode,
		Coordinates:   coords,
		Amenities:     amenities,
		Description:   first.Description.Text,
	}, nil
}

// stayNights floors at one night so price-per-night never divides by zero.
func stayNights(checkIn, checkOut string) int {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return 1
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return 1
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

func ratingValue(r *float64) float64 {
	if r == nil {
		return 0
	}
	return *r
}
