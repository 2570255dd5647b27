package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/models"
)

// fareWatchInterval is how often a subscribed client gets a fresh search.
const fareWatchInterval = 30 * time.Second

func (h *Handlers) watchRequest(r *http.Request) (models.FlightSearchRequest, error) {
	req := models.FlightSearchRequest{
		Origin:        chi.URLParam(r, "origin"),
		Destination:   chi.URLParam(r, "destination"),
		DepartureDate: r.URL.Query().Get("date"),
	}
	if req.DepartureDate == "" {
		return req, errors.New("date query parameter is required")
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func (h *Handlers) WatchFaresSSE(w http.ResponseWriter, r *http.Request) {
	req, err := h.watchRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		res, err := h.svc.SearchFlights(ctx, req)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
			flusher.Flush()
			return
		}
		payload, _ := json.Marshal(res)
		fmt.Fprintf(w, "event: update\ndata: %s\n\n", payload)
		flusher.Flush()

		select {
		case <-ctx.Done():
			h.log.Debug("fare watch client closed",
				zap.String("origin", req.Origin), zap.String("destination", req.Destination))
			return
		case <-ticker.C:
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict origin when fronted by a browser app
	},
}

func (h *Handlers) WatchFaresWS(w http.ResponseWriter, r *http.Request) {
	req, err := h.watchRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		res, err := h.svc.SearchFlights(ctx, req)
		if err != nil {
			_ = conn.WriteJSON(map[string]string{"error": err.Error()})
			return
		}
		if err := conn.WriteJSON(res); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
