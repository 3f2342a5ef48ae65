package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/track"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// passPayload is the wire form of a prediction. Azimuths the source did
// not report are carried as NaN internally, which JSON cannot encode, so
// they become null here.
type passPayload struct {
	NORADID      int       `json:"norad_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	StartAzimuth *float64  `json:"start_azimuth"`
	EndAzimuth   *float64  `json:"end_azimuth"`
	MaxAzimuth   *float64  `json:"max_azimuth"`
	MaxElevation float64   `json:"max_elevation"`
	DurationSecs float64   `json:"duration_seconds"`
}

func azimuthOrNull(deg float64) *float64 {
	if math.IsNaN(deg) {
		return nil
	}
	return &deg
}

func toPassPayload(p provider.Prediction) passPayload {
	return passPayload{
		NORADID:      p.NORADID,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		StartAzimuth: azimuthOrNull(p.StartAzimuthDeg),
		EndAzimuth:   azimuthOrNull(p.EndAzimuthDeg),
		MaxAzimuth:   azimuthOrNull(p.MaxAzimuthDeg),
		MaxElevation: p.MaxElevationDeg,
		DurationSecs: p.Duration.Seconds(),
	}
}

// queryFloat parses an optional float query parameter.
func queryFloat(r *http.Request, name string, def float64) (float64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// passesHandler serves pass predictions.
// GET /api/v1/passes?norad=25544&lat=40.71&lng=-74.01&alt=10&days=2&min_elevation=0
func passesHandler(logger *slog.Logger, passes provider.PassProvider, defaultKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noradID, err := strconv.Atoi(r.URL.Query().Get("norad"))
		if err != nil || noradID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid or missing norad parameter")
			return
		}

		lat, ok := queryFloat(r, "lat", 0)
		if !ok || lat < -90 || lat > 90 {
			writeError(w, http.StatusBadRequest, "invalid lat parameter")
			return
		}
		lng, ok := queryFloat(r, "lng", 0)
		if !ok || lng < -180 || lng > 180 {
			writeError(w, http.StatusBadRequest, "invalid lng parameter")
			return
		}
		alt, ok := queryFloat(r, "alt", 0)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid alt parameter")
			return
		}
		minEl, ok := queryFloat(r, "min_elevation", 0)
		if !ok || minEl < 0 || minEl >= 90 {
			writeError(w, http.StatusBadRequest, "invalid min_elevation parameter")
			return
		}

		days := 2
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 10 {
				writeError(w, http.StatusBadRequest, "invalid days parameter, must be 1-10")
				return
			}
			days = n
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = defaultKey
		}

		preds, err := passes.Passes(r.Context(), provider.PassRequest{
			NORADID:         noradID,
			Observer:        provider.Observer{LatDeg: lat, LngDeg: lng, AltM: alt},
			HorizonDays:     days,
			MinElevationDeg: minEl,
			APIKey:          apiKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, provider.ErrMissingAPIKey):
				writeError(w, http.StatusBadRequest, "provider requires an API key")
			case errors.Is(err, provider.ErrBudgetExhausted):
				writeError(w, http.StatusTooManyRequests, "provider request budget exhausted")
			default:
				logger.Error("pass prediction failed", "norad_id", noradID, "error", err)
				writeError(w, http.StatusBadGateway, "pass prediction failed")
			}
			return
		}

		payload := make([]passPayload, len(preds))
		for i, p := range preds {
			payload[i] = toPassPayload(p)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"norad_id": noradID,
			"count":    len(payload),
			"passes":   payload,
		})
	}
}

// trackRequest is the start-tracking request body.
type trackRequest struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Alt    float64 `json:"alt"`
	APIKey string  `json:"api_key"`
}

// startHandler begins a tracking session.
// POST /api/v1/track/{norad}/start
func startHandler(logger *slog.Logger, manager *track.Manager, defaultKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noradID, err := strconv.Atoi(r.PathValue("norad"))
		if err != nil || noradID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid NORAD ID")
			return
		}

		var body trackRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Lat < -90 || body.Lat > 90 || body.Lng < -180 || body.Lng > 180 {
			writeError(w, http.StatusBadRequest, "observer coordinates out of range")
			return
		}

		apiKey := body.APIKey
		if apiKey == "" {
			apiKey = defaultKey
		}

		obs := provider.Observer{LatDeg: body.Lat, LngDeg: body.Lng, AltM: body.Alt}
		if _, err := manager.Start(noradID, obs, apiKey); err != nil {
			if errors.Is(err, provider.ErrMissingAPIKey) {
				writeError(w, http.StatusBadRequest, "provider requires an API key")
				return
			}
			logger.Error("start tracking failed", "norad_id", noradID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not start tracking")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "tracking",
			"norad_id": noradID,
		})
	}
}

// stopHandler ends a tracking session.
// POST /api/v1/track/{norad}/stop
func stopHandler(logger *slog.Logger, manager *track.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noradID, err := strconv.Atoi(r.PathValue("norad"))
		if err != nil || noradID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid NORAD ID")
			return
		}

		if !manager.Stop(noradID) {
			writeError(w, http.StatusNotFound, "satellite is not being tracked")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "stopped",
			"norad_id": noradID,
		})
	}
}

// sceneHandler serves a one-shot scene snapshot for a tracked satellite.
// GET /api/v1/track/{norad}/scene
func sceneHandler(scenes *SceneBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noradID, err := strconv.Atoi(r.PathValue("norad"))
		if err != nil || noradID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid NORAD ID")
			return
		}

		scene, ok := scenes.Scene(noradID)
		if !ok {
			writeError(w, http.StatusNotFound, "satellite is not being tracked")
			return
		}
		writeJSON(w, http.StatusOK, scene)
	}
}
