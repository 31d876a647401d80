package pather

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/worldmap"
)

// RouteRequest is the body of a route request in UI-map coordinates.
type RouteRequest struct {
	UIMapID int      `json:"ui_map"`
	From    MapPoint `json:"from"`
	To      MapPoint `json:"to"`
	// Strategy falls back to the service's configured default when empty.
	Strategy string  `json:"strategy,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
}

// RouteResponse reports the outcome of a route request. Points are world
// coordinates; MapPoints are the same path on the request's UI map.
type RouteResponse struct {
	Status    string         `json:"status"`
	Strategy  string         `json:"strategy"`
	Area      string         `json:"area"`
	MapID     int            `json:"map_id"`
	Points    []geo.Location `json:"points,omitempty"`
	MapPoints []MapPoint     `json:"map_points,omitempty"`
	Closest   *geo.Location  `json:"closest,omitempty"`
	Expanded  int            `json:"expanded"`
	Error     string         `json:"error,omitempty"`
}

// NewRouteResponse flattens a MapRoute for JSON output.
func NewRouteResponse(route MapRoute) RouteResponse {
	res := route.Result
	out := RouteResponse{
		Status:    res.Status.String(),
		Strategy:  route.Strategy.String(),
		Area:      route.Area.AreaName,
		MapID:     route.Area.MapID,
		Points:    res.Path.Points(),
		MapPoints: route.Points,
		Expanded:  res.Expanded,
	}
	if res.HasClosest && !res.Found() {
		c := res.Closest
		out.Closest = &c
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouteHandler serves POST requests carrying a RouteRequest.
// Search failures are answered with 200 and a non-"found" status.
func NewRouteHandler(svc *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "use POST"})
			return
		}

		var req RouteRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request: " + err.Error()})
			return
		}
		strategy := svc.DefaultStrategy()
		if req.Strategy != "" {
			var err error
			if strategy, err = pathgraph.ParseStrategy(req.Strategy); err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
		}

		route, err := svc.FindMapRoute(r.Context(), req.UIMapID, req.From, req.To, strategy, req.Radius)
		switch {
		case errors.Is(err, worldmap.ErrUnknownArea):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		case err != nil:
			slog.Error("route request failed", "ui_map", req.UIMapID, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, NewRouteResponse(route))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "err", err)
	}
}
