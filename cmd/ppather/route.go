package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/ppather/internal/pather"
	"github.com/udisondev/ppather/internal/pathgraph"
)

func routeCmd(a *app) *cobra.Command {
	var (
		uiMapID  int
		from, to string
		strategy string
		radius   float64
		asJSON   bool
	)

	c := &cobra.Command{
		Use:   "route",
		Short: "Compute a route between two UI map points and print it",
		Example: "  ppather route --ui-map 1429 --from 42.1,65.3 --to 47.5,60.0\n" +
			"  ppather route --ui-map 1429 --from 42.1,65.3 --to 47.5,60.0 --strategy avoid_water --json",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseMapPoint(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			goal, err := parseMapPoint(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if strategy == "" {
				strategy = a.cfg.Search.Strategy
			}
			st, err := pathgraph.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeSvc, err := newService(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeSvc()

			route, err := svc.FindMapRoute(ctx, uiMapID, start, goal, st, radius)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			resp := pather.NewRouteResponse(route)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printRoute(out, resp)
			return nil
		},
	}

	c.Flags().IntVar(&uiMapID, "ui-map", 0, "UI map id both points are on")
	c.Flags().StringVar(&from, "from", "", "start as x,y UI map percentages")
	c.Flags().StringVar(&to, "to", "", "goal as x,y UI map percentages")
	c.Flags().StringVar(&strategy, "strategy", "", "astar | greedy | avoid_water (default from config)")
	c.Flags().Float64Var(&radius, "radius", 0, "acceptance radius around the goal (default from config)")
	c.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = c.MarkFlagRequired("ui-map")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}

func printRoute(out io.Writer, r pather.RouteResponse) {
	fmt.Fprintf(out, "%s (map %d): %s, %d spots expanded\n", r.Area, r.MapID, r.Status, r.Expanded)
	if r.Error != "" {
		fmt.Fprintf(out, "  reason: %s\n", r.Error)
	}
	if r.Closest != nil {
		fmt.Fprintf(out, "  closest approach: %s\n", r.Closest)
	}
	for i, p := range r.Points {
		mp := r.MapPoints[i]
		fmt.Fprintf(out, "  %3d  %-28s  map %.2f,%.2f\n", i, p, mp.X, mp.Y)
	}
}

// parseMapPoint parses "x,y".
func parseMapPoint(s string) (pather.MapPoint, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return pather.MapPoint{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return pather.MapPoint{}, fmt.Errorf("bad x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return pather.MapPoint{}, fmt.Errorf("bad y in %q: %w", s, err)
	}
	return pather.MapPoint{X: x, Y: y}, nil
}
