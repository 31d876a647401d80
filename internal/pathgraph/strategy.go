package pathgraph

import (
	"fmt"
	"strings"
)

// Strategy selects how the frontier is scored during a search.
type Strategy int

const (
	// StrategyAStar scores by cost so far plus straight-line distance to the goal.
	StrategyAStar Strategy = iota
	// StrategyGreedy scores by distance to the goal only.
	StrategyGreedy
	// StrategyAvoidWater is A* with steps onto water made more expensive.
	StrategyAvoidWater
)

// WaterPenalty multiplies the cost of a step that ends on water under StrategyAvoidWater.
const WaterPenalty = 5.0

var strategyNames = map[Strategy]string{
	StrategyAStar:      "astar",
	StrategyGreedy:     "greedy",
	StrategyAvoidWater: "avoid_water",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name as accepted in configuration.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return StrategyAStar, nil
	}
	for s, sn := range strategyNames {
		if sn == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown search strategy %q", name)
}

func (s Strategy) stepCost(from, to *Spot) float64 {
	d := from.loc.Distance(to.loc)
	if s == StrategyAvoidWater && to.IsWater() {
		d *= WaterPenalty
	}
	return d
}

func (s Strategy) score(cost, remaining float64) float64 {
	if s == StrategyGreedy {
		return remaining
	}
	return cost + remaining
}
