// Package insights aggregates the stored designs of a project into summary
// statistics, the most popular slider combinations, a consensus design and
// the cost of building that consensus.
package insights

import (
	"sort"

	"streetplan/internal/simulation"
	"streetplan/internal/types"
)

// TopCombinationLimit is the number of most frequent combinations reported.
const TopCombinationLimit = 3

// Stat is the average and median of one slider dimension.
type Stat struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// Summary maps each slider key to its statistics. It is empty, never nil,
// when there are no designs.
type Summary map[types.SliderKey]Stat

// Combination is one exact slider tuple and how many designs chose it.
type Combination struct {
	Sliders types.SliderValues `json:"sliders"`
	Count   int                `json:"count"`
}

// Consensus is the per-key median design and the metrics it would produce.
type Consensus struct {
	Sliders types.SliderVector `json:"sliders"`
	Metrics types.Metrics      `json:"metrics"`
}

// CostItem is the rollup of one configured cost key.
type CostItem struct {
	Key      types.CostKey `json:"key"`
	UnitCost float64       `json:"unitCost"`
	UnitOpex float64       `json:"unitOpex"`
	Units    float64       `json:"units"`
	Capex    float64       `json:"capex"`
	Opex     float64       `json:"opex"`
}

// CostRollup is the capex/opex of the consensus design.
type CostRollup struct {
	Items      []CostItem `json:"items"`
	TotalCapex float64    `json:"totalCapex"`
	TotalOpex  float64    `json:"totalOpex"`
}

// Snapshot is the full insights document for one project. It is computed on
// demand and never stored.
type Snapshot struct {
	TotalDesigns    int           `json:"totalDesigns"`
	Summary         Summary       `json:"summary"`
	TopCombinations []Combination `json:"topCombinations"`
	Consensus       Consensus     `json:"consensus"`
	BaselineMetrics types.Metrics `json:"baselineMetrics"`
	Costs           CostRollup    `json:"costs"`
}

// Aggregate computes the snapshot for project over the sliders of all its
// stored designs. The order of sliders decides tie-breaking between equally
// frequent combinations: the one seen first wins.
func Aggregate(project *types.Project, sliders []types.SliderValues) Snapshot {
	baseline := simulation.BaselineFor(project)

	summary := Summarize(sliders)
	consensus := ConsensusSliders(summary)

	return Snapshot{
		TotalDesigns:    len(sliders),
		Summary:         summary,
		TopCombinations: TopCombinations(sliders, TopCombinationLimit),
		Consensus: Consensus{
			Sliders: consensus,
			Metrics: simulation.Simulate(simulation.Input{Baseline: baseline, Sliders: consensus}),
		},
		BaselineMetrics: simulation.BaselineMetrics(baseline),
		Costs:           RollupCosts(project.CostConfigs, consensus),
	}
}

// Summarize computes the average and median of every slider key.
func Summarize(sliders []types.SliderValues) Summary {
	summary := make(Summary, len(types.SliderKeys))
	if len(sliders) == 0 {
		return summary
	}

	values := make([]float64, len(sliders))
	for _, k := range types.SliderKeys {
		for i, s := range sliders {
			values[i] = float64(s.Get(k))
		}
		summary[k] = Stat{Average: average(values), Median: median(values)}
	}
	return summary
}

// ConsensusSliders returns the per-key medians. Keys missing from summary
// are zero, which makes the consensus of no designs the all-zero design.
func ConsensusSliders(summary Summary) types.SliderVector {
	var v types.SliderVector
	for _, k := range types.SliderKeys {
		v.Set(k, summary[k].Median)
	}
	return v
}

// TopCombinations counts exact slider tuples and returns up to limit of
// them, most frequent first. Ties keep first-seen order.
func TopCombinations(sliders []types.SliderValues, limit int) []Combination {
	index := make(map[types.SliderValues]int)
	combos := make([]Combination, 0)

	for _, s := range sliders {
		if i, ok := index[s]; ok {
			combos[i].Count++
			continue
		}
		index[s] = len(combos)
		combos = append(combos, Combination{Sliders: s, Count: 1})
	}

	sort.SliceStable(combos, func(i, j int) bool {
		return combos[i].Count > combos[j].Count
	})

	if len(combos) > limit {
		combos = combos[:limit]
	}
	return combos
}

// RollupCosts prices the consensus design with the project's cost
// configuration. Unknown keys contribute zero units.
func RollupCosts(configs []types.CostConfig, consensus types.SliderVector) CostRollup {
	rollup := CostRollup{Items: make([]CostItem, 0, len(configs))}

	for _, c := range configs {
		var units float64
		if k, ok := c.Key.SliderKey(); ok {
			units = consensus.Get(k)
		}
		item := CostItem{
			Key:      c.Key,
			UnitCost: c.UnitCost,
			UnitOpex: c.UnitOpex,
			Units:    units,
			Capex:    units * c.UnitCost,
			Opex:     units * c.UnitOpex,
		}
		rollup.TotalCapex += item.Capex
		rollup.TotalOpex += item.Opex
		rollup.Items = append(rollup.Items, item)
	}
	return rollup
}

func average(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median sorts a copy; values is reused by the caller.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
