package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"streetplan/internal/simulation"
	"streetplan/internal/types"
)

type simulateOptions struct {
	pressure      float64
	spots         int
	intersections int
	sliders       types.SliderValues
	asJSON        bool
}

func simulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute the six street metrics for a baseline and slider vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.pressure, "pressure", 72, "baseline parking pressure (0-200)")
	f.IntVar(&opts.spots, "spots", 48, "baseline parking spots")
	f.IntVar(&opts.intersections, "intersections", 3, "number of intersections")
	f.IntVar(&opts.sliders.RemovedParkingSpots, "removed-parking", 0, "removed parking spots")
	f.IntVar(&opts.sliders.AddedGreenUnits, "green", 0, "added green units")
	f.IntVar(&opts.sliders.AddedSharedCars, "shared-cars", 0, "added shared cars")
	f.IntVar(&opts.sliders.AddedBikeUnits, "bikes", 0, "added bike units")
	f.IntVar(&opts.sliders.AddedPublicSpace, "public-space", 0, "added public space units")
	f.BoolVar(&opts.asJSON, "json", false, "print metrics as JSON")
	return cmd
}

func runSimulate(w io.Writer, opts simulateOptions) error {
	if opts.pressure < 0 || opts.pressure > types.MaxBaselineParkingPressure {
		return fmt.Errorf("pressure must be between 0 and %g", types.MaxBaselineParkingPressure)
	}
	if opts.spots < 0 || opts.intersections < 0 {
		return fmt.Errorf("spots and intersections must not be negative")
	}

	baseline := simulation.Baseline{
		ParkingPressure:   opts.pressure,
		ParkingSpots:      opts.spots,
		IntersectionCount: opts.intersections,
	}
	metrics := simulation.SimulateSliders(baseline, opts.sliders)

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	}

	// The simulator clamps instead of rejecting; flag inputs the API would refuse.
	var limitErr *types.AppError
	if err := types.ValidateSliders(opts.sliders, types.SliderLimitsFor(opts.spots)); errors.As(err, &limitErr) {
		fmt.Fprintf(w, "warning: %s\n\n", limitErr.Message)
	}

	before := simulation.BaselineMetrics(baseline)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tBASELINE\tDESIGN\tDELTA")
	for _, row := range []struct {
		name        string
		base, value float64
	}{
		{"parkingPressure", before.ParkingPressure, metrics.ParkingPressure},
		{"livability", before.Livability, metrics.Livability},
		{"biodiversity", before.Biodiversity, metrics.Biodiversity},
		{"safety", before.Safety, metrics.Safety},
		{"heatStress", before.HeatStress, metrics.HeatStress},
		{"accessibility", before.Accessibility, metrics.Accessibility},
	} {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%+.1f\n", row.name, row.base, row.value, row.value-row.base)
	}
	return tw.Flush()
}
