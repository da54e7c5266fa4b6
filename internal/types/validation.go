package types

import (
	"fmt"
	"regexp"
)

// Slider and project constraint constants.
const (
	MaxBaselineParkingPressure = 200.0
	MaxNameLength              = 200

	// MaxRemovedParkingSpots caps the removal slider even for very large
	// projects; the effective cap is also bounded by the baseline spot count.
	MaxRemovedParkingSpots = 40
	MaxAddedGreenUnits     = 10
	MaxAddedSharedCars     = 6
	MaxAddedBikeUnits      = 12
	MaxAddedPublicSpace    = 10
)

var postalCode4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

// IsPostalCode4 reports whether s is exactly four ASCII digits.
func IsPostalCode4(s string) bool {
	return postalCode4Pattern.MatchString(s)
}

// SliderLimitsFor returns the inclusive upper bound of every slider for a
// project with the given number of baseline parking spots.
func SliderLimitsFor(baselineParkingSpots int) SliderValues {
	removable := min(max(baselineParkingSpots, 0), MaxRemovedParkingSpots)
	return SliderValues{
		RemovedParkingSpots: removable,
		AddedGreenUnits:     MaxAddedGreenUnits,
		AddedSharedCars:     MaxAddedSharedCars,
		AddedBikeUnits:      MaxAddedBikeUnits,
		AddedPublicSpace:    MaxAddedPublicSpace,
	}
}

// ValidateSliders checks every slider against [0, limit]. The first
// violation, in slider order, is reported.
func ValidateSliders(v SliderValues, limits SliderValues) error {
	for _, k := range SliderKeys {
		got, limit := v.Get(k), limits.Get(k)
		if got < 0 {
			return NewAppErrorWithDetails(ErrCodeValidationOutOfRange,
				fmt.Sprintf("%s must not be negative", k), nil,
				map[string]any{"field": string(k), "value": got})
		}
		if got > limit {
			return NewAppErrorWithDetails(ErrCodeValidationSliderLimit,
				fmt.Sprintf("%s must be at most %d", k, limit), nil,
				map[string]any{"field": string(k), "value": got, "max": limit})
		}
	}
	return nil
}

// ValidateCostConfigs rejects unknown or repeated cost keys.
func ValidateCostConfigs(configs []CostConfig) error {
	seen := make(map[CostKey]struct{}, len(configs))
	for _, c := range configs {
		if !c.Key.Valid() {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidEnum,
				fmt.Sprintf("unknown cost key '%s'", c.Key), nil,
				map[string]any{"field": "costConfigs.key", "value": string(c.Key)})
		}
		if _, dup := seen[c.Key]; dup {
			return NewAppErrorWithDetails(ErrCodeValidationDuplicateCost,
				fmt.Sprintf("cost key '%s' is configured more than once", c.Key), nil,
				map[string]any{"field": "costConfigs.key", "value": string(c.Key)})
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}
