package types

// SliderKey names one adjustable design dimension.
type SliderKey string

const (
	SliderRemovedParkingSpots SliderKey = "removedParkingSpots"
	SliderAddedGreenUnits     SliderKey = "addedGreenUnits"
	SliderAddedSharedCars     SliderKey = "addedSharedCars"
	SliderAddedBikeUnits      SliderKey = "addedBikeUnits"
	SliderAddedPublicSpace    SliderKey = "addedPublicSpace"
)

// SliderKeys is the fixed, ordered set of slider dimensions. Every per-key
// computation iterates this list rather than reflecting over struct fields.
var SliderKeys = [...]SliderKey{
	SliderRemovedParkingSpots,
	SliderAddedGreenUnits,
	SliderAddedSharedCars,
	SliderAddedBikeUnits,
	SliderAddedPublicSpace,
}

// Valid reports whether k is one of the five known slider dimensions.
func (k SliderKey) Valid() bool {
	for _, known := range SliderKeys {
		if k == known {
			return true
		}
	}
	return false
}

// SliderValues is a submitted design: five non-negative integers.
// It is a comparable value type, so it can key a map directly.
type SliderValues struct {
	RemovedParkingSpots int `json:"removedParkingSpots" validate:"min=0"`
	AddedGreenUnits     int `json:"addedGreenUnits" validate:"min=0"`
	AddedSharedCars     int `json:"addedSharedCars" validate:"min=0"`
	AddedBikeUnits      int `json:"addedBikeUnits" validate:"min=0"`
	AddedPublicSpace    int `json:"addedPublicSpace" validate:"min=0"`
}

// Get returns the value of one slider dimension. Unknown keys return 0.
func (v SliderValues) Get(k SliderKey) int {
	switch k {
	case SliderRemovedParkingSpots:
		return v.RemovedParkingSpots
	case SliderAddedGreenUnits:
		return v.AddedGreenUnits
	case SliderAddedSharedCars:
		return v.AddedSharedCars
	case SliderAddedBikeUnits:
		return v.AddedBikeUnits
	case SliderAddedPublicSpace:
		return v.AddedPublicSpace
	}
	return 0
}

// Vector widens the integer sliders into the fractional form used by the simulator.
func (v SliderValues) Vector() SliderVector {
	return SliderVector{
		RemovedParkingSpots: float64(v.RemovedParkingSpots),
		AddedGreenUnits:     float64(v.AddedGreenUnits),
		AddedSharedCars:     float64(v.AddedSharedCars),
		AddedBikeUnits:      float64(v.AddedBikeUnits),
		AddedPublicSpace:    float64(v.AddedPublicSpace),
	}
}

// SliderVector carries slider positions that may be fractional, such as the
// per-key medians forming a consensus design.
type SliderVector struct {
	RemovedParkingSpots float64 `json:"removedParkingSpots"`
	AddedGreenUnits     float64 `json:"addedGreenUnits"`
	AddedSharedCars     float64 `json:"addedSharedCars"`
	AddedBikeUnits      float64 `json:"addedBikeUnits"`
	AddedPublicSpace    float64 `json:"addedPublicSpace"`
}

// Get returns the value of one slider dimension. Unknown keys return 0.
func (v SliderVector) Get(k SliderKey) float64 {
	switch k {
	case SliderRemovedParkingSpots:
		return v.RemovedParkingSpots
	case SliderAddedGreenUnits:
		return v.AddedGreenUnits
	case SliderAddedSharedCars:
		return v.AddedSharedCars
	case SliderAddedBikeUnits:
		return v.AddedBikeUnits
	case SliderAddedPublicSpace:
		return v.AddedPublicSpace
	}
	return 0
}

// Set assigns one slider dimension. Unknown keys are ignored.
func (v *SliderVector) Set(k SliderKey, value float64) {
	switch k {
	case SliderRemovedParkingSpots:
		v.RemovedParkingSpots = value
	case SliderAddedGreenUnits:
		v.AddedGreenUnits = value
	case SliderAddedSharedCars:
		v.AddedSharedCars = value
	case SliderAddedBikeUnits:
		v.AddedBikeUnits = value
	case SliderAddedPublicSpace:
		v.AddedPublicSpace = value
	}
}

// Metrics are the six derived scores of a design. ParkingPressure lies in
// [0,200]; every other field lies in [0,100].
type Metrics struct {
	ParkingPressure float64 `json:"parkingPressure"`
	Livability      float64 `json:"livability"`
	Biodiversity    float64 `json:"biodiversity"`
	Safety          float64 `json:"safety"`
	HeatStress      float64 `json:"heatStress"`
	Accessibility   float64 `json:"accessibility"`
}

// CostKey identifies a configured unit cost.
type CostKey string

const (
	CostRemoveParking CostKey = "removeParking"
	CostGreenUnit     CostKey = "greenUnit"
	CostSharedCar     CostKey = "sharedCar"
	CostBikeUnit      CostKey = "bikeUnit"
	CostPublicSpace   CostKey = "publicSpace"
)

// costSliders is the fixed mapping from a cost key to the slider it prices.
var costSliders = map[CostKey]SliderKey{
	CostRemoveParking: SliderRemovedParkingSpots,
	CostGreenUnit:     SliderAddedGreenUnits,
	CostSharedCar:     SliderAddedSharedCars,
	CostBikeUnit:      SliderAddedBikeUnits,
	CostPublicSpace:   SliderAddedPublicSpace,
}

// SliderKey returns the slider dimension priced by k.
func (k CostKey) SliderKey() (SliderKey, bool) {
	s, ok := costSliders[k]
	return s, ok
}

// Valid reports whether k is one of the enumerated cost keys.
func (k CostKey) Valid() bool {
	_, ok := costSliders[k]
	return ok
}
