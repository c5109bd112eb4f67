package domain

// Allocation algorithms
const (
	AlgorithmSingleModel      = "single_model"
	AlgorithmThompsonSampling = "optimized_thompson_sampling"
)

// Allocation reasons explain which code path produced the result.
const (
	ReasonNoActiveModels    = "no_active_models"
	ReasonSingleActiveModel = "single_active_model"
	ReasonThompsonSampling  = "thompson_sampling"
)

// AllocationResult is a traffic split over active model versions. Weights
// are in [0,1] and sum to 1 across the map's entries; metadata lives in
// dedicated fields rather than sentinel keys inside the weight map.
type AllocationResult struct {
	Weights   map[string]float64 `json:"weights"`
	Algorithm string             `json:"algorithm"`
	Winner    string             `json:"winner,omitempty"`
	Reason    string             `json:"reason"`
}

// Empty reports whether no model received any allocation.
func (a AllocationResult) Empty() bool {
	return len(a.Weights) == 0
}
