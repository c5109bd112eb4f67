package domain

// Lead is a single preprocessed lead ready for scoring. Features are the
// output of the upstream feature transformer; the engine treats them as an
// opaque numeric vector.
type Lead struct {
	LeadID   string    `json:"lead_id"`
	Features []float64 `json:"features"`
}

// LeadBatch is an ordered batch of leads scored by one model version.
type LeadBatch []Lead

// Validate rejects batches the orchestrator cannot attribute or score.
func (b LeadBatch) Validate() error {
	if len(b) == 0 {
		return ErrEmptyBatch
	}
	for _, lead := range b {
		if lead.LeadID == "" {
			return ErrInvalidLeadID
		}
	}
	return nil
}
