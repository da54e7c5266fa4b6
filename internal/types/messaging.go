package types

import "time"

// EventTypeDesignSubmitted is the only event type emitted by the service.
const EventTypeDesignSubmitted = "design.submitted"

// DesignSubmittedEvent is the queue payload published after a design is stored.
// Consumers receive the sliders together with the metrics computed at
// submission time so they never need to re-run the simulation.
type DesignSubmittedEvent struct {
	Type      string       `json:"type"`
	ProjectID string       `json:"projectId"`
	DesignID  string       `json:"designId"`
	Sliders   SliderValues `json:"sliders"`
	Metrics   Metrics      `json:"metrics"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewDesignSubmittedEvent builds the event envelope for a stored design.
func NewDesignSubmittedEvent(d *Design) DesignSubmittedEvent {
	return DesignSubmittedEvent{
		Type:      EventTypeDesignSubmitted,
		ProjectID: d.ProjectID,
		DesignID:  d.ID,
		Sliders:   d.Sliders,
		Metrics:   d.Metrics,
		CreatedAt: d.CreatedAt,
	}
}
