package domain

import "time"

// TrackingSnapshot is the decoded result of a single fetch of a tracking
// endpoint. Location is nil when no driver has been assigned yet.
type TrackingSnapshot struct {
	Location *LocationRecord
	Tasks    []TaskRecord
}

// Outcome classifies a single poll cycle.
type Outcome string

const (
	// OutcomeLocated means the endpoint returned a driver location.
	OutcomeLocated Outcome = "located"
	// OutcomeUnavailable means the fetch succeeded but no location is assigned yet.
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeFailed means the fetch itself failed (network, HTTP status, parse).
	OutcomeFailed Outcome = "failed"
)

// Observation is what the poller reports after every poll cycle.
type Observation struct {
	SessionID   string          `json:"session_id" bson:"session_id" msgpack:"session_id"`
	OrderNumber string          `json:"order_number" bson:"order_number" msgpack:"order_number"`
	Endpoint    string          `json:"endpoint" bson:"endpoint" msgpack:"endpoint"`
	Sequence    int             `json:"sequence" bson:"sequence" msgpack:"sequence"`
	ObservedAt  time.Time       `json:"observed_at" bson:"observed_at" msgpack:"observed_at"`
	FetchTime   time.Duration   `json:"fetch_time" bson:"fetch_time" msgpack:"fetch_time"`
	Outcome     Outcome         `json:"outcome" bson:"outcome" msgpack:"outcome"`
	Location    *LocationRecord `json:"location,omitempty" bson:"location,omitempty" msgpack:"location,omitempty"`
	Movement    *Movement       `json:"movement,omitempty" bson:"movement,omitempty" msgpack:"movement,omitempty"` // nil without a previous record
	Tasks       []TaskRecord    `json:"tasks,omitempty" bson:"tasks,omitempty" msgpack:"tasks,omitempty"`
	Err         error           `json:"-" bson:"-" msgpack:"-"`
	Error       string          `json:"error,omitempty" bson:"error,omitempty" msgpack:"error,omitempty"`
}
