package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/pkg/jsonx"
)

// trackingPayload is the body of GET /order-details/tracking/{a}/{b}.
// Both keys are optional.
type trackingPayload struct {
	AgentLocation json.RawMessage `json:"agent_location"`
	Tasks         []taskPayload   `json:"tasks"`
}

type agentLocationPayload struct {
	Lat          *jsonx.Scalar `json:"lat"`
	Long         *jsonx.Scalar `json:"long"`
	UpdatedAt    string        `json:"updated_at"`
	BatteryLevel *jsonx.Scalar `json:"battery_level"`
	DeviceType   string        `json:"device_type"`
	IsActive     *jsonx.Scalar `json:"is_active"`
}

type taskPayload struct {
	TaskTypeID jsonx.Scalar `json:"task_type_id"`
	TaskStatus jsonx.Scalar `json:"task_status"`
	Address    string       `json:"address"`
}

var errLatLongRequired = errors.New("lat and long are required")

var updatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseUpdatedAt(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range updatedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("updated_at: unrecognised time %q", v)
}

// decodeTracking converts a raw body into a snapshot. Any shape mismatch is
// returned as an error; the caller wraps it in a ParseError.
func decodeTracking(body []byte) (*domain.TrackingSnapshot, error) {
	var p trackingPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	loc, err := decodeAgentLocation(p.AgentLocation)
	if err != nil {
		return nil, fmt.Errorf("agent_location: %w", err)
	}

	tasks := make([]domain.TaskRecord, 0, len(p.Tasks))
	for i, t := range p.Tasks {
		typeID, err := t.TaskTypeID.Int()
		if err != nil {
			return nil, fmt.Errorf("tasks[%d].task_type_id: %w", i, err)
		}
		tasks = append(tasks, domain.TaskRecord{
			Kind:    domain.TaskKindFromTypeID(typeID),
			Status:  domain.TaskStatusFromCode(t.TaskStatus.String()),
			Address: t.Address,
		})
	}

	return &domain.TrackingSnapshot{Location: loc, Tasks: tasks}, nil
}

// emptyAgentLocations are the encodings of "no driver assigned". The API
// serialises an empty map as [] and sometimes sends false or "".
var emptyAgentLocations = [][]byte{
	[]byte("null"),
	[]byte("[]"),
	[]byte("false"),
	[]byte(`""`),
}

// decodeAgentLocation returns nil for a missing key, an empty object or any
// of emptyAgentLocations.
func decodeAgentLocation(raw json.RawMessage) (*domain.LocationRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	compact := bytes.Join(bytes.Fields(trimmed), nil)
	for _, empty := range emptyAgentLocations {
		if bytes.Equal(compact, empty) {
			return nil, nil
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var a agentLocationPayload
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, err
	}
	if a.Lat == nil || a.Long == nil || *a.Lat == "" || *a.Long == "" {
		return nil, errLatLongRequired
	}
	lat, err := a.Lat.Float()
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lng, err := a.Long.Float()
	if err != nil {
		return nil, fmt.Errorf("long: %w", err)
	}
	updated, err := parseUpdatedAt(a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec := &domain.LocationRecord{
		Coordinates: domain.Coordinates{Lat: lat, Lng: lng},
		UpdatedAt:   updated,
		DeviceType:  a.DeviceType,
	}
	if a.IsActive != nil {
		rec.Active = a.IsActive.Bool()
	}
	if a.BatteryLevel != nil && *a.BatteryLevel != "" {
		level, err := a.BatteryLevel.Int()
		if err != nil {
			return nil, fmt.Errorf("battery_level: %w", err)
		}
		if level < 0 || level > 100 {
			return nil, fmt.Errorf("battery_level: %d out of range", level)
		}
		rec.BatteryLevel = &level
	}
	return rec, nil
}
