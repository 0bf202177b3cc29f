// Package runhistory persists one RunSummary per scheduler tick in an
// etcd-backed ordered store, keyed so that ascending key iteration yields
// the newest run first.
package runhistory

import "time"

// RunStatus mirrors enum.RunStatus; kept as a distinct string type since
// run history is a storage concern, not an evaluation one.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusPartial RunStatus = "partial"
	StatusError   RunStatus = "error"
)

// RunSummary is the terminal record of one scheduler tick.
type RunSummary struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMs      int64     `json:"durationMs"`
	ClientsChecked  int       `json:"clientsChecked"`
	EventsProcessed int       `json:"eventsProcessed"`
	AlertsGenerated int       `json:"alertsGenerated"`
	Status          RunStatus `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}
