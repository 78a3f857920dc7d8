// Package store is the PostgreSQL persistence layer, a relational
// realization of §3's append-only/upsert document model: one table per
// collection, jsonb columns for the free-form fields, hand-written SQL in
// place of the teacher's entgo.io/ent ORM (see DESIGN.md).
package store

import "time"

// Target is a monitored endpoint, unique per (user_id, endpoint).
type Target struct {
	ID        int64             `db:"id"`
	UserID    string            `db:"user_id"`
	Name      string            `db:"name"`
	Endpoint  string            `db:"endpoint"`
	Labels    map[string]string `db:"-"`
	Enabled   bool              `db:"enabled"`
	CreatedAt time.Time         `db:"created_at"`
}

// Sample is a single metric reading captured in one batch.
type Sample struct {
	Name     string `json:"name"`
	Value    any    `json:"value"`
	Instance string `json:"instance"`
}

// MetricsBatch is one tenant's metric snapshot for a window.
type MetricsBatch struct {
	ID              int64     `db:"id"`
	UserID          string    `db:"user_id"`
	WindowStart     time.Time `db:"window_start"`
	WindowEnd       time.Time `db:"window_end"`
	WindowStartStr  string    `db:"window_start_str"`
	WindowEndStr    string    `db:"window_end_str"`
	CollectedAt     time.Time `db:"collected_at"`
	Metrics         []Sample  `db:"-"`
	MetricsCount    int       `db:"metrics_count"`
	PrimaryInstance string    `db:"primary_instance"`
	IP              string    `db:"ip"`
	Port            string    `db:"port"`
	Source          string    `db:"source"`
	SessionID       string    `db:"session_id"`
}

// Evidence is one supporting data point behind an incident's root cause.
type Evidence struct {
	Metric       string  `json:"metric"`
	Instance     string  `json:"instance"`
	Value        float64 `json:"value"`
	WhyItMatters string  `json:"why_it_matters"`
}

// FixPlan is the incident's recommended remediation, split by horizon.
type FixPlan struct {
	Immediate  []string `json:"immediate"`
	Next24h    []string `json:"next_24h"`
	Prevention []string `json:"prevention"`
}

// Cluster groups related anomalies under a common theme.
type Cluster struct {
	Name           string `json:"name"`
	Theme          string `json:"theme"`
	AnomalyIndexes []int  `json:"anomaly_indexes"`
}

// Incident is the single collective root-cause analysis produced for a
// batch, per §4.8 step 6.
type Incident struct {
	ID                  int64      `db:"id"`
	UserID              string     `db:"user_id"`
	BatchID             int64      `db:"batch_id"`
	WindowStart         time.Time  `db:"window_start"`
	WindowEnd           time.Time  `db:"window_end"`
	WindowStartStr      string     `db:"window_start_str"`
	WindowEndStr        string     `db:"window_end_str"`
	CreatedAt           time.Time  `db:"created_at"`
	Title               string     `db:"title"`
	Severity            string     `db:"severity"`
	Confidence          float64    `db:"confidence"`
	Summary             string     `db:"summary"`
	RootCause           string     `db:"root_cause"`
	ContributingFactors []string   `db:"-"`
	BlastRadius         string     `db:"blast_radius"`
	Evidence            []Evidence `db:"-"`
	FixPlan             FixPlan    `db:"-"`
	Clusters            []Cluster  `db:"-"`
	RawAnalysis         map[string]any `db:"-"`
	PrimaryInstance     string     `db:"primary_instance"`
	IP                  string     `db:"ip"`
	Port                string     `db:"port"`
	SessionID           string     `db:"session_id"`
}

// Anomaly is one detected deviation, attributed to an instance per §4.5.
type Anomaly struct {
	ID             int64     `db:"id"`
	UserID         string    `db:"user_id"`
	BatchID        int64     `db:"batch_id"`
	IncidentID     int64     `db:"incident_id"`
	Metric         string    `db:"metric"`
	Instance       string    `db:"instance"`
	IP             string    `db:"ip"`
	Port           string    `db:"port"`
	Observed       float64   `db:"observed"`
	Expected       string    `db:"expected"`
	Symptom        string    `db:"symptom"`
	Cluster        string    `db:"cluster"`
	Severity       string    `db:"severity"`
	CreatedAt      time.Time `db:"created_at"`
	WindowStartStr string    `db:"window_start_str"`
	WindowEndStr   string    `db:"window_end_str"`
	SessionID      string    `db:"session_id"`
}

// RCARecord is the convenience read-path copy of an incident's root cause,
// per §3.
type RCARecord struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	BatchID    int64     `db:"batch_id"`
	IncidentID int64     `db:"incident_id"`
	Timestamp  time.Time `db:"timestamp"`
	Summary    string    `db:"summary"`
	Cause      string    `db:"cause"`
	Fix        []string  `db:"-"`
	Raw        map[string]any `db:"-"`
	Instance   string    `db:"instance"`
	IP         string    `db:"ip"`
	Port       string    `db:"port"`
}

// NotificationChannel names a notification delivery method.
type NotificationChannel string

const (
	ChannelChat  NotificationChannel = "chat"
	ChannelEmail NotificationChannel = "email"
)

// NotificationConfig is a tenant's per-channel delivery configuration.
type NotificationConfig struct {
	UserID      string              `db:"user_id"`
	Channel     NotificationChannel `db:"channel"`
	Enabled     bool                `db:"enabled"`
	Destination string              `db:"destination"`
}
