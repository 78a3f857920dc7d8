// Package parser extracts the LLM's analysis JSON object out of free-form
// response text and coerces it into the analysis schema, per §4.4.
package parser

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the substring from the first "{" to the last "}"
// inclusive. Returns "" if no brace pair exists.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

// Parse extracts the first balanced JSON object from text and unmarshals it
// into a map. On any failure (no braces, invalid JSON) it returns an empty,
// non-nil map — callers treat the result as best-effort.
func Parse(text string) map[string]any {
	raw := ExtractJSON(text)
	if raw == "" {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&m); err != nil {
		return map[string]any{}
	}
	return m
}

// Evidence is one supporting data point behind an incident.
type Evidence struct {
	Metric       string  `json:"metric"`
	Instance     string  `json:"instance"`
	Value        float64 `json:"value"`
	WhyItMatters string  `json:"why_it_matters"`
}

// FixPlan groups remediation steps by urgency.
type FixPlan struct {
	Immediate  []string `json:"immediate"`
	Next24h    []string `json:"next_24h"`
	Prevention []string `json:"prevention"`
}

// Incident is the collective-RCA portion of the analysis schema.
type Incident struct {
	Title               string     `json:"title"`
	Severity            string     `json:"severity"`
	Confidence          float64    `json:"confidence"`
	Summary             string     `json:"summary"`
	RootCause           string     `json:"root_cause"`
	ContributingFactors []string   `json:"contributing_factors"`
	BlastRadius         string     `json:"blast_radius"`
	Evidence            []Evidence `json:"evidence"`
	FixPlan             FixPlan    `json:"fix_plan"`
}

// AnomalyEntry is one per-metric anomaly reported by the LLM.
type AnomalyEntry struct {
	Metric   string  `json:"metric"`
	Instance string  `json:"instance"`
	Observed float64 `json:"observed"`
	Expected string  `json:"expected"`
	Symptom  string  `json:"symptom"`
	Cluster  string  `json:"cluster"`
}

// Cluster groups related anomaly indexes under a named theme.
type Cluster struct {
	Name           string `json:"name"`
	Theme          string `json:"theme"`
	AnomalyIndexes []int  `json:"anomaly_indexes"`
}

// Analysis is the fully-defaulted, typed form of the LLM's response,
// matching the schema imposed in §6.
type Analysis struct {
	Incident  Incident       `json:"incident"`
	Anomalies []AnomalyEntry `json:"anomalies"`
	Clusters  []Cluster      `json:"clusters"`
}

// defaultSeverity is substituted when the LLM omits severity entirely.
const defaultSeverity = "low"

// ParseAnalysis parses text into a fully-defaulted Analysis. Missing fields
// take their schema default (empty string, empty list, severity "low",
// confidence 0) rather than causing an error — the caller's only signal of
// total failure is an Analysis with an empty Incident.Title, an empty
// Incident.Summary and no anomalies (see IsEmpty), which the worker treats
// as §4.8 state Fail.
func ParseAnalysis(text string) Analysis {
	raw := Parse(text)
	if len(raw) == 0 {
		return Analysis{Incident: Incident{Severity: defaultSeverity}}
	}

	reencoded, err := json.Marshal(raw)
	if err != nil {
		return Analysis{Incident: Incident{Severity: defaultSeverity}}
	}

	var a Analysis
	if err := json.Unmarshal(reencoded, &a); err != nil {
		return Analysis{Incident: Incident{Severity: defaultSeverity}}
	}

	if a.Incident.Severity == "" {
		a.Incident.Severity = defaultSeverity
	}
	if a.Anomalies == nil {
		a.Anomalies = []AnomalyEntry{}
	}
	if a.Clusters == nil {
		a.Clusters = []Cluster{}
	}
	if a.Incident.Evidence == nil {
		a.Incident.Evidence = []Evidence{}
	}
	if a.Incident.ContributingFactors == nil {
		a.Incident.ContributingFactors = []string{}
	}

	return a
}

// IsEmpty reports whether the analysis carries no usable content — the
// worker's §4.8 step 6 "result empty ⇒ Fail" check.
func (a Analysis) IsEmpty() bool {
	return a.Incident.Title == "" && a.Incident.Summary == "" && len(a.Anomalies) == 0
}
