// Package promptbuilder constructs the collective-RCA prompt sent to the
// LLM gateway, per §4.8 step 5.
package promptbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/timeutil"
)

// MaxSamplesPerInstance caps how many samples from a single instance are
// included in the prompt, regardless of the total cap.
const MaxSamplesPerInstance = 200

// DefaultMaxTotalSamples is the default overall sample cap across all
// instances in one prompt.
const DefaultMaxTotalSamples = 600

// analysisSchemaTemplate is the literal JSON schema template the model must
// fill in and return verbatim in shape, per §6.
const analysisSchemaTemplate = `{
  "incident": { "title": str, "severity": "low|medium|high|critical",
                "confidence": float, "summary": str, "root_cause": str,
                "contributing_factors": [str], "blast_radius": str,
                "evidence": [{"metric": str, "instance": str, "value": num, "why_it_matters": str}],
                "fix_plan": {"immediate": [str], "next_24h": [str], "prevention": [str]} },
  "anomalies": [{"metric": str, "instance": str, "observed": num, "expected": str, "symptom": str, "cluster": str}],
  "clusters": [{"name": str, "theme": str, "anomaly_indexes": [int]}]
}`

// Build groups samples by instance (lexicographic instance order, samples
// sorted by name within an instance), caps at MaxSamplesPerInstance per
// instance and maxTotal overall, and emits the structured prompt: role
// instruction, civil-time window, task list, selected metric lines, and the
// literal JSON schema template. The model is instructed to return a single
// JSON object and no markdown.
func Build(window timeutil.Window, samples []promsource.Sample, maxTotal int) string {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotalSamples
	}

	byInstance := make(map[string][]promsource.Sample)
	for _, s := range samples {
		byInstance[s.Instance] = append(byInstance[s.Instance], s)
	}

	instances := make([]string, 0, len(byInstance))
	for inst := range byInstance {
		instances = append(instances, inst)
	}
	sort.Strings(instances)

	var lines []string
	remaining := maxTotal
	for _, inst := range instances {
		group := byInstance[inst]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		limit := MaxSamplesPerInstance
		if limit > len(group) {
			limit = len(group)
		}
		if limit > remaining {
			limit = remaining
		}
		if limit <= 0 {
			break
		}

		for _, s := range group[:limit] {
			lines = append(lines, fmt.Sprintf("[%s] %s = %v", inst, s.Name, s.Value))
		}
		remaining -= limit
	}

	var b strings.Builder
	b.WriteString("You are an experienced SRE analyst reviewing a batch of infrastructure metrics.\n\n")
	fmt.Fprintf(&b, "Window: %s to %s\n\n", window.StartString(), window.EndString())
	b.WriteString("Tasks:\n")
	b.WriteString("1. Detect anomalies across the metrics below.\n")
	b.WriteString("2. Cluster related anomalies by theme.\n")
	b.WriteString("3. Produce a single collective root-cause analysis for the whole batch, not one per anomaly.\n")
	b.WriteString("4. Return your answer as JSON only — no markdown, no commentary outside the JSON object.\n\n")
	b.WriteString("Metrics:\n")
	if len(lines) == 0 {
		b.WriteString("(no samples)\n")
	} else {
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nRespond with exactly one JSON object matching this schema:\n")
	b.WriteString(analysisSchemaTemplate)
	b.WriteByte('\n')

	return b.String()
}
