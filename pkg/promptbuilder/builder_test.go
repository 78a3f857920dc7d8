package promptbuilder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/timeutil"
)

func testWindow(t *testing.T) timeutil.Window {
	t.Helper()
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)
	return timeutil.NewWindow(time.Date(2026, 7, 31, 10, 0, 0, 0, loc), 15, loc)
}

func TestBuildIncludesWindowAndSchema(t *testing.T) {
	out := Build(testWindow(t), nil, 0)

	assert.Contains(t, out, "Window:")
	assert.Contains(t, out, "JSON only")
	assert.Contains(t, out, `"incident"`)
	assert.Contains(t, out, "(no samples)")
}

func TestBuildGroupsByInstanceAndSortsByName(t *testing.T) {
	samples := []promsource.Sample{
		{Name: "cpu_usage", Value: 0.9, Instance: "host-b:9100"},
		{Name: "mem_usage", Value: 0.5, Instance: "host-a:9100"},
		{Name: "cpu_usage", Value: 0.1, Instance: "host-a:9100"},
	}

	out := Build(testWindow(t), samples, 0)

	aIdx := strings.Index(out, "[host-a:9100] cpu_usage")
	bIdx := strings.Index(out, "[host-a:9100] mem_usage")
	cIdx := strings.Index(out, "[host-b:9100] cpu_usage")
	require.NotEqual(t, -1, aIdx)
	require.NotEqual(t, -1, bIdx)
	require.NotEqual(t, -1, cIdx)
	assert.Less(t, aIdx, bIdx, "within an instance, samples sort by name")
	assert.Less(t, bIdx, cIdx, "instances appear in lexicographic order")
}

func TestBuildCapsSamplesPerInstance(t *testing.T) {
	samples := make([]promsource.Sample, 0, MaxSamplesPerInstance+50)
	for i := 0; i < MaxSamplesPerInstance+50; i++ {
		samples = append(samples, promsource.Sample{Name: "metric", Value: i, Instance: "host-a:9100"})
	}

	out := Build(testWindow(t), samples, DefaultMaxTotalSamples)

	assert.Equal(t, MaxSamplesPerInstance, strings.Count(out, "[host-a:9100]"))
}

func TestBuildCapsTotalSamplesAcrossInstances(t *testing.T) {
	samples := []promsource.Sample{}
	for i := 0; i < 10; i++ {
		samples = append(samples, promsource.Sample{Name: "metric", Value: i, Instance: "host-a:9100"})
		samples = append(samples, promsource.Sample{Name: "metric", Value: i, Instance: "host-b:9100"})
	}

	out := Build(testWindow(t), samples, 12)

	total := strings.Count(out, "[host-a:9100]") + strings.Count(out, "[host-b:9100]")
	assert.Equal(t, 12, total)
}

func TestBuildDefaultsMaxTotalWhenNonPositive(t *testing.T) {
	out := Build(testWindow(t), []promsource.Sample{{Name: "m", Value: 1, Instance: "host-a:9100"}}, -1)
	assert.Contains(t, out, "[host-a:9100] m")
}
