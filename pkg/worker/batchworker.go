package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/attribution"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/notify"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/parser"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/promptbuilder"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/timeutil"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/tracing"
)

// errBackoff is how long the worker waits after a tick returns an error,
// per §4.8's scheduling rule: errors must not kill the worker.
const errBackoff = 60 * time.Second

// traceName names the root span per §4.8 step 3.
const traceName = "Batch Monitoring"

// Worker runs the batch pipeline for a single tenant on a goroutine of its
// own, per §5's one-task-per-tenant concurrency model.
type Worker struct {
	cfg     Config
	metrics metricsSource
	llm     analyser
	store   repository
	tracer  *tracing.Tracer
	webhook channelNotifier
	email   channelNotifier

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.RWMutex
	status    string
	ticksDone int
	lastTick  time.Time
	lastState TickState
}

// New builds a worker for one tenant. webhook/email may be nil-valued
// interfaces (see notify's nil-safe notifier pattern) when that channel is
// unconfigured.
func New(cfg Config, metrics metricsSource, llm analyser, st repository, tracer *tracing.Tracer, webhook, email channelNotifier) *Worker {
	return &Worker{
		cfg:     cfg,
		metrics: metrics,
		llm:     llm,
		store:   st,
		tracer:  tracer,
		webhook: webhook,
		email:   email,
		stopCh:  make(chan struct{}),
		status:  "idle",
	}
}

// Start launches the worker's run loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health reports the worker's current state.
func (w *Worker) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Health{
		UserID:    w.cfg.UserID,
		Status:    w.status,
		TicksDone: w.ticksDone,
		LastTick:  w.lastTick,
		LastState: w.lastState,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("user_id", w.cfg.UserID)
	log.Info("batch worker started")

	for {
		next := timeutil.NextBucketStart(time.Now(), w.cfg.IntervalMinutes, w.cfg.Location)
		if !w.sleepUntil(ctx, next) {
			log.Info("batch worker shutting down")
			return
		}

		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		state, err := w.tick(ctx)
		w.recordTick(state)
		if err != nil {
			log.Error("tick failed", "error", err, "state", state.String())
			if !w.sleepUntil(ctx, time.Now().Add(errBackoff)) {
				return
			}
		}
	}
}

// sleepUntil waits until t or until stop/ctx cancellation, returning false
// if interrupted.
func (w *Worker) sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) recordTick(state TickState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastState = state
	w.lastTick = time.Now()
	if state == StateDone {
		w.ticksDone++
	}
}

// tick runs one full pass of the §4.8 state machine.
func (w *Worker) tick(ctx context.Context) (TickState, error) {
	// 1. Align.
	window := timeutil.NewWindow(time.Now(), w.cfg.IntervalMinutes, w.cfg.Location)
	sessionID := timeutil.SessionID(window, "batch", w.cfg.UserID)

	// 2. Guard.
	processed, err := w.store.IsProcessed(ctx, w.cfg.UserID, window.StartString(), window.EndString())
	if err != nil {
		return StateFail, fmt.Errorf("check ledger: %w", err)
	}
	if processed {
		return StateSkip, nil
	}

	// 3. Open trace.
	spanCtx, span := w.tracer.StartSpan(ctx, traceName, map[string]string{
		"user_id":    w.cfg.UserID,
		"session_id": sessionID,
	})
	defer span.End()

	// 4. Fetch.
	samples := w.metrics.FetchForTenant(spanCtx, w.cfg.UserID)
	if len(samples) == 0 {
		return StateEmpty, nil
	}

	// 5. Prompt.
	prompt := promptbuilder.Build(window, samples, w.cfg.MaxMetricsPerBatch)

	// 6. Analyse.
	result := w.llm.Analyse(spanCtx, sessionID, w.cfg.Model, prompt)
	if !result.Ok() {
		span.RecordError(fmt.Errorf("llm analysis unavailable: kind=%d", result.Kind))
		return StateFail, nil
	}

	analysis := parser.ParseAnalysis(result.Text)
	if analysis.IsEmpty() {
		return StateFail, nil
	}

	// 7. Attribute.
	primaryInstance := pickPrimaryInstance(analysis, samples)
	for i := range analysis.Anomalies {
		if !attribution.LooksLikeInstance(analysis.Anomalies[i].Instance) {
			analysis.Anomalies[i].Instance = primaryInstance
		}
	}
	primaryHost, primaryPort := attribution.ParseInstance(primaryInstance)

	// 8. Persist.
	incidentID, err := w.persist(ctx, window, sessionID, samples, analysis, result.Text, primaryInstance, primaryHost, primaryPort)
	if err != nil {
		return StateFail, fmt.Errorf("persist: %w", err)
	}

	// 9. Notify.
	w.dispatchNotifications(ctx, analysis, window)

	// 10. Mark.
	if err := w.store.UpsertLedger(ctx, w.cfg.UserID, window.StartString(), window.EndString(), sessionID, incidentID); err != nil {
		if errors.Is(err, store.ErrLedgerConflict) {
			// A concurrent writer already claimed this window; per §5 the
			// later insert loses and this tick counts as a Skip, not a Fail.
			return StateSkip, nil
		}
		return StateFail, fmt.Errorf("mark ledger: %w", err)
	}

	// 11. Close trace: handled by the deferred span.End() above.
	return StateDone, nil
}

// pickPrimaryInstance applies §4.5 in the order the analysis's own
// anomalies, then its evidence, then the raw metric samples.
func pickPrimaryInstance(analysis parser.Analysis, samples []promsource.Sample) string {
	anomalyInstances := make([]string, 0, len(analysis.Anomalies))
	for _, a := range analysis.Anomalies {
		anomalyInstances = append(anomalyInstances, a.Instance)
	}

	evidenceInstances := make([]string, 0, len(analysis.Incident.Evidence))
	for _, e := range analysis.Incident.Evidence {
		evidenceInstances = append(evidenceInstances, e.Instance)
	}

	metricInstances := make([]string, 0, len(samples))
	for _, s := range samples {
		metricInstances = append(metricInstances, s.Instance)
	}

	return attribution.PickPrimary(anomalyInstances, evidenceInstances, metricInstances)
}

// persist writes the batch, incident, anomalies, and RCA copy in the
// order §4.6 requires. A metrics-batch or incident failure aborts the
// tick; anomaly/RCA failures are logged but do not block marking the
// window processed.
func (w *Worker) persist(
	ctx context.Context,
	window timeutil.Window,
	sessionID string,
	samples []promsource.Sample,
	analysis parser.Analysis,
	rawText string,
	primaryInstance, primaryHost, primaryPort string,
) (int64, error) {
	storeSamples := make([]store.Sample, 0, len(samples))
	for _, s := range samples {
		storeSamples = append(storeSamples, store.Sample{Name: s.Name, Value: s.Value, Instance: s.Instance})
	}

	batchID, err := w.store.InsertBatch(ctx, &store.MetricsBatch{
		UserID:          w.cfg.UserID,
		WindowStart:     window.Start,
		WindowEnd:       window.End,
		WindowStartStr:  window.StartString(),
		WindowEndStr:    window.EndString(),
		CollectedAt:     time.Now(),
		Metrics:         storeSamples,
		MetricsCount:    len(storeSamples),
		PrimaryInstance: primaryInstance,
		IP:              primaryHost,
		Port:            primaryPort,
		Source:          "prometheus",
		SessionID:       sessionID,
	})
	if err != nil {
		return 0, fmt.Errorf("insert metrics batch: %w", err)
	}

	evidence := make([]store.Evidence, 0, len(analysis.Incident.Evidence))
	for _, e := range analysis.Incident.Evidence {
		evidence = append(evidence, store.Evidence{
			Metric: e.Metric, Instance: e.Instance, Value: e.Value, WhyItMatters: e.WhyItMatters,
		})
	}
	clusters := make([]store.Cluster, 0, len(analysis.Clusters))
	for _, c := range analysis.Clusters {
		clusters = append(clusters, store.Cluster{Name: c.Name, Theme: c.Theme, AnomalyIndexes: c.AnomalyIndexes})
	}

	incidentID, err := w.store.InsertIncident(ctx, &store.Incident{
		UserID:              w.cfg.UserID,
		BatchID:             batchID,
		WindowStart:         window.Start,
		WindowEnd:           window.End,
		WindowStartStr:      window.StartString(),
		WindowEndStr:        window.EndString(),
		Title:               analysis.Incident.Title,
		Severity:            analysis.Incident.Severity,
		Confidence:          analysis.Incident.Confidence,
		Summary:             analysis.Incident.Summary,
		RootCause:           analysis.Incident.RootCause,
		ContributingFactors: analysis.Incident.ContributingFactors,
		BlastRadius:         analysis.Incident.BlastRadius,
		Evidence:            evidence,
		FixPlan: store.FixPlan{
			Immediate:  analysis.Incident.FixPlan.Immediate,
			Next24h:    analysis.Incident.FixPlan.Next24h,
			Prevention: analysis.Incident.FixPlan.Prevention,
		},
		Clusters:        clusters,
		RawAnalysis:     parser.Parse(rawText),
		PrimaryInstance: primaryInstance,
		IP:              primaryHost,
		Port:            primaryPort,
		SessionID:       sessionID,
	})
	if err != nil {
		return 0, fmt.Errorf("insert incident: %w", err)
	}

	anomalies := make([]store.Anomaly, 0, len(analysis.Anomalies))
	for _, a := range analysis.Anomalies {
		host, port := attribution.ParseInstance(a.Instance)
		anomalies = append(anomalies, store.Anomaly{
			UserID:         w.cfg.UserID,
			BatchID:        batchID,
			IncidentID:     incidentID,
			Metric:         a.Metric,
			Instance:       a.Instance,
			IP:             host,
			Port:           port,
			Observed:       a.Observed,
			Expected:       a.Expected,
			Symptom:        a.Symptom,
			Cluster:        a.Cluster,
			Severity:       "medium",
			WindowStartStr: window.StartString(),
			WindowEndStr:   window.EndString(),
			SessionID:      sessionID,
		})
	}
	if err := w.store.InsertAnomalies(ctx, anomalies); err != nil {
		slog.Error("insert anomalies failed, window still marked processed", "user_id", w.cfg.UserID, "error", err)
	}

	if err := w.store.InsertRCA(ctx, &store.RCARecord{
		UserID:     w.cfg.UserID,
		BatchID:    batchID,
		IncidentID: incidentID,
		Summary:    analysis.Incident.Summary,
		Cause:      analysis.Incident.RootCause,
		Fix:        analysis.Incident.FixPlan.Immediate,
		Raw:        map[string]any{"incident": analysis.Incident},
		Instance:   primaryInstance,
		IP:         primaryHost,
		Port:       primaryPort,
	}); err != nil {
		slog.Error("insert rca record failed, window still marked processed", "user_id", w.cfg.UserID, "error", err)
	}

	return incidentID, nil
}

// dispatchNotifications sends the incident summary over every channel the
// tenant has enabled, per §4.8 step 9. Delivery failures are logged by the
// notifiers themselves and never abort the tick. A lookup failure falls
// back to sending on every configured channel rather than silently
// dropping the notification.
func (w *Worker) dispatchNotifications(ctx context.Context, analysis parser.Analysis, window timeutil.Window) {
	inc := notify.Incident{
		Title:       analysis.Incident.Title,
		Severity:    analysis.Incident.Severity,
		Confidence:  analysis.Incident.Confidence,
		Summary:     analysis.Incident.Summary,
		RootCause:   analysis.Incident.RootCause,
		BlastRadius: analysis.Incident.BlastRadius,
		WindowStart: window.StartString(),
		WindowEnd:   window.EndString(),
		UserID:      w.cfg.UserID,
	}

	chatEnabled, emailEnabled := true, true
	configs, err := w.store.NotificationConfigsForTenant(ctx, w.cfg.UserID)
	if err != nil {
		slog.Warn("notification config lookup failed, sending on all channels", "user_id", w.cfg.UserID, "error", err)
	} else {
		chatEnabled, emailEnabled = false, false
		for _, c := range configs {
			switch c.Channel {
			case store.ChannelChat:
				chatEnabled = true
			case store.ChannelEmail:
				emailEnabled = true
			}
		}
	}

	if chatEnabled {
		if res := w.webhook.Send(inc); !res.Ok() {
			slog.Warn("chat notification failed", "user_id", w.cfg.UserID, "error", res.Err)
		}
	}
	if emailEnabled {
		if res := w.email.Send(inc); !res.Ok() {
			slog.Warn("email notification failed", "user_id", w.cfg.UserID, "error", res.Err)
		}
	}
}
