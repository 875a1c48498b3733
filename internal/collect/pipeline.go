// Package collect orchestrates one collection run: refresh every
// athlete's token, fetch their activities for the tracking window, and
// replace the stats snapshot.
package collect

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strava-challenge/internal/metrics"
	"strava-challenge/internal/stats"
	"strava-challenge/internal/store"
	"strava-challenge/internal/strava"
)

// ErrRunInProgress is returned when a run is triggered while another is
// still active. Triggers are rejected, never queued.
var ErrRunInProgress = errors.New("collection run already in progress")

// TokenRefresher yields a valid access token for a credential, rotating
// it in place when expired.
type TokenRefresher interface {
	EnsureValid(ctx context.Context, cred *store.Credential) (accessToken string, refreshed bool, err error)
}

// ActivityFetcher retrieves an athlete's complete activity list for an
// inclusive date window.
type ActivityFetcher interface {
	FetchAll(ctx context.Context, accessToken string, start, end time.Time) ([]strava.Activity, error)
}

// CredentialStore is the slice of the store the pipeline needs.
type CredentialStore interface {
	ReadAll(ctx context.Context) (map[int64]*store.Credential, error)
	WriteAll(ctx context.Context, creds map[int64]*store.Credential) error
	Remove(ctx context.Context, athleteID int64) error
	SaveSnapshot(ctx context.Context, snap *stats.Snapshot) error
}

// Failure records one athlete's failed step within a run
type Failure struct {
	AthleteID   int64
	DisplayName string
	Stage       string // "refresh" or "fetch"
	Err         error
}

// RunReport summarizes a completed collection run
type RunReport struct {
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Athletes  int
	Succeeded int
	Failures  []Failure
}

// Collector runs the collection pipeline. At most one run is active at a
// time; administrative removal shares the same lock.
type Collector struct {
	store     CredentialStore
	refresher TokenRefresher
	fetcher   ActivityFetcher
	period    stats.Period
	workers   int
	clock     clockwork.Clock
	logger    *zap.Logger

	mu sync.Mutex // run-level lock
}

// New creates a Collector.
func New(st CredentialStore, refresher TokenRefresher, fetcher ActivityFetcher, period stats.Period, workers int, clock clockwork.Clock, logger *zap.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		store:     st,
		refresher: refresher,
		fetcher:   fetcher,
		period:    period,
		workers:   workers,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes one collection pass. Per-athlete failures are isolated and
// reported; only store-level failures abort the run. The credential set is
// written exactly once after all athletes finish, and the stats snapshot
// is replaced wholesale.
func (c *Collector) Run(ctx context.Context) (*RunReport, error) {
	if !c.mu.TryLock() {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrRunInProgress
	}
	defer c.mu.Unlock()

	started := time.Now()
	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: started,
	}
	logger := c.logger.With(zap.String("run_id", report.RunID))
	logger.Info("collection run starting")

	creds, err := c.store.ReadAll(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	report.Athletes = len(creds)

	// Process athletes in id order so tie-breaking in the snapshot is
	// reproducible run to run
	ids := make([]int64, 0, len(creds))
	for id := range creds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, id := range ids {
		i := i
		cred := creds[id]
		g.Go(func() error {
			outcomes[i] = c.processAthlete(gctx, logger, cred)
			return nil
		})
	}
	// Worker funcs never return errors; failures are per-athlete outcomes
	_ = g.Wait()

	// Join refreshed credentials into one write; per-athlete writes would
	// race the wholesale replacement semantics of WriteAll
	if err := c.store.WriteAll(ctx, creds); err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	breakdowns := make([]stats.AthleteBreakdown, 0, len(ids))
	for _, o := range outcomes {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			metrics.AthleteFailuresTotal.WithLabelValues(o.failure.Stage).Inc()
			continue
		}
		breakdowns = append(breakdowns, o.breakdown)
	}
	report.Succeeded = len(breakdowns)

	snap := stats.Combine(breakdowns, c.period, c.clock.Now())
	if err := c.store.SaveSnapshot(ctx, snap); err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	report.Duration = time.Since(started)
	metrics.RunDuration.Observe(report.Duration.Seconds())
	metrics.SnapshotDistanceKm.Set(snap.TotalDistanceKm)
	metrics.SnapshotAthletes.Set(float64(snap.AthleteCount))

	switch {
	case report.Athletes > 0 && report.Succeeded == 0:
		metrics.RunsTotal.WithLabelValues("partial").Inc()
		logger.Warn("no data collected this run, every athlete failed",
			zap.Int("athletes", report.Athletes))
	case len(report.Failures) > 0:
		metrics.RunsTotal.WithLabelValues("partial").Inc()
		logger.Warn("collection run completed with failures",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", len(report.Failures)))
	default:
		metrics.RunsTotal.WithLabelValues("success").Inc()
		logger.Info("collection run completed",
			zap.Int("athletes", report.Athletes),
			zap.Float64("total_km", snap.TotalDistanceKm),
			zap.Duration("duration", report.Duration))
	}

	return report, nil
}

// outcome is one athlete's result within a run: a breakdown or a failure
type outcome struct {
	breakdown stats.AthleteBreakdown
	failure   *Failure
}

// processAthlete runs one athlete's refresh-fetch-aggregate sequence. A
// failure at any step isolates this athlete and leaves the rest of the
// run untouched.
func (c *Collector) processAthlete(ctx context.Context, logger *zap.Logger, cred *store.Credential) (o outcome) {
	log := logger.With(zap.Int64("athlete_id", cred.AthleteID))

	token, refreshed, err := c.refresher.EnsureValid(ctx, cred)
	if err != nil {
		log.Warn("token refresh failed", zap.Error(err))
		o.failure = &Failure{AthleteID: cred.AthleteID, DisplayName: cred.DisplayName, Stage: "refresh", Err: err}
		return o
	}
	if refreshed {
		metrics.TokenRefreshesTotal.Inc()
		log.Debug("access token refreshed", zap.Time("expires_at", cred.ExpiresAt))
	}

	activities, err := c.fetcher.FetchAll(ctx, token, c.period.Start, c.period.End)
	if err != nil {
		log.Warn("activity fetch failed", zap.Error(err))
		o.failure = &Failure{AthleteID: cred.AthleteID, DisplayName: cred.DisplayName, Stage: "fetch", Err: err}
		return o
	}

	counted := make([]stats.Activity, len(activities))
	for i, a := range activities {
		counted[i] = stats.Activity{DistanceMeters: a.Distance, Type: a.Category()}
	}

	o.breakdown = stats.Breakdown(cred.DisplayName, counted)
	log.Debug("athlete collected",
		zap.Int("activities", o.breakdown.ActivityCount),
		zap.Float64("total_km", o.breakdown.TotalDistanceKm))
	return o
}

// RemoveAthlete deletes an athlete's credential. It takes the same lock
// as Run, so a removal cannot interleave with an in-flight run; callers
// get ErrRunInProgress instead and retry after the run finishes.
func (c *Collector) RemoveAthlete(ctx context.Context, athleteID int64) error {
	if !c.mu.TryLock() {
		return ErrRunInProgress
	}
	defer c.mu.Unlock()
	return c.store.Remove(ctx, athleteID)
}
