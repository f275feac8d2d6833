// Package scanner maintains a periodically refreshed snapshot of the
// (owner, repo, branch) -> version triples visible on the upstream forge.
package scanner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/mrrpnya/pageshelf/internal/forge"
	"github.com/mrrpnya/pageshelf/internal/metrics"
	"github.com/mrrpnya/pageshelf/internal/page"
)

// DefaultTargetBranches is used when no target branches are configured.
var DefaultTargetBranches = []string{"pages"}

// DefaultPollInterval is used when no poll interval is configured.
const DefaultPollInterval = 240 * time.Second

// Snapshot is an immutable view of one completed scan cycle.
type Snapshot struct {
	repos map[page.Location]string
}

// NewSnapshot builds a Snapshot directly from entries, for tests and for
// fakes implementing SnapshotSource.
func NewSnapshot(entries map[page.Location]string) *Snapshot {
	return &Snapshot{repos: entries}
}

// Lookup returns the version recorded for loc, if any.
func (s *Snapshot) Lookup(loc page.Location) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.repos[loc]
	return v, ok
}

// Locations returns every location in the snapshot, in no particular order.
func (s *Snapshot) Locations() []page.Location {
	if s == nil {
		return nil
	}
	out := make([]page.Location, 0, len(s.repos))
	for loc := range s.repos {
		out = append(out, loc)
	}
	return out
}

func (s *Snapshot) Version(loc page.Location) (string, bool) {
	return s.Lookup(loc)
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.repos)
}

// Scanner owns a background task that repopulates its Snapshot on a fixed
// schedule. The zero value is not usable; construct with Start.
type Scanner struct {
	client         *forge.Client
	targetBranches []string
	pollInterval   time.Duration
	logger         *slog.Logger

	current  atomic.Pointer[Snapshot]
	sched    gocron.Scheduler
	job      gocron.Job
}

// Start constructs a Scanner and begins its background polling immediately.
// The first cycle fires one poll interval after this call returns, per the
// scanner's scheduling contract; subsequent cycles fire on a fixed rhythm,
// and an overrunning cycle delays (rather than doubles up) the next one.
func Start(client *forge.Client, targetBranches []string, pollInterval time.Duration, logger *slog.Logger) (*Scanner, error) {
	if len(targetBranches) == 0 {
		targetBranches = DefaultTargetBranches
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		client:         client,
		targetBranches: targetBranches,
		pollInterval:   pollInterval,
		logger:         logger,
		sched:          sched,
	}
	s.current.Store(&Snapshot{repos: map[page.Location]string{}})

	job, err := sched.NewJob(
		gocron.DurationJob(pollInterval),
		gocron.NewTask(func() { s.cycle(context.Background()) }),
		gocron.WithStartAt(gocron.WithStartDateTime(time.Now().Add(pollInterval))),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	s.job = job

	sched.Start()
	return s, nil
}

// Stop cancels the background task. Readers continue to observe the last
// published snapshot.
func (s *Scanner) Stop(ctx context.Context) error {
	return s.sched.Shutdown()
}

// Current returns the most recently published snapshot. Never nil.
func (s *Scanner) Current() *Snapshot {
	return s.current.Load()
}

// TargetBranches returns the configured set of branches the scanner
// enumerates; any branch outside this set is invisible to page_at.
func (s *Scanner) TargetBranches() []string {
	return s.targetBranches
}

// cycle runs one scan: a paginated repo search followed by a branch lookup
// per target branch per repo, then an atomic publish of the resulting
// snapshot. A failed search logs and skips the cycle, leaving the previous
// snapshot in place.
func (s *Scanner) cycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := s.logger.With("cycle", cycleID)
	log.Info("scanner cycle starting")
	start := time.Now()

	repos, err := s.client.RepoSearch(ctx, 100)
	if err != nil {
		log.Error("scanner cycle failed", "error", err)
		metrics.ScanFailuresTotal.Inc()
		return
	}

	next := make(map[page.Location]string, len(repos)*len(s.targetBranches))
	for _, repo := range repos {
		for _, branch := range s.targetBranches {
			b, err := s.client.GetBranch(ctx, repo.Owner.Login, repo.Name, branch)
			if err != nil || b.Commit.ID == "" {
				continue
			}
			loc := page.Location{Owner: repo.Owner.Login, Name: repo.Name, Branch: branch}
			next[loc] = b.Commit.ID
			log.Debug("analyzed page", "owner", loc.Owner, "name", loc.Name, "branch", loc.Branch, "version", b.Commit.ID)
		}
	}

	s.current.Store(&Snapshot{repos: next})

	duration := time.Since(start)
	metrics.ScanCycleDuration.Observe(duration.Seconds())
	metrics.ScanPagesDiscovered.Set(float64(len(next)))
	log.Info("scanner cycle complete", "pages", len(next), "duration", duration)
}
