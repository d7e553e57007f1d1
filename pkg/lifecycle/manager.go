// Package lifecycle persists proposed matches and moves them through review.
//
// Public operations never return errors. Store failures are logged and
// reported as false, 0 or an empty result so callers stay responsive when
// part of the backend is down.
package lifecycle

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
)

// MatchFinder proposes unsaved matches for a report
type MatchFinder interface {
	FindPotentialMatches(ctx context.Context, reportID string) ([]*models.Match, error)
	Config() matching.Config
}

// ReportStore is the report repository surface the manager writes through
type ReportStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Report, error)
	// UpdateStatus sets status, optionally only when the current status is one of from.
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, from ...models.ReportStatus) (bool, error)
	Counts(ctx context.Context) (models.ReportCounts, error)
}

// MatchStore is the match repository surface the manager writes through
type MatchStore interface {
	FindByPair(ctx context.Context, lostReportID, foundReportID string) (*models.Match, error)
	Insert(ctx context.Context, match *models.Match) (*models.Match, error)
	GetDetails(ctx context.Context, id string) (*models.MatchDetails, error)
	ListDetails(ctx context.Context, status models.MatchStatus) ([]models.MatchDetails, error)
	ListForReport(ctx context.Context, side models.Side, reportID string) ([]models.Match, error)
	UpdateStatusIfPending(ctx context.Context, id string, status models.MatchStatus) (bool, error)
	CountByStatus(ctx context.Context, status models.MatchStatus) (int, error)
}

// UserCounter counts registered users by role
type UserCounter interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

// Locker serializes work on a key across instances
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Projection mirrors matches into the graph
type Projection interface {
	RecordCandidate(ctx context.Context, match *models.Match) error
	RecordConfirmed(ctx context.Context, match *models.Match) error
	Related(ctx context.Context, reportID string) ([]string, error)
}

// TxRunner runs fn in a transaction carried by the context it receives
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Dependencies wires a Manager. Locker, Projection, Emitter and RunInTx are
// optional.
type Dependencies struct {
	Finder     MatchFinder
	Reports    ReportStore
	Matches    MatchStore
	Users      UserCounter
	Notifier   notify.Notifier
	Locker     Locker
	Projection Projection
	Emitter    *events.Emitter
	RunInTx    TxRunner
	// LockTTL bounds one auto-match run when a locker is configured.
	LockTTL time.Duration
}

type Manager struct {
	finder     MatchFinder
	reports    ReportStore
	matches    MatchStore
	users      UserCounter
	notifier   notify.Notifier
	locker     Locker
	projection Projection
	emitter    *events.Emitter
	runInTx    TxRunner
	lockTTL    time.Duration
	logger     ectologger.Logger
}

func NewManager(deps Dependencies, logger ectologger.Logger) *Manager {
	runInTx := deps.RunInTx
	if runInTx == nil {
		runInTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}

	return &Manager{
		finder:     deps.Finder,
		reports:    deps.Reports,
		matches:    deps.Matches,
		users:      deps.Users,
		notifier:   deps.Notifier,
		locker:     deps.Locker,
		projection: deps.Projection,
		emitter:    deps.Emitter,
		runInTx:    runInTx,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}
