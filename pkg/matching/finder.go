// Package matching scores lost reports against found reports and selects
// the candidates worth proposing as matches.
package matching

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/geo"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/textsim"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// CandidateQuery selects the reports a source report is compared against.
type CandidateQuery struct {
	Type            models.ReportType
	Category        string
	ExcludeStatuses []models.ReportStatus
	Limit           int
}

// ReportStore is the read side of the report repository the finder needs.
type ReportStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
	// ListCandidates returns matching reports, most recently created first.
	ListCandidates(ctx context.Context, query CandidateQuery) ([]*models.Report, error)
}

// ImageComparer scores two sets of image references.
type ImageComparer interface {
	CompareSets(ctx context.Context, images1, images2 []string) float64
}

// Scores are the unrounded per-dimension scores of one pair.
type Scores struct {
	Text     float64 `json:"text"`
	Image    float64 `json:"image"`
	Location float64 `json:"location"`
	Time     float64 `json:"time"`
	Final    float64 `json:"final"`
}

type Finder struct {
	reports ReportStore
	images  ImageComparer
	text    *textsim.Engine
	config  Config
	logger  ectologger.Logger
}

// NewFinder creates a finder. images may be nil, in which case the image
// dimension always scores 0.
func NewFinder(reports ReportStore, images ImageComparer, config Config, logger ectologger.Logger) *Finder {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = DefaultConfig().CandidateLimit
	}
	return &Finder{
		reports: reports,
		images:  images,
		text:    textsim.New(),
		config:  config,
		logger:  logger,
	}
}

func (f *Finder) Config() Config {
	return f.config
}

// FindPotentialMatches scores every candidate for the report and returns
// unsaved matches at or above the minimum threshold, best first. An unknown
// report yields no matches and no error.
func (f *Finder) FindPotentialMatches(ctx context.Context, reportID string) ([]*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Finder.FindPotentialMatches")
	defer span.End()

	log := f.logger.WithContext(ctx).WithField("report_id", reportID)

	source, err := f.reports.GetByID(ctx, reportID)
	if err != nil {
		log.WithError(err).Error("Failed to load source report")
		return nil, err
	}
	if source == nil {
		log.Warn("Report not found, no matches to find")
		return nil, nil
	}

	candidates, err := f.reports.ListCandidates(ctx, CandidateQuery{
		Type:            source.Type.Opposite(),
		Category:        source.Category,
		ExcludeStatuses: models.CandidateExcludedStatuses,
		Limit:           f.config.CandidateLimit,
	})
	if err != nil {
		log.WithError(err).Error("Failed to load candidate reports")
		return nil, err
	}

	candidates = eligible(source, candidates)
	log.Debugf("Found %d candidate reports for comparison", len(candidates))

	scores := make([]Scores, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			scores[i] = f.ScoreCandidate(gctx, source, candidate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.CandidatesScored.Add(float64(len(candidates)))

	matches := make([]*models.Match, 0, len(candidates))
	for i, candidate := range candidates {
		s := scores[i]
		metrics.FinalScores.Observe(s.Final)

		log.WithFields(map[string]any{
			"candidate_id": candidate.ID,
			"text":         s.Text,
			"image":        s.Image,
			"location":     s.Location,
			"time":         s.Time,
			"final":        s.Final,
		}).Debug("Scored candidate")

		if !scoring.AtLeast(s.Final, f.config.MinThreshold) {
			continue
		}
		matches = append(matches, newMatch(source, candidate, s))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FinalScore > matches[j].FinalScore
	})

	log.Infof("Found %d potential matches", len(matches))
	return matches, nil
}

// ScoreCandidate computes every dimension for one pair.
func (f *Finder) ScoreCandidate(ctx context.Context, source, candidate *models.Report) Scores {
	var s Scores

	s.Text = compareAttributes(f.text, f.config.Attributes, AttributesOf(source), AttributesOf(candidate))

	if f.images != nil && len(source.Images) > 0 && len(candidate.Images) > 0 {
		s.Image = f.images.CompareSets(ctx, firstN(source.Images, f.config.MaxImagesPerSide), firstN(candidate.Images, f.config.MaxImagesPerSide))
	}

	s.Location = geo.LocationScore(placeOf(source), placeOf(candidate), textsim.Score)
	s.Time = geo.TimeScore(source.DateOccurred, candidate.DateOccurred)

	s.Final = s.Text*f.config.TextWeight +
		s.Image*f.config.ImageWeight +
		s.Location*f.config.LocationWeight +
		s.Time*f.config.TimeWeight

	return s
}

// newMatch assigns ids to columns by report type and rounds every score.
func newMatch(source, candidate *models.Report, s Scores) *models.Match {
	m := &models.Match{
		ImageScore:    scoring.Round2(s.Image),
		TextScore:     scoring.Round2(s.Text),
		LocationScore: scoring.Round2(s.Location),
		TimeScore:     scoring.Round2(s.Time),
		FinalScore:    scoring.Round2(s.Final),
		Status:        models.MatchStatusPending,
	}
	m.SetReportID(source.Side(), source.ID)
	m.SetReportID(candidate.Side(), candidate.ID)
	return m
}

// eligible drops anything the store returned that could never pair with
// source: same type, another category, or the source itself.
func eligible(source *models.Report, candidates []*models.Report) []*models.Report {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c == nil || c.ID == source.ID || c.Type != source.Type.Opposite() || c.Category != source.Category {
			continue
		}
		out = append(out, c)
	}
	return out
}

func placeOf(r *models.Report) geo.Place {
	return geo.Place{
		City:    r.LocationCity,
		Address: r.LocationAddress,
		Lat:     r.LocationLat,
		Lng:     r.LocationLng,
	}
}

func firstN(values []string, n int) []string {
	if n > 0 && len(values) > n {
		return values[:n]
	}
	return values
}
