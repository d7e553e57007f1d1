package matching

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

type memoryReports struct {
	reports []*models.Report
	err     error
	queries []CandidateQuery
}

func (m *memoryReports) GetByID(_ context.Context, id string) (*models.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryReports) ListCandidates(_ context.Context, q CandidateQuery) ([]*models.Report, error) {
	m.queries = append(m.queries, q)
	var out []*models.Report
	for _, r := range m.reports {
		if r.Type != q.Type || r.Category != q.Category || slices.Contains(q.ExcludeStatuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type fixedImages struct {
	mu    sync.Mutex
	score float64
	calls [][2][]string
}

func (f *fixedImages) CompareSets(_ context.Context, a, b []string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2][]string{a, b})
	return f.score
}

func delhiLost() *models.Report {
	return &models.Report{
		ID:           "lost-1",
		UserID:       "user-1",
		Type:         models.ReportTypeLost,
		Title:        "Black iPhone 13",
		Description:  "Phone with a cracked screen",
		Category:     "electronics",
		LocationCity: ptr("Delhi"),
		LocationLat:  ptr(28.70),
		LocationLng:  ptr(77.10),
		DateOccurred: date(2024, 1, 10),
		Status:       models.ReportStatusPending,
		CreatedAt:    date(2024, 1, 10),
	}
}

func delhiFound() *models.Report {
	return &models.Report{
		ID:           "found-1",
		UserID:       "user-2",
		Type:         models.ReportTypeFound,
		Title:        "iPhone 13 black",
		Description:  "Phone with a cracked screen",
		Category:     "electronics",
		LocationCity: ptr("Delhi"),
		LocationLat:  ptr(28.705),
		LocationLng:  ptr(77.105),
		DateOccurred: date(2024, 1, 12),
		Status:       models.ReportStatusPending,
		CreatedAt:    date(2024, 1, 12),
	}
}

func TestCompareAttributes(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Attributes
		expected float64
	}{
		{
			name:     "identical",
			a:        Attributes{Title: "Red wallet", Description: "Leather wallet", Color: "red", Marks: "torn corner", Category: "wallets"},
			b:        Attributes{Title: "Red wallet", Description: "Leather wallet", Color: "red", Marks: "torn corner", Category: "wallets"},
			expected: 1,
		},
		{
			name:     "color and marks ignored when one side lacks them",
			a:        Attributes{Title: "Red wallet", Description: "Leather wallet", Color: "red", Category: "wallets"},
			b:        Attributes{Title: "Red wallet", Description: "Leather wallet", Marks: "torn corner", Category: "wallets"},
			expected: 0.75,
		},
		{
			name:     "only category in common",
			a:        Attributes{Title: "Key", Description: "Leather", Category: "accessories"},
			b:        Attributes{Title: "Bag", Description: "Nylon", Category: "accessories"},
			expected: 0.05,
		},
		{
			name:     "nothing in common",
			a:        Attributes{Title: "Key", Description: "Leather", Category: "keys"},
			b:        Attributes{Title: "Bag", Description: "Nylon", Category: "bags"},
			expected: 0,
		},
		{
			name:     "near duplicate titles",
			a:        Attributes{Title: "Black iPhone 13", Description: "Phone with a cracked screen", Category: "electronics"},
			b:        Attributes{Title: "iPhone 13 black", Description: "Phone with a cracked screen", Category: "electronics"},
			expected: 0.73,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareAttributes(tt.a, tt.b))
			assert.Equal(t, tt.expected, CompareAttributes(tt.b, tt.a))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TimeWeight = 0.25
	assert.ErrorContains(t, cfg.Validate(), "match weights must sum to 1")

	cfg = DefaultConfig()
	cfg.Attributes.Category = 0.5
	assert.ErrorContains(t, cfg.Validate(), "attribute weights must sum to 1")

	cfg = DefaultConfig()
	cfg.HighThreshold = 0.2
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CandidateLimit = 0
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfig_WeightsSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 1.0, cfg.TextWeight+cfg.ImageWeight+cfg.LocationWeight+cfg.TimeWeight, 1e-12)
	assert.InDelta(t, 1.0, cfg.Attributes.sum(), 1e-12)
	assert.True(t, cfg.IsHighConfidence(0.7))
	assert.False(t, cfg.IsHighConfidence(0.69))
}

func TestFinder_FindPotentialMatches_EndToEnd(t *testing.T) {
	store := &memoryReports{reports: []*models.Report{delhiLost(), delhiFound()}}
	finder := NewFinder(store, &fixedImages{}, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "lost-1", m.LostReportID)
	assert.Equal(t, "found-1", m.FoundReportID)
	assert.Equal(t, models.MatchStatusPending, m.Status)
	assert.Equal(t, 0.73, m.TextScore)
	assert.Equal(t, 0.0, m.ImageScore)
	assert.Equal(t, 1.0, m.LocationScore)
	assert.Equal(t, 0.95, m.TimeScore)
	assert.Equal(t, 0.65, m.FinalScore)

	require.Len(t, store.queries, 1)
	assert.Equal(t, CandidateQuery{
		Type:            models.ReportTypeFound,
		Category:        "electronics",
		ExcludeStatuses: []models.ReportStatus{models.ReportStatusClosed, models.ReportStatusMatched},
		Limit:           50,
	}, store.queries[0])
}

func TestFinder_FindPotentialMatches_FromFoundSide(t *testing.T) {
	store := &memoryReports{reports: []*models.Report{delhiLost(), delhiFound()}}
	finder := NewFinder(store, nil, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "found-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "lost-1", matches[0].LostReportID)
	assert.Equal(t, "found-1", matches[0].FoundReportID)
}

func TestFinder_FindPotentialMatches_CategoryIsAHardFilter(t *testing.T) {
	found := delhiFound()
	found.Category = "phones"
	store := &memoryReports{reports: []*models.Report{delhiLost(), found}}
	finder := NewFinder(store, nil, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

type leakyStore struct {
	memoryReports
}

// ListCandidates ignores the query entirely.
func (l *leakyStore) ListCandidates(_ context.Context, _ CandidateQuery) ([]*models.Report, error) {
	return l.reports, nil
}

func TestFinder_FindPotentialMatches_DropsIneligibleCandidates(t *testing.T) {
	otherCategory := delhiFound()
	otherCategory.ID = "found-2"
	otherCategory.Category = "phones"
	sameType := delhiLost()
	sameType.ID = "lost-2"

	store := &leakyStore{memoryReports{reports: []*models.Report{delhiLost(), sameType, otherCategory, delhiFound()}}}
	finder := NewFinder(store, nil, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "found-1", matches[0].FoundReportID)
}

func TestFinder_FindPotentialMatches_ExcludesClosedAndMatched(t *testing.T) {
	closed := delhiFound()
	closed.Status = models.ReportStatusClosed
	matched := delhiFound()
	matched.ID = "found-2"
	matched.Status = models.ReportStatusMatched

	store := &memoryReports{reports: []*models.Report{delhiLost(), closed, matched}}
	finder := NewFinder(store, nil, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFinder_FindPotentialMatches_UnknownReport(t *testing.T) {
	finder := NewFinder(&memoryReports{}, nil, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFinder_FindPotentialMatches_StoreError(t *testing.T) {
	finder := NewFinder(&memoryReports{err: errors.New("connection refused")}, nil, DefaultConfig(), testLogger())

	_, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	assert.ErrorContains(t, err, "connection refused")
}

// locationOnly scores a pair purely on distance so the final score is
// exactly the band value.
func locationOnly() Config {
	cfg := DefaultConfig()
	cfg.TextWeight = 0
	cfg.ImageWeight = 0
	cfg.LocationWeight = 1
	cfg.TimeWeight = 0
	return cfg
}

func TestFinder_ThresholdBoundary(t *testing.T) {
	lost := delhiLost()
	found := delhiFound()
	// roughly 30km north, inside the 0.4 band
	found.LocationLat = ptr(28.97)
	found.LocationLng = ptr(77.10)

	store := &memoryReports{reports: []*models.Report{lost, found}}

	t.Run("exactly at threshold is kept", func(t *testing.T) {
		finder := NewFinder(store, nil, locationOnly(), testLogger())
		matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 0.4, matches[0].FinalScore)
	})

	t.Run("just below threshold is dropped", func(t *testing.T) {
		cfg := locationOnly()
		cfg.MinThreshold = 0.400001
		finder := NewFinder(store, nil, cfg, testLogger())
		matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("weighted sum equal to threshold is kept", func(t *testing.T) {
		finder := NewFinder(store, nil, DefaultConfig(), testLogger())
		s := finder.ScoreCandidate(context.Background(), lost, found)

		cfg := DefaultConfig()
		cfg.MinThreshold = s.Final
		kept, err := NewFinder(store, nil, cfg, testLogger()).FindPotentialMatches(context.Background(), "lost-1")
		require.NoError(t, err)
		assert.Len(t, kept, 1)

		cfg.MinThreshold = s.Final + 0.000001
		dropped, err := NewFinder(store, nil, cfg, testLogger()).FindPotentialMatches(context.Background(), "lost-1")
		require.NoError(t, err)
		assert.Empty(t, dropped)
	})
}

func TestFinder_ImagesComparedOnlyWhenBothSidesHaveThem(t *testing.T) {
	lost := delhiLost()
	lost.Images = []string{"l1", "l2", "l3", "l4", "l5"}
	found := delhiFound()

	images := &fixedImages{score: 1}
	store := &memoryReports{reports: []*models.Report{lost, found}}
	finder := NewFinder(store, images, DefaultConfig(), testLogger())

	matches, err := finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].ImageScore)
	assert.Empty(t, images.calls)

	found.Images = []string{"f1", "f2", "f3", "f4"}
	matches, err = finder.FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].ImageScore)
	assert.Equal(t, 0.9, matches[0].FinalScore)

	require.Len(t, images.calls, 1)
	assert.Equal(t, []string{"l1", "l2", "l3"}, images.calls[0][0])
	assert.Equal(t, []string{"f1", "f2", "f3"}, images.calls[0][1])
}

func TestFinder_OrderingIsDeterministic(t *testing.T) {
	reports := []*models.Report{delhiLost()}
	for i, lat := range []float64{28.75, 28.705, 28.80, 28.705, 28.72} {
		r := delhiFound()
		r.ID = "found-" + string(rune('a'+i))
		r.LocationLat = ptr(lat)
		r.CreatedAt = date(2024, 1, 20-i)
		reports = append(reports, r)
	}
	store := &memoryReports{reports: reports}

	sequential := DefaultConfig()
	sequential.Workers = 1
	want, err := NewFinder(store, nil, sequential, testLogger()).FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, want, 5)

	for i := 1; i < len(want); i++ {
		assert.GreaterOrEqual(t, want[i-1].FinalScore, want[i].FinalScore)
	}

	concurrent := DefaultConfig()
	concurrent.Workers = 8
	for range 10 {
		got, err := NewFinder(store, nil, concurrent, testLogger()).FindPotentialMatches(context.Background(), "lost-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFinder_CandidateLimit(t *testing.T) {
	reports := []*models.Report{delhiLost()}
	for i := range 5 {
		r := delhiFound()
		r.ID = "found-" + string(rune('a'+i))
		r.CreatedAt = date(2024, 1, 12+i)
		reports = append(reports, r)
	}
	store := &memoryReports{reports: reports}

	cfg := DefaultConfig()
	cfg.CandidateLimit = 2
	matches, err := NewFinder(store, nil, cfg, testLogger()).FindPotentialMatches(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "found-e", matches[0].FoundReportID)
	assert.Equal(t, "found-d", matches[1].FoundReportID)
}

func TestFinder_ScoresStayInRange(t *testing.T) {
	images := &fixedImages{score: 1}
	lost := delhiLost()
	lost.Images = []string{"l1"}
	lost.Color = ptr("black")
	lost.DistinguishingMarks = ptr("scratch on the back")
	found := delhiFound()
	found.Images = []string{"f1"}
	found.Color = ptr("black")
	found.DistinguishingMarks = ptr("scratch on the back")
	found.Title = lost.Title
	found.DateOccurred = lost.DateOccurred

	finder := NewFinder(&memoryReports{}, images, DefaultConfig(), testLogger())
	s := finder.ScoreCandidate(context.Background(), lost, found)

	for _, v := range []float64{s.Text, s.Image, s.Location, s.Time, s.Final} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0+1e-9)
	}
	assert.InDelta(t, 1.0, s.Final, 1e-9)
}
