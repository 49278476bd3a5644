package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/store"
	"ecfr-dashboard/internal/telemetry"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestDashboard(t *testing.T, f *fakeFetcher, opts ...Option) *Dashboard {
	t.Helper()
	loader := NewLoader(f, metrics.FixedSectionEstimator(500), constAgencyEstimator(100))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	d := New(loader, "1", opts...)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestResolveDefaults(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())

	sel, err := d.Resolve(context.Background(), Selection{})
	require.NoError(t, err)
	assert.Equal(t, Selection{Title: "1", Date: "2024-05-17", View: ViewOverview}, sel)
}

func TestResolveFallsBackToToday(t *testing.T) {
	f := newFakeFetcher()
	f.failWith(errors.New("offline"))
	d := newTestDashboard(t, f)

	sel, err := d.Resolve(context.Background(), Selection{Title: "7", View: ViewWordCount})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", sel.Date)
	assert.Equal(t, "7", sel.Title)
}

func TestResolveRejectsInvalidSelections(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())
	ctx := context.Background()

	_, err := d.Resolve(ctx, Selection{Date: "2024-01-01", View: "pie"})
	assert.ErrorContains(t, err, "unknown view")

	_, err = d.Resolve(ctx, Selection{Date: "01/02/2024"})
	assert.ErrorContains(t, err, "invalid date")

	_, err = d.Resolve(ctx, Selection{Title: " ", Date: "2024-01-01"})
	assert.ErrorContains(t, err, "title is required")
}

func TestDefaultDate(t *testing.T) {
	assert.Equal(t, "2024-05-17", DefaultDate([]ecfr.Title{{LatestAmendedOn: "2024-05-17", UpToDateAsOf: "2025-01-02"}}, fixedNow))
	assert.Equal(t, "2025-01-02", DefaultDate([]ecfr.Title{{UpToDateAsOf: "2025-01-02"}}, fixedNow))
	assert.Equal(t, "2025-03-14", DefaultDate(nil, fixedNow))
}

func TestViewCharts(t *testing.T) {
	assert.Equal(t, AllCharts, ViewOverview.Charts())
	assert.Equal(t, []Chart{ChartAgencies}, ViewAgencyMetrics.Charts())
	assert.Equal(t, []Chart{ChartAmendments}, ViewHistoricalChanges.Charts())
	assert.Equal(t, []Chart{ChartStructure}, ViewTitleStructure.Charts())
	assert.Equal(t, []Chart{ChartWordCount}, ViewWordCount.Charts())
	assert.False(t, View("settings").Valid())
}

func TestSelectOverviewLoadsEveryChart(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())

	sel, err := d.Select(context.Background(), Selection{})
	require.NoError(t, err)
	d.Wait()

	snap := d.Snapshot()
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, sel, snap.Selection)

	structure := snap.Charts[ChartStructure]
	require.NotNil(t, structure.Structure)
	assert.False(t, structure.Loading)
	assert.Equal(t, fixedNow, structure.UpdatedAt)
	assert.Equal(t, 4, structure.Structure.TotalItems)
	assert.NotEmpty(t, structure.Structure.Checksum)

	words := snap.Charts[ChartWordCount]
	require.NotNil(t, words.WordCount)
	assert.Equal(t, 1000, words.WordCount.TotalWords)
	assert.Equal(t, []metrics.ChapterWords{{Chapter: "Chapter I", WordCount: 1000}}, words.WordCount.Chapters)

	amendments := snap.Charts[ChartAmendments]
	require.NotNil(t, amendments.Amendments)
	assert.Len(t, amendments.Amendments.Months, 2)
	assert.Equal(t, metrics.TrendUp, amendments.Amendments.Trend.Direction)
	assert.Equal(t, 100, amendments.Amendments.Trend.Percentage)

	agencies := snap.Charts[ChartAgencies]
	assert.Equal(t, []metrics.AgencyWords{{Name: "EPA", WordCount: 100}}, agencies.Agencies)
}

func TestSelectSingleViewLeavesOtherChartsAlone(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())

	_, err := d.Select(context.Background(), Selection{Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	d.Wait()

	snap := d.Snapshot()
	assert.NotNil(t, snap.Charts[ChartStructure].Structure)
	assert.Equal(t, ChartState{}, snap.Charts[ChartAgencies])
	assert.Equal(t, ChartState{}, snap.Charts[ChartWordCount])
}

func TestStaleResultIsDiscarded(t *testing.T) {
	f := newFakeFetcher()
	f.started = make(chan string, 2)
	gate := f.gate("1")
	d := newTestDashboard(t, f)
	ctx := context.Background()
	stale := testutil.ToFloat64(telemetry.StaleResultsTotal.WithLabelValues(string(ChartStructure)))

	_, err := d.Select(ctx, Selection{Title: "1", Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	require.Equal(t, "1", <-f.started)
	assert.True(t, d.Snapshot().Charts[ChartStructure].Loading)

	_, err = d.Select(ctx, Selection{Title: "2", Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	require.Equal(t, "2", <-f.started)

	// The first load ignores cancellation and delivers after the second.
	close(gate)
	d.Wait()

	snap := d.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, "2", snap.Selection.Title)
	st := snap.Charts[ChartStructure]
	require.NotNil(t, st.Structure)
	assert.Equal(t, 10, st.Structure.TotalItems)
	assert.False(t, st.Loading)
	assert.Equal(t, stale+1, testutil.ToFloat64(telemetry.StaleResultsTotal.WithLabelValues(string(ChartStructure))))
}

func TestNarrowingTheViewResetsOtherCharts(t *testing.T) {
	f := newFakeFetcher()
	f.started = make(chan string, 4)
	f.honorCtx = true
	f.gate("1")
	d := newTestDashboard(t, f)
	ctx := context.Background()

	_, err := d.Select(ctx, Selection{Title: "1", Date: "2024-05-17", View: ViewOverview})
	require.NoError(t, err)
	require.Equal(t, "1", <-f.started)

	_, err = d.Select(ctx, Selection{Title: "2", Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	d.Wait()

	snap := d.Snapshot()
	assert.Equal(t, "2", snap.Selection.Title)
	for _, c := range []Chart{ChartWordCount, ChartAmendments, ChartAgencies} {
		assert.Equal(t, ChartState{}, snap.Charts[c], c)
	}
	st := snap.Charts[ChartStructure]
	assert.False(t, st.Loading)
	require.NotNil(t, st.Structure)
	assert.Equal(t, 10, st.Structure.TotalItems)
}

func TestNarrowingAfterLoadDropsPreviousPayloads(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())
	ctx := context.Background()

	_, err := d.Select(ctx, Selection{Title: "1", Date: "2024-05-17"})
	require.NoError(t, err)
	d.Wait()
	require.NotNil(t, d.Snapshot().Charts[ChartAgencies].Agencies)

	_, err = d.Select(ctx, Selection{Title: "2", Date: "2024-05-17", View: ViewWordCount})
	require.NoError(t, err)
	d.Wait()

	snap := d.Snapshot()
	assert.Equal(t, ChartState{}, snap.Charts[ChartAgencies])
	assert.Equal(t, ChartState{}, snap.Charts[ChartStructure])
	assert.Equal(t, ChartState{}, snap.Charts[ChartAmendments])
	require.NotNil(t, snap.Charts[ChartWordCount].WordCount)
	assert.Equal(t, 3000, snap.Charts[ChartWordCount].WordCount.TotalWords)
}

func TestSupersededLoadIsCancelled(t *testing.T) {
	f := newFakeFetcher()
	f.started = make(chan string, 2)
	f.honorCtx = true
	f.gate("1")
	d := newTestDashboard(t, f)
	ctx := context.Background()

	_, err := d.Select(ctx, Selection{Title: "1", Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	require.Equal(t, "1", <-f.started)

	_, err = d.Select(ctx, Selection{Title: "2", Date: "2024-05-17", View: ViewTitleStructure})
	require.NoError(t, err)
	d.Wait()

	st := d.Snapshot().Charts[ChartStructure]
	assert.Empty(t, st.Error)
	require.NotNil(t, st.Structure)
	assert.Equal(t, 10, st.Structure.TotalItems)
}

func TestFetchErrorClearsChart(t *testing.T) {
	f := newFakeFetcher()
	d := newTestDashboard(t, f)
	ctx := context.Background()

	_, err := d.Select(ctx, Selection{Date: "2024-05-17"})
	require.NoError(t, err)
	d.Wait()
	require.NotNil(t, d.Snapshot().Charts[ChartStructure].Structure)

	f.failWith(&ecfr.FetchError{Kind: ecfr.KindStructure, URL: "https://example.test", Status: 503})
	_, err = d.Select(ctx, Selection{Title: "2", Date: "2024-05-17"})
	require.NoError(t, err)
	d.Wait()

	for _, c := range AllCharts {
		st := d.Snapshot().Charts[c]
		assert.False(t, st.Loading, c)
		assert.Contains(t, st.Error, "status=503", c)
		assert.Nil(t, st.Structure, c)
		assert.Nil(t, st.WordCount, c)
		assert.Nil(t, st.Amendments, c)
		assert.Nil(t, st.Agencies, c)
	}
}

func TestJournalRecordsAppliedResults(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	d := newTestDashboard(t, newFakeFetcher(), WithJournal(st))
	ctx := context.Background()

	_, err = d.Select(ctx, Selection{})
	require.NoError(t, err)
	d.Wait()

	rows, err := st.LatestChartMetric(ctx, store.MetricTotalItems)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Title)
	assert.Equal(t, "2024-05-17", rows[0].Date)
	assert.Equal(t, 4.0, rows[0].Value)

	for _, m := range []string{store.MetricTotalWords, store.MetricAgencyCount, store.MetricAmendmentChange, store.MetricStructureChecksum} {
		rows, err := st.LatestChartMetric(ctx, m)
		require.NoError(t, err)
		assert.Len(t, rows, 1, m)
	}

	last, err := st.GetState(ctx, store.StateLastRefresh)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Format(time.RFC3339), last)
}

func TestSelectAfterClose(t *testing.T) {
	d := newTestDashboard(t, newFakeFetcher())
	require.NoError(t, d.Close())

	_, err := d.Select(context.Background(), Selection{Date: "2024-05-17"})
	assert.Error(t, err)
}
