package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/store"
	"ecfr-dashboard/internal/telemetry"
)

// Journal receives the summary metrics of every applied chart result.
// *store.Store satisfies it.
type Journal interface {
	PutChartMetrics(ctx context.Context, title, date string, metrics []store.Metric) error
	SetState(ctx context.Context, key, value string) error
}

const journalTimeout = 5 * time.Second

// ChartState is the displayed state of one chart. Exactly one payload field
// is set after a successful load; all are empty after a failed one.
type ChartState struct {
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`

	Structure  *StructureChart       `json:"structure,omitempty"`
	WordCount  *metrics.WordCounts   `json:"wordCount,omitempty"`
	Amendments *AmendmentHistory     `json:"amendments,omitempty"`
	Agencies   []metrics.AgencyWords `json:"agencies,omitempty"`
}

// Snapshot is a point-in-time copy of the dashboard.
type Snapshot struct {
	Generation uint64               `json:"generation"`
	Selection  Selection            `json:"selection"`
	Charts     map[Chart]ChartState `json:"charts"`
}

type Dashboard struct {
	loader       *Loader
	journal      Journal
	log          *zap.Logger
	defaultTitle string
	now          func() time.Time

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	sel    Selection
	charts map[Chart]*ChartState
}

type Option func(*Dashboard)

// WithJournal records the summary of every applied result in j.
func WithJournal(j Journal) Option {
	return func(d *Dashboard) { d.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) { d.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

func New(loader *Loader, defaultTitle string, opts ...Option) *Dashboard {
	d := &Dashboard{
		loader:       loader,
		log:          zap.NewNop(),
		defaultTitle: defaultTitle,
		now:          time.Now,
		charts:       make(map[Chart]*ChartState, len(AllCharts)),
	}
	for _, o := range opts {
		o(d)
	}
	loader.now = d.now
	d.base, d.shutdown = context.WithCancel(context.Background())
	for _, c := range AllCharts {
		d.charts[c] = &ChartState{}
	}
	return d
}

// Resolve fills the defaults of sel and validates it. An empty date is
// resolved from the titles list; if that list cannot be fetched, today
// (UTC) is used.
func (d *Dashboard) Resolve(ctx context.Context, sel Selection) (Selection, error) {
	if sel.View == "" {
		sel.View = ViewOverview
	}
	if sel.Title == "" {
		sel.Title = d.defaultTitle
	}
	if sel.Date == "" {
		date, err := d.loader.DefaultDate(ctx)
		if err != nil {
			d.log.Warn("default date unavailable, using today", zap.Error(err))
			date = DefaultDate(nil, d.now())
		}
		sel.Date = date
	}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Select makes sel the current selection and starts loading its charts in
// the background. Loads of the previous selection are cancelled and their
// results, if any still arrive, are discarded.
func (d *Dashboard) Select(ctx context.Context, sel Selection) (Selection, error) {
	resolved, err := d.Resolve(ctx, sel)
	if err != nil {
		return Selection{}, err
	}

	d.mu.Lock()
	if d.base.Err() != nil {
		d.mu.Unlock()
		return Selection{}, errors.New("dashboard closed")
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	loadCtx, cancel := context.WithCancel(d.base)
	d.cancel = cancel
	d.sel = resolved
	charts := resolved.View.Charts()
	inView := make(map[Chart]bool, len(charts))
	for _, c := range charts {
		inView[c] = true
	}
	for c, st := range d.charts {
		if !inView[c] {
			// Not loaded for this selection; drop what an older one left.
			*st = ChartState{}
			continue
		}
		st.Loading = true
		st.Error = ""
	}
	d.wg.Add(1)
	d.mu.Unlock()

	telemetry.SetGeneration(gen)
	d.log.Info("selection changed",
		zap.Uint64("generation", gen),
		zap.String("title", resolved.Title),
		zap.String("date", resolved.Date),
		zap.String("view", string(resolved.View)),
	)

	go func() {
		defer d.wg.Done()
		defer cancel()
		var g errgroup.Group
		for _, c := range charts {
			g.Go(func() error {
				d.load(loadCtx, gen, resolved, c)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return resolved, nil
}

func (d *Dashboard) load(ctx context.Context, gen uint64, sel Selection, chart Chart) {
	next, summary, err := d.loader.load(ctx, sel, chart)
	telemetry.RecordAggregation(string(chart), err == nil)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		telemetry.RecordStale(string(chart))
		d.log.Debug("discarding stale chart result",
			zap.String("chart", string(chart)),
			zap.Uint64("generation", gen),
		)
		return
	}
	if err != nil {
		next = ChartState{Error: err.Error()}
	}
	next.UpdatedAt = d.now()
	*d.charts[chart] = next
	d.mu.Unlock()

	if err != nil {
		var fe *ecfr.FetchError
		if errors.As(err, &fe) {
			d.log.Error("chart fetch failed",
				zap.String("chart", string(chart)),
				zap.String("kind", fe.Kind),
				zap.String("url", fe.URL),
				zap.Int("status", fe.Status),
				zap.Error(err),
			)
		} else {
			d.log.Error("chart load failed", zap.String("chart", string(chart)), zap.Error(err))
		}
		return
	}
	d.record(ctx, sel, chart, summary)
}

func (d *Dashboard) record(ctx context.Context, sel Selection, chart Chart, summary []store.Metric) {
	if d.journal == nil || len(summary) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := d.journal.PutChartMetrics(ctx, sel.Title, sel.Date, summary); err != nil {
		d.log.Warn("journal write failed", zap.String("chart", string(chart)), zap.Error(err))
		return
	}
	if err := d.journal.SetState(ctx, store.StateLastRefresh, d.now().UTC().Format(time.RFC3339)); err != nil {
		d.log.Warn("journal state update failed", zap.Error(err))
	}
}

// Snapshot copies the current selection and chart states. Payloads are
// replaced, never mutated, so sharing them with the copy is safe.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := Snapshot{
		Generation: d.gen,
		Selection:  d.sel,
		Charts:     make(map[Chart]ChartState, len(d.charts)),
	}
	for c, st := range d.charts {
		out.Charts[c] = *st
	}
	return out
}

// Wait blocks until every started load has finished.
func (d *Dashboard) Wait() { d.wg.Wait() }

// Close cancels in-flight loads and waits for them to return.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	d.shutdown()
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}
