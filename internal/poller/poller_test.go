package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/source"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newFakeTicker() *fakeTicker { return &fakeTicker{ch: make(chan time.Time, 1)} }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

// funcSource counts calls and delegates to fn with the 1-based call number.
type funcSource struct {
	calls atomic.Int64
	fn    func(ctx context.Context, n int64) (*model.PredictionLog, error)
}

func (s *funcSource) Fetch(ctx context.Context) (*model.PredictionLog, error) {
	n := s.calls.Add(1)
	return s.fn(ctx, n)
}

func logWithIncome(income float64) *model.PredictionLog {
	return &model.PredictionLog{Predictions: []model.Prediction{
		{Input: model.UserFinancialProfile{Income: income, Rent: 100}},
	}}
}

func newTestPoller(src source.Source) (*Poller, *fakeTicker) {
	ft := newFakeTicker()
	p := New(src, Config{
		Interval:  time.Hour,
		NewTicker: func(time.Duration) Ticker { return ft },
	})
	return p, ft
}

func waitUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("update channel closed")
		}
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestPoller_InitialStateLoading(t *testing.T) {
	p, _ := newTestPoller(source.StaticSource{})
	if got := p.Current().State; got != Loading {
		t.Fatalf("state = %v, want loading", got)
	}
	p.Stop()
}

func TestPoller_FetchesImmediatelyAndOnTick(t *testing.T) {
	src := &funcSource{fn: func(_ context.Context, n int64) (*model.PredictionLog, error) {
		return logWithIncome(float64(n)), nil
	}}
	p, ft := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	p.Start()
	defer p.Stop()

	u := waitUpdate(t, updates)
	if u.State != Ready || u.Seq != 1 {
		t.Fatalf("first update = seq %d %v, want seq 1 ready", u.Seq, u.State)
	}

	ft.ch <- time.Now()
	u = waitUpdate(t, updates)
	if u.Seq != 2 || u.Result.View.Profile.Income != 2 {
		t.Fatalf("tick update = seq %d income %.0f, want seq 2 income 2", u.Seq, u.Result.View.Profile.Income)
	}
}

func TestPoller_ErrorThenRecovery(t *testing.T) {
	src := &funcSource{fn: func(_ context.Context, n int64) (*model.PredictionLog, error) {
		if n == 1 {
			return nil, &source.Error{Kind: source.KindFetch, Origin: "test", Status: 500}
		}
		return logWithIncome(42), nil
	}}
	p, _ := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	p.Start()
	defer p.Stop()

	u := waitUpdate(t, updates)
	if u.State != Error || u.Result.View != nil {
		t.Fatalf("first update = %v view=%v, want error without view", u.State, u.Result.View)
	}
	if p.Stats().LastError == "" {
		t.Fatal("Stats().LastError empty after failed poll")
	}

	p.Refresh()
	u = waitUpdate(t, updates)
	if u.State != Ready {
		t.Fatalf("second update = %v, want ready", u.State)
	}
	if p.Stats().LastError != "" {
		t.Fatalf("LastError = %q after recovery", p.Stats().LastError)
	}
}

func TestPoller_StaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	src := &funcSource{fn: func(_ context.Context, n int64) (*model.PredictionLog, error) {
		if n == 1 {
			<-release
			return logWithIncome(1), nil
		}
		return logWithIncome(2), nil
	}}
	p, _ := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	p.Start()
	defer p.Stop()

	// Wait until the slow first fetch is in progress before refreshing.
	deadline := time.Now().Add(5 * time.Second)
	for src.calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	p.Refresh()
	u := waitUpdate(t, updates)
	if u.Seq != 2 {
		t.Fatalf("applied seq = %d, want 2", u.Seq)
	}

	close(release)
	for p.Stats().Stale < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	st := p.Stats()
	if st.Stale != 1 {
		t.Fatalf("stale = %d, want 1", st.Stale)
	}
	cur := p.Current()
	if cur.Seq != 2 || cur.Result.View.Profile.Income != 2 {
		t.Fatalf("current = seq %d income %.0f, want the seq 2 result", cur.Seq, cur.Result.View.Profile.Income)
	}
}

func TestPoller_OlderResultAppliesWhileNewerInFlight(t *testing.T) {
	releases := []chan struct{}{make(chan struct{}), make(chan struct{})}
	src := &funcSource{fn: func(ctx context.Context, n int64) (*model.PredictionLog, error) {
		select {
		case <-releases[n-1]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return logWithIncome(float64(n)), nil
	}}
	p, _ := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for src.calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	p.Refresh()
	for src.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// Seq 2 is issued but unresolved; seq 1 must still reach the view.
	close(releases[0])
	if u := waitUpdate(t, updates); u.Seq != 1 || u.State != Ready {
		t.Fatalf("applied = seq %d %v, want seq 1 ready", u.Seq, u.State)
	}

	close(releases[1])
	if u := waitUpdate(t, updates); u.Seq != 2 {
		t.Fatalf("applied seq = %d, want 2", u.Seq)
	}
	if st := p.Stats(); st.Stale != 0 {
		t.Fatalf("stale = %d, want 0", st.Stale)
	}
}

func TestPoller_StopPreventsLaterFetch(t *testing.T) {
	src := &funcSource{fn: func(_ context.Context, _ int64) (*model.PredictionLog, error) {
		return logWithIncome(1), nil
	}}
	p, ft := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	p.Start()
	waitUpdate(t, updates)
	p.Stop()

	ft.ch <- time.Now()
	p.Refresh()
	time.Sleep(50 * time.Millisecond)

	if n := src.calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
	if !ft.stopped.Load() {
		t.Fatal("ticker not stopped")
	}
}

func TestPoller_StopCancelsInflight(t *testing.T) {
	var sawCancel atomic.Bool
	started := make(chan struct{})
	src := &funcSource{fn: func(ctx context.Context, _ int64) (*model.PredictionLog, error) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return nil, ctx.Err()
	}}
	p, _ := newTestPoller(src)
	p.Start()
	<-started

	p.Stop()
	if !sawCancel.Load() {
		t.Fatal("in-flight fetch not cancelled before Stop returned")
	}
	if got := p.Current().State; got != Loading {
		t.Fatalf("state after cancelled fetch = %v, want loading (result dropped)", got)
	}
}

func TestPoller_StopIdempotent(t *testing.T) {
	p, _ := newTestPoller(source.StaticSource{})
	p.Start()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Stop()
		}()
	}
	wg.Wait()
	p.Stop()
}

func TestPoller_StopWithoutStart(t *testing.T) {
	src := &funcSource{fn: func(context.Context, int64) (*model.PredictionLog, error) {
		return nil, errors.New("should not be called")
	}}
	p, _ := newTestPoller(src)
	p.Stop()
	p.Start()
	time.Sleep(20 * time.Millisecond)
	if n := src.calls.Load(); n != 0 {
		t.Fatalf("fetch calls = %d, want 0", n)
	}
}

func TestPoller_SubscribersClosedOnStop(t *testing.T) {
	p, _ := newTestPoller(source.StaticSource{})
	ch, unsubscribe := p.Subscribe(1)
	p.Stop()
	unsubscribe()

	for range ch {
	}
	if n := p.SubscriberCount(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}

func TestPoller_RefreshOn(t *testing.T) {
	src := &funcSource{fn: func(_ context.Context, n int64) (*model.PredictionLog, error) {
		return logWithIncome(float64(n)), nil
	}}
	p, _ := newTestPoller(src)
	updates, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	signals := make(chan struct{}, 1)
	p.RefreshOn(signals)
	p.Start()
	defer p.Stop()

	waitUpdate(t, updates)
	signals <- struct{}{}
	u := waitUpdate(t, updates)
	if u.Seq != 2 {
		t.Fatalf("seq after watch signal = %d, want 2", u.Seq)
	}
}
