// Package poller runs the fetch-and-normalize pipeline on a fixed interval
// and tracks the dashboard's loading/ready/error state.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/source"
)

// DefaultInterval is how often the prediction log is re-fetched.
const DefaultInterval = 30 * time.Second

// State is the dashboard display state.
type State int

const (
	Loading State = iota
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Update is one applied pipeline result.
type Update struct {
	Seq    uint64
	State  State
	Result pipeline.Result
	At     time.Time
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Config controls the poller.
type Config struct {
	Interval  time.Duration
	NewTicker func(time.Duration) Ticker // nil uses time.NewTicker
}

// Stats are the poller counters reported by the daemon.
type Stats struct {
	Polls     int64
	Stale     int64
	LastSeq   uint64
	LastPoll  time.Time
	LastError string
}

// Poller owns the refresh loop for one source.
type Poller struct {
	src source.Source
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc

	refresh  chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup

	mu        sync.RWMutex
	started   bool
	stopped   bool
	nextSeq   uint64
	current   Update
	polls     int64
	stale     int64
	lastPoll  time.Time
	nextSubID int
	subs      map[int]chan Update
}

// New returns a poller for src. It does nothing until Start.
func New(src source.Source, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		src:      src,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		refresh:  make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		current:  Update{State: Loading},
		subs:     make(map[int]chan Update),
	}
}

// Interval returns the configured refresh interval.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Start fetches immediately and then on every tick until Stop.
// Calling Start more than once, or after Stop, has no effect.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	ticker := p.cfg.NewTicker(p.cfg.Interval)
	p.tick()
	go p.loop(ticker)
}

func (p *Poller) loop(ticker Ticker) {
	defer close(p.loopDone)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C():
			p.tick()
		case <-p.refresh:
			p.tick()
		}
	}
}

// Refresh requests an immediate out-of-band fetch. Requests made while one
// is already pending are coalesced.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// RefreshOn calls Refresh for every signal on ch until ch closes or the
// poller stops.
func (p *Poller) RefreshOn(ch <-chan struct{}) {
	go func() {
		for {
			select {
			case <-p.ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				p.Refresh()
			}
		}
	}()
}

// tick issues one fetch tagged with the next sequence number. Fetches may
// overlap; apply decides which result wins.
func (p *Poller) tick() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.nextSeq++
	seq := p.nextSeq
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		res := pipeline.Run(p.ctx, p.src)
		p.apply(seq, res)
	}()
}

func (p *Poller) apply(seq uint64, res pipeline.Result) {
	now := time.Now()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.polls++
	p.lastPoll = now
	// Only results older than the one shown are stale. Waiting for the newest
	// issued tick would starve a source slower than the interval.
	if seq < p.current.Seq {
		p.stale++
		p.mu.Unlock()
		return
	}

	state := Ready
	if !res.OK() {
		state = Error
		log.Printf("fincast poll #%d: %s: %v", seq, res.Kind, res.Err)
	}
	u := Update{Seq: seq, State: state, Result: res, At: now}
	p.current = u

	for _, ch := range p.subs {
		select {
		case ch <- u:
		default:
		}
	}
	p.mu.Unlock()
}

// Current returns the most recently applied update. Before the first result
// it reports Loading.
func (p *Poller) Current() Update {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Stats returns the poll counters.
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Stats{
		Polls:    p.polls,
		Stale:    p.stale,
		LastSeq:  p.current.Seq,
		LastPoll: p.lastPoll,
	}
	if p.current.State == Error {
		st.LastError = p.current.Result.Message()
	}
	return st
}

// Subscribe returns a channel receiving every applied update. Slow
// subscribers miss updates rather than block the poller. The returned func
// unsubscribes and closes the channel.
func (p *Poller) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.nextSubID++
	id := p.nextSubID
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			if _, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(ch)
			}
			p.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of live subscriptions.
func (p *Poller) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Stop cancels the timer and any in-flight fetch. No fetch is issued after
// Stop returns. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		started := p.started
		p.mu.Unlock()

		p.cancel()
		if started {
			<-p.loopDone
		}
		p.inflight.Wait()

		p.mu.Lock()
		for id, ch := range p.subs {
			delete(p.subs, id)
			close(ch)
		}
		p.mu.Unlock()
	})
}
