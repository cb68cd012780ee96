// Package unknownterms collects tokens the normalizer could not place in
// the vocabulary so they can be reviewed and added to rule tables.
package unknownterms

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

const (
	DefaultBuffer     = 1024
	DefaultMaxTracked = 10000
	maxExamples       = 3
	publishTimeout    = 2 * time.Second
)

// Publisher forwards recorded batches, usually to the NATS collector.
type Publisher interface {
	PublishUnknownTerms(ctx context.Context, terms []domain.UnknownTerm) error
}

type Options struct {
	Buffer     int
	MaxTracked int
	Source     string
	Publisher  Publisher
	Logger     *slog.Logger
	// OnRecord and OnDrop receive the number of terms accepted or dropped.
	OnRecord func(n int)
	OnDrop   func(n int)
	Now      func() time.Time
}

type entry struct {
	terms    []string
	original string
	at       time.Time
}

// Log accepts records without blocking and hands them to one writer
// goroutine. When the buffer is full the record is dropped and counted.
type Log struct {
	ch        chan entry
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	source     string
	publisher  Publisher
	logger     *slog.Logger
	onRecord   func(int)
	onDrop     func(int)
	now        func() time.Time
	maxTracked int

	dropped atomic.Uint64

	mu    sync.RWMutex
	stats map[string]*domain.UnknownTermStat
}

func New(opts Options) *Log {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.MaxTracked <= 0 {
		opts.MaxTracked = DefaultMaxTracked
	}
	if opts.Source == "" {
		opts.Source = "api"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := &Log{
		ch:         make(chan entry, opts.Buffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		source:     opts.Source,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
		onRecord:   opts.OnRecord,
		onDrop:     opts.OnDrop,
		now:        opts.Now,
		maxTracked: opts.MaxTracked,
		stats:      make(map[string]*domain.UnknownTermStat),
	}
	go l.run()
	return l
}

func (l *Log) Record(terms []string, original string) {
	if len(terms) == 0 {
		return
	}
	select {
	case <-l.stop:
		l.drop(len(terms))
		return
	default:
	}
	e := entry{terms: append([]string(nil), terms...), original: original, at: l.now()}
	select {
	case l.ch <- e:
	default:
		l.drop(len(terms))
	}
}

func (l *Log) drop(n int) {
	l.dropped.Add(uint64(n))
	if l.onDrop != nil {
		l.onDrop(n)
	}
}

// Dropped reports how many terms were discarded because the buffer was full
// or the log was closed.
func (l *Log) Dropped() uint64 {
	return l.dropped.Load()
}

// Close stops accepting records, drains what is buffered and waits for the
// writer to exit.
func (l *Log) Close() {
	l.closeOnce.Do(func() { close(l.stop) })
	<-l.done
}

func (l *Log) run() {
	defer close(l.done)
	for {
		select {
		case e := <-l.ch:
			l.handle(e)
		case <-l.stop:
			for {
				select {
				case e := <-l.ch:
					l.handle(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Log) handle(e entry) {
	batch := make([]domain.UnknownTerm, 0, len(e.terms))
	for _, term := range e.terms {
		batch = append(batch, domain.UnknownTerm{
			ID:         uuid.NewString(),
			Term:       term,
			Original:   e.original,
			Source:     l.source,
			ObservedAt: e.at,
		})
	}
	l.track(batch)
	if l.onRecord != nil {
		l.onRecord(len(batch))
	}

	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := l.publisher.PublishUnknownTerms(ctx, batch); err != nil {
		l.logger.Warn("unknown_terms_publish_failed", "terms", len(batch), "error", err)
	}
}

func (l *Log) track(batch []domain.UnknownTerm) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range batch {
		stat, ok := l.stats[t.Term]
		if !ok {
			if len(l.stats) >= l.maxTracked {
				continue
			}
			stat = &domain.UnknownTermStat{Term: t.Term, FirstSeen: t.ObservedAt}
			l.stats[t.Term] = stat
		}
		stat.Count++
		stat.LastSeen = t.ObservedAt
		if len(stat.Examples) < maxExamples && !contains(stat.Examples, t.Original) {
			stat.Examples = append(stat.Examples, t.Original)
		}
	}
}

// TopUnknownTerms returns the most frequent terms seen by this process.
func (l *Log) TopUnknownTerms(_ context.Context, limit int) ([]domain.UnknownTermStat, error) {
	l.mu.RLock()
	out := make([]domain.UnknownTermStat, 0, len(l.stats))
	for _, s := range l.stats {
		cp := *s
		cp.Examples = append([]string(nil), s.Examples...)
		out = append(out, cp)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
