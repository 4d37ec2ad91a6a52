package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const subscriptionBuffer = 64

// Subscription receives the events matching any of its filters until closed.
type Subscription struct {
	id        int
	filters   []Filter
	events    chan Event
	owner     *dispatcher
	closeOnce sync.Once
	stop      func() bool
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Filters() []Filter {
	return s.filters
}

// Close detaches the subscription and closes its event channel. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.owner.mu.Lock()
		stop := s.stop
		s.owner.mu.Unlock()

		if stop != nil {
			stop()
		}
		s.owner.remove(s)
	})
	return nil
}

func (s *Subscription) matches(event Event) bool {
	for _, filter := range s.filters {
		if filter.Match(event) {
			return true
		}
	}
	return false
}

type dispatcher struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	log    *zap.Logger
}

func newDispatcher(log *zap.Logger) *dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &dispatcher{
		subs: make(map[int]*Subscription),
		log:  log,
	}
}

// Subscribe registers filters; the subscription is closed when ctx is done.
func (d *dispatcher) Subscribe(ctx context.Context, filters ...Filter) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	sub := &Subscription{
		id:      d.nextID,
		filters: filters,
		events:  make(chan Event, subscriptionBuffer),
		owner:   d,
	}
	d.nextID++
	d.subs[sub.id] = sub
	d.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	d.mu.Lock()
	sub.stop = stop
	d.mu.Unlock()

	return sub, nil
}

func (d *dispatcher) remove(sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[sub.id]; ok {
		delete(d.subs, sub.id)
		close(sub.events)
	}
}

func (d *dispatcher) dispatch(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sub := range d.subs {
		if !sub.matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			d.log.Warn("change feed subscriber is full, dropping event",
				zap.String("table", event.Table),
				zap.String("type", string(event.Type)),
			)
		}
	}
}

func (d *dispatcher) dispatchPayload(payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		d.log.Warn("change feed payload decode failed", zap.Error(err))
		return
	}
	d.dispatch(event)
}

func (d *dispatcher) closeAll() {
	d.mu.Lock()
	subs := make([]*Subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
}
