package asset

import (
	"context"
	"fmt"
	"sync"

	"github.com/elys-network/curveamm/internal/types"
)

// Router maps collaborator ids to their ledgers.
type Router struct {
	mu      sync.RWMutex
	ledgers map[types.ActorID]*Ledger
}

func NewRouter(ledgers ...*Ledger) (*Router, error) {
	r := &Router{ledgers: make(map[types.ActorID]*Ledger, len(ledgers))}
	for _, l := range ledgers {
		if err := r.Register(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Router) Register(l *Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ledgers[l.ID()]; exists {
		return fmt.Errorf("%w: ledger %s registered twice", ErrInvalidRequest, l.ID())
	}
	r.ledgers[l.ID()] = l
	return nil
}

func (r *Router) Ledger(id types.ActorID) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, id)
	}
	return l, nil
}

// Send implements Sender.
func (r *Router) Send(ctx context.Context, from, to types.ActorID, req Request) (Reply, error) {
	l, err := r.Ledger(to)
	if err != nil {
		return nil, err
	}
	return l.Send(ctx, from, req)
}

// Client returns a Client that acts as caller.
func (r *Router) Client(caller types.ActorID) *ActorClient {
	return NewActorClient(r, caller)
}

// Close stops every registered ledger.
func (r *Router) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.ledgers {
		l.Close()
	}
}
