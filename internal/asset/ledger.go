/*

This file contains the reference asset collaborator: a ledger actor that owns
its balances and processes one request at a time from a mailbox.

*/

package asset

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/curveamm/internal/logger"
	"github.com/elys-network/curveamm/internal/types"
)

var ledgerLogger = logger.GetForComponent("asset_ledger")

const defaultMailboxSize = 64

type LedgerConfig struct {
	ID       types.ActorID
	Admin    types.ActorID
	Minters  []types.ActorID
	Balances map[types.ActorID]sdkmath.LegacyDec // genesis balances, counted into supply
	Mailbox  int
}

type envelope struct {
	from  types.ActorID
	req   Request
	reply chan result
}

type result struct {
	reply Reply
	err   error
}

// Ledger is safe for concurrent use; all state is confined to its goroutine.
type Ledger struct {
	id      types.ActorID
	mailbox chan envelope
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// owned by run()
	admin     types.ActorID
	minters   map[types.ActorID]struct{}
	balances  map[types.ActorID]sdkmath.LegacyDec
	supply    sdkmath.LegacyDec
	approvals map[types.ActorID]map[types.ActorID]struct{}
}

// NewLedger starts the ledger goroutine. Close stops it.
func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	if cfg.ID.IsZero() {
		return nil, fmt.Errorf("%w: ledger id is zero", ErrInvalidRequest)
	}
	size := cfg.Mailbox
	if size <= 0 {
		size = defaultMailboxSize
	}

	l := &Ledger{
		id:        cfg.ID,
		mailbox:   make(chan envelope, size),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		admin:     cfg.Admin,
		minters:   make(map[types.ActorID]struct{}, len(cfg.Minters)),
		balances:  make(map[types.ActorID]sdkmath.LegacyDec, len(cfg.Balances)),
		supply:    sdkmath.LegacyZeroDec(),
		approvals: make(map[types.ActorID]map[types.ActorID]struct{}),
	}
	for _, m := range cfg.Minters {
		l.minters[m] = struct{}{}
	}
	for account, amount := range cfg.Balances {
		if err := validAmount(amount); err != nil {
			return nil, fmt.Errorf("genesis balance of %s: %w", account, err)
		}
		l.balances[account] = amount
		l.supply = l.supply.Add(amount)
	}

	go l.run()
	return l, nil
}

func (l *Ledger) ID() types.ActorID {
	return l.id
}

// Close stops the ledger and waits for its goroutine. Pending senders get
// ErrLedgerClosed.
func (l *Ledger) Close() {
	l.once.Do(func() { close(l.done) })
	<-l.stopped
}

// Send delivers req on behalf of from and waits for the reply.
func (l *Ledger) Send(ctx context.Context, from types.ActorID, req Request) (Reply, error) {
	env := envelope{from: from, req: req, reply: make(chan result, 1)}

	select {
	case l.mailbox <- env:
	case <-l.done:
		return nil, ErrLedgerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-env.reply:
		return res.reply, res.err
	case <-l.stopped:
		return nil, ErrLedgerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Ledger) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		case env := <-l.mailbox:
			reply, err := l.handle(env.from, env.req)
			if err != nil {
				ledgerLogger.Debug().
					Str("ledger", l.id.String()).
					Str("from", env.from.String()).
					Str("method", env.req.Method()).
					Err(err).
					Msg("Request rejected")
			}
			env.reply <- result{reply: reply, err: err}
		}
	}
}

func (l *Ledger) handle(from types.ActorID, req Request) (Reply, error) {
	switch r := req.(type) {
	case BalanceOf:
		return Balance{Amount: l.balanceOf(r.Account)}, nil

	case TotalSupply:
		return Supply{Amount: l.supply}, nil

	case Transfer:
		if err := l.move(from, r.To, r.Amount); err != nil {
			return nil, err
		}
		return Transferred{From: from, To: r.To, Amount: r.Amount}, nil

	case TransferFrom:
		if from != r.Owner && !l.isApproved(r.Owner, from) {
			return nil, fmt.Errorf("%w: %s is not approved to spend for %s", ErrRejected, from, r.Owner)
		}
		if err := l.move(r.Owner, r.To, r.Amount); err != nil {
			return nil, err
		}
		return Transferred{From: r.Owner, To: r.To, Amount: r.Amount}, nil

	case Mint:
		if err := l.requireMinter(from); err != nil {
			return nil, err
		}
		if err := validAmount(r.Amount); err != nil {
			return nil, err
		}
		l.balances[r.Account] = l.balanceOf(r.Account).Add(r.Amount)
		l.supply = l.supply.Add(r.Amount)
		return Transferred{To: r.Account, Amount: r.Amount}, nil

	case Burn:
		if err := l.requireMinter(from); err != nil {
			return nil, err
		}
		if err := validAmount(r.Amount); err != nil {
			return nil, err
		}
		balance := l.balanceOf(r.Account)
		if balance.LT(r.Amount) {
			return nil, fmt.Errorf("%w: burn %s exceeds balance %s of %s", ErrRejected, r.Amount, balance, r.Account)
		}
		l.balances[r.Account] = balance.Sub(r.Amount)
		l.supply = l.supply.Sub(r.Amount)
		return Transferred{From: r.Account, Amount: r.Amount}, nil

	case Approve:
		spenders, ok := l.approvals[from]
		if !ok {
			spenders = make(map[types.ActorID]struct{})
			l.approvals[from] = spenders
		}
		if r.Approved {
			spenders[r.Spender] = struct{}{}
		} else {
			delete(spenders, r.Spender)
		}
		return Approved{Owner: from, Spender: r.Spender, Approved: r.Approved}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported request %T", ErrInvalidRequest, req)
	}
}

func (l *Ledger) balanceOf(account types.ActorID) sdkmath.LegacyDec {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return sdkmath.LegacyZeroDec()
}

func (l *Ledger) move(from, to types.ActorID, amount sdkmath.LegacyDec) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	balance := l.balanceOf(from)
	if balance.LT(amount) {
		return fmt.Errorf("%w: transfer %s exceeds balance %s of %s", ErrRejected, amount, balance, from)
	}
	l.balances[from] = balance.Sub(amount)
	l.balances[to] = l.balanceOf(to).Add(amount)
	return nil
}

func (l *Ledger) isApproved(owner, spender types.ActorID) bool {
	_, ok := l.approvals[owner][spender]
	return ok
}

func (l *Ledger) requireMinter(caller types.ActorID) error {
	if caller == l.admin {
		return nil
	}
	if _, ok := l.minters[caller]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s may not mint or burn", ErrRejected, caller)
}
