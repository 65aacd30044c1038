// SPDX-License-Identifier: MIT

// Package stream maintains linear-vesting payment streams: pure accounting
// over (total, claimed, start, end) tuples plus the claim transfers against
// the engine's custody account.
package stream

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cosmossdk.io/math"

	"github.com/farholt/heirloomd/internal/ledger"
	"github.com/farholt/heirloomd/internal/types"
)

var (
	ErrStreamNotFound   = errors.New("stream not found")
	ErrNotRecipient     = errors.New("caller is not the stream recipient")
	ErrNothingToClaim   = errors.New("nothing to claim")
	ErrStreamCompleted  = errors.New("stream already completed")
	ErrCustodyShortfall = errors.New("stream custody does not cover the stream total")
	ErrInvalidStream    = errors.New("invalid stream parameters")
)

// Stream is one linear-vesting payment record.
//
// Invariants: 0 <= Claimed <= Total, StartTime <= EndTime. Once Claimed equals
// Total the stream is terminal and Active is false.
type Stream struct {
	ID        uint64        `json:"id"`
	Recipient types.Address `json:"recipient"`
	Token     types.Token   `json:"token"`
	Total     math.Int      `json:"total"`
	Claimed   math.Int      `json:"claimed"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Active    bool          `json:"active"`
}

// VestedAt returns the amount vested at the given time: the full total at or
// after EndTime, otherwise total * elapsed / duration with floor division.
func (s Stream) VestedAt(now time.Time) math.Int {
	if !now.Before(s.EndTime) {
		return s.Total
	}
	if !now.After(s.StartTime) {
		return math.ZeroInt()
	}

	elapsed := int64(now.Sub(s.StartTime) / time.Second)
	duration := int64(s.EndTime.Sub(s.StartTime) / time.Second)
	if duration <= 0 {
		return s.Total
	}
	return s.Total.Mul(math.NewInt(elapsed)).Quo(math.NewInt(duration))
}

// Engine owns the stream table for one vault. Streams are created only by the
// owning vault during distribution; the engine is reachable solely through
// that vault, and claim authorization is checked explicitly per call.
// The vault serializes access, so the engine carries no lock.
type Engine struct {
	ledger  ledger.Transferor
	custody types.Address

	nextID      uint64
	streams     map[uint64]*Stream
	outstanding map[types.Token]math.Int // unclaimed totals across active streams
}

// NewEngine returns an empty engine whose unvested funds live in custody.
func NewEngine(l ledger.Transferor, custody types.Address) *Engine {
	return &Engine{
		ledger:      l,
		custody:     custody,
		nextID:      1,
		streams:     make(map[uint64]*Stream),
		outstanding: make(map[types.Token]math.Int),
	}
}

// Custody returns the engine's custody account.
func (e *Engine) Custody() types.Address {
	return e.custody
}

// CreateStream allocates a new stream vesting total over duration, starting
// now. The total must already sit in the engine's custody account.
func (e *Engine) CreateStream(recipient types.Address, token types.Token, total math.Int, duration time.Duration, now time.Time) (uint64, error) {
	if recipient.IsZero() {
		return 0, fmt.Errorf("%w: zero recipient", ErrInvalidStream)
	}
	if total.IsNil() || !total.IsPositive() {
		return 0, fmt.Errorf("%w: non-positive total", ErrInvalidStream)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration", ErrInvalidStream)
	}

	required := e.outstandingFor(token).Add(total)
	if e.ledger.Balance(e.custody, token).LT(required) {
		return 0, fmt.Errorf("%w: need %s %s in custody", ErrCustodyShortfall, required, token)
	}

	id := e.nextID
	e.nextID++
	e.streams[id] = &Stream{
		ID:        id,
		Recipient: recipient,
		Token:     token,
		Total:     total,
		Claimed:   math.ZeroInt(),
		StartTime: now,
		EndTime:   now.Add(duration),
		Active:    true,
	}
	e.outstanding[token] = required
	return id, nil
}

// Claimable returns the amount the recipient could claim right now. Unknown
// and inactive streams report zero; this is a read-only convenience query.
func (e *Engine) Claimable(id uint64, now time.Time) math.Int {
	s, ok := e.streams[id]
	if !ok || !s.Active {
		return math.ZeroInt()
	}
	return s.VestedAt(now).Sub(s.Claimed)
}

// Claim pays out the currently claimable amount to the stream's recipient.
// Returns the paid amount and whether the stream completed with this claim.
func (e *Engine) Claim(id uint64, caller types.Address, now time.Time) (math.Int, bool, error) {
	s, ok := e.streams[id]
	if !ok {
		return math.ZeroInt(), false, ErrStreamNotFound
	}
	if caller != s.Recipient {
		return math.ZeroInt(), false, ErrNotRecipient
	}
	if !s.Active {
		return math.ZeroInt(), false, ErrStreamCompleted
	}

	claimable := s.VestedAt(now).Sub(s.Claimed)
	if !claimable.IsPositive() {
		return math.ZeroInt(), false, ErrNothingToClaim
	}

	// Bookkeeping before the outbound transfer.
	s.Claimed = s.Claimed.Add(claimable)
	completed := s.Claimed.Equal(s.Total)
	if completed {
		s.Active = false
	}
	e.outstanding[s.Token] = e.outstandingFor(s.Token).Sub(claimable)

	if err := e.ledger.Transfer(e.custody, s.Recipient, s.Token, claimable); err != nil {
		// Roll the bookkeeping back; nothing was paid.
		s.Claimed = s.Claimed.Sub(claimable)
		s.Active = true
		e.outstanding[s.Token] = e.outstandingFor(s.Token).Add(claimable)
		return math.ZeroInt(), false, fmt.Errorf("claim transfer: %w", err)
	}
	return claimable, completed, nil
}

// Get returns a copy of the stream with the given id.
func (e *Engine) Get(id uint64) (Stream, bool) {
	s, ok := e.streams[id]
	if !ok {
		return Stream{}, false
	}
	return *s, true
}

// ForRecipient returns copies of all streams paying the given recipient,
// ordered by id.
func (e *Engine) ForRecipient(recipient types.Address) []Stream {
	var out []Stream
	for _, s := range e.streams {
		if s.Recipient == recipient {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClaimableFor sums the claimable amounts across a recipient's active streams
// of the given token.
func (e *Engine) ClaimableFor(recipient types.Address, token types.Token, now time.Time) math.Int {
	total := math.ZeroInt()
	for id, s := range e.streams {
		if s.Recipient == recipient && s.Token == token {
			total = total.Add(e.Claimable(id, now))
		}
	}
	return total
}

func (e *Engine) outstandingFor(token types.Token) math.Int {
	if v, ok := e.outstanding[token]; ok {
		return v
	}
	return math.ZeroInt()
}

// Snapshot captures the stream table for persistence.
type Snapshot struct {
	NextID  uint64   `json:"next_id"`
	Streams []Stream `json:"streams"`
}

// Snapshot returns a copy of the engine state, streams ordered by id.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{NextID: e.nextID}
	for _, s := range e.streams {
		snap.Streams = append(snap.Streams, *s)
	}
	sort.Slice(snap.Streams, func(i, j int) bool { return snap.Streams[i].ID < snap.Streams[j].ID })
	return snap
}

// Restore replaces the engine state from a snapshot and recomputes the
// per-token outstanding totals.
func (e *Engine) Restore(snap Snapshot) {
	e.nextID = snap.NextID
	if e.nextID == 0 {
		e.nextID = 1
	}
	e.streams = make(map[uint64]*Stream, len(snap.Streams))
	e.outstanding = make(map[types.Token]math.Int)
	for _, s := range snap.Streams {
		cp := s
		e.streams[cp.ID] = &cp
		if cp.Active {
			remaining := cp.Total.Sub(cp.Claimed)
			e.outstanding[cp.Token] = e.outstandingFor(cp.Token).Add(remaining)
		}
	}
}
