// SPDX-License-Identifier: MIT
package vault

import (
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	xlog "github.com/farholt/heirloomd/internal/log"
	"github.com/farholt/heirloomd/internal/types"
)

// Event is a vault notification. Every successful state change, fund movement
// and distribution payout emits one.
type Event interface {
	Kind() string
}

// Sink receives vault events.
type Sink interface {
	Emit(ev Event)
}

// StateChanged carries (previousState, newState, timestamp) for a transition.
type StateChanged struct {
	VaultID  string
	Previous types.VaultState
	New      types.VaultState
	At       time.Time
}

func (StateChanged) Kind() string { return "state_changed" }

// Deposited reports a successful owner deposit.
type Deposited struct {
	VaultID string
	Token   types.Token
	Amount  math.Int
}

func (Deposited) Kind() string { return "deposited" }

// Withdrawn reports a successful owner withdrawal.
type Withdrawn struct {
	VaultID string
	Token   types.Token
	Amount  math.Int
}

func (Withdrawn) Kind() string { return "withdrawn" }

// WillProposed reports a new pending will proposal.
type WillProposed struct {
	VaultID     string
	EffectiveAt time.Time
}

func (WillProposed) Kind() string { return "will_proposed" }

// WillActivated reports a pending proposal becoming the active will.
type WillActivated struct {
	VaultID       string
	Beneficiaries int
}

func (WillActivated) Kind() string { return "will_activated" }

// ProposalCancelled reports the pending proposal being discarded.
type ProposalCancelled struct {
	VaultID string
}

func (ProposalCancelled) Kind() string { return "proposal_cancelled" }

// Distributed reports one per-beneficiary payout during distribution.
type Distributed struct {
	VaultID     string
	Beneficiary types.Address
	Token       types.Token
	Amount      math.Int
	Type        types.DistributionType
}

func (Distributed) Kind() string { return "distributed" }

// StreamCreated reports a vesting stream opened during distribution.
type StreamCreated struct {
	VaultID   string
	StreamID  uint64
	Recipient types.Address
	Token     types.Token
	Amount    math.Int
	Duration  time.Duration
}

func (StreamCreated) Kind() string { return "stream_created" }

// StreamClaimed reports a successful claim against a stream.
type StreamClaimed struct {
	VaultID  string
	StreamID uint64
	Token    types.Token
	Amount   math.Int
}

func (StreamClaimed) Kind() string { return "stream_claimed" }

// StreamCompleted reports a stream being fully claimed and closed.
type StreamCompleted struct {
	VaultID  string
	StreamID uint64
}

func (StreamCompleted) Kind() string { return "stream_completed" }

// LogSink writes events to the structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a sink logging under the "vault" component.
func NewLogSink() *LogSink {
	return &LogSink{log: xlog.WithComponent("vault")}
}

// Emit implements Sink.
func (s *LogSink) Emit(ev Event) {
	e := s.log.Info().Str(xlog.FieldEvent, ev.Kind())
	switch v := ev.(type) {
	case StateChanged:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Str(xlog.FieldOldState, v.Previous.String()).
			Str(xlog.FieldNewState, v.New.String())
	case Deposited:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Str(xlog.FieldToken, v.Token.String()).
			Str(xlog.FieldAmount, v.Amount.String())
	case Withdrawn:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Str(xlog.FieldToken, v.Token.String()).
			Str(xlog.FieldAmount, v.Amount.String())
	case WillProposed:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Time(xlog.FieldDeadline, v.EffectiveAt)
	case WillActivated:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Int("beneficiaries", v.Beneficiaries)
	case ProposalCancelled:
		e = e.Str(xlog.FieldVaultID, v.VaultID)
	case Distributed:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Str(xlog.FieldBeneficiary, v.Beneficiary.String()).
			Str(xlog.FieldToken, v.Token.String()).
			Str(xlog.FieldAmount, v.Amount.String()).
			Str("distribution_type", v.Type.String())
	case StreamCreated:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Uint64(xlog.FieldStreamID, v.StreamID).
			Str(xlog.FieldRecipient, v.Recipient.String()).
			Str(xlog.FieldToken, v.Token.String()).
			Str(xlog.FieldAmount, v.Amount.String()).
			Dur("duration", v.Duration)
	case StreamClaimed:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Uint64(xlog.FieldStreamID, v.StreamID).
			Str(xlog.FieldToken, v.Token.String()).
			Str(xlog.FieldAmount, v.Amount.String())
	case StreamCompleted:
		e = e.Str(xlog.FieldVaultID, v.VaultID).
			Uint64(xlog.FieldStreamID, v.StreamID)
	}
	e.Msg("vault event")
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}
