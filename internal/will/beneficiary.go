// SPDX-License-Identifier: MIT
package will

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/farholt/heirloomd/internal/types"
)

// Payout is how a beneficiary's share is paid out. It is a tagged variant:
// the stream duration exists only for streamed payouts.
type Payout struct {
	kind           types.DistributionType
	streamDuration time.Duration
}

// InstantPayout pays the share in a single transfer.
func InstantPayout() Payout {
	return Payout{kind: types.DistributionInstant}
}

// StreamedPayout pays the share through a linear vesting stream of the given duration.
func StreamedPayout(duration time.Duration) Payout {
	return Payout{kind: types.DistributionStreamed, streamDuration: duration}
}

// Type returns the distribution type of this payout.
func (p Payout) Type() types.DistributionType {
	return p.kind
}

// StreamDuration returns the vesting duration. The second return is false for
// instant payouts, which have no duration.
func (p Payout) StreamDuration() (time.Duration, bool) {
	if p.kind != types.DistributionStreamed {
		return 0, false
	}
	return p.streamDuration, true
}

type payoutJSON struct {
	Type                  types.DistributionType `json:"type"`
	StreamDurationSeconds int64                  `json:"stream_duration_seconds,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Payout) MarshalJSON() ([]byte, error) {
	out := payoutJSON{Type: p.kind}
	if p.kind == types.DistributionStreamed {
		out.StreamDurationSeconds = int64(p.streamDuration / time.Second)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payout) UnmarshalJSON(data []byte) error {
	var in payoutJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return fmt.Errorf("invalid payout type: %q", in.Type)
	}
	p.kind = in.Type
	p.streamDuration = 0
	if in.Type == types.DistributionStreamed {
		p.streamDuration = time.Duration(in.StreamDurationSeconds) * time.Second
	}
	return nil
}

// Beneficiary is one entry of a will: who receives which share, and how.
type Beneficiary struct {
	Address     types.Address `json:"address"`
	BasisPoints uint32        `json:"basis_points"` // share of the vault, 10000 = 100%
	Payout      Payout        `json:"payout"`
}

// Validate checks the beneficiary list invariants: non-empty, percentages sum
// to exactly 10000 bp, no zero addresses, streamed payouts have a positive
// duration. It never partially applies; the first violated invariant is returned.
func Validate(beneficiaries []Beneficiary) error {
	if len(beneficiaries) == 0 {
		return ErrNoBeneficiaries
	}

	var sum uint64
	for i, b := range beneficiaries {
		if b.Address.IsZero() {
			return fmt.Errorf("%w: entry %d", ErrZeroBeneficiary, i)
		}
		if d, streamed := b.Payout.StreamDuration(); streamed && d <= 0 {
			return fmt.Errorf("%w: entry %d", ErrStreamDurationZero, i)
		}
		sum += uint64(b.BasisPoints)
	}

	if sum != types.BasisPointsDenominator {
		return fmt.Errorf("%w: percentages sum to %d bp, want %d", ErrInvalidPercentages, sum, types.BasisPointsDenominator)
	}
	return nil
}

func copyBeneficiaries(in []Beneficiary) []Beneficiary {
	if in == nil {
		return nil
	}
	out := make([]Beneficiary, len(in))
	copy(out, in)
	return out
}
