// SPDX-License-Identifier: MIT
package types

import (
	"encoding/json"
	"fmt"
)

// DistributionType selects how a beneficiary's share is paid out.
type DistributionType string

const (
	// DistributionInstant pays the full share in a single transfer.
	DistributionInstant DistributionType = "instant"

	// DistributionStreamed pays the share through a linear vesting stream.
	DistributionStreamed DistributionType = "streamed"
)

// String implements fmt.Stringer.
func (d DistributionType) String() string {
	return string(d)
}

// IsValid checks whether the distribution type is defined.
func (d DistributionType) IsValid() bool {
	return d == DistributionInstant || d == DistributionStreamed
}

// MarshalJSON implements json.Marshaler.
func (d DistributionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DistributionType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	dt := DistributionType(str)
	if !dt.IsValid() {
		return fmt.Errorf("invalid distribution type: %q", str)
	}

	*d = dt
	return nil
}
