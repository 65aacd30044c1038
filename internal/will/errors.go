// SPDX-License-Identifier: MIT
package will

import "errors"

var (
	ErrNotOwner           = errors.New("caller is not the vault owner")
	ErrNoBeneficiaries    = errors.New("will has no beneficiaries")
	ErrInvalidPercentages = errors.New("beneficiary percentages must sum to 10000 basis points")
	ErrZeroBeneficiary    = errors.New("beneficiary address must not be zero")
	ErrStreamDurationZero = errors.New("streamed payout requires a positive duration")
	ErrNoPendingProposal  = errors.New("no pending will proposal")
	ErrTimelocked         = errors.New("will proposal is still timelocked")
)
