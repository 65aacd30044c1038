// SPDX-License-Identifier: MIT
package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldVaultID     = "vault_id"
	FieldOwner       = "owner"
	FieldBeneficiary = "beneficiary"
	FieldRecipient   = "recipient"
	FieldStreamID    = "stream_id"
	FieldRequestID   = "request_id"

	// Asset fields
	FieldToken  = "token"
	FieldAmount = "amount"

	// State fields
	FieldEvent    = "event"
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldDeadline = "deadline"

	// Process fields
	FieldComponent = "component"
	FieldAction    = "action"
	FieldOutcome   = "outcome"
)
