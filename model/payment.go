/*
Copyright 2025 Plaza Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"encoding/json"
	"time"
)

// PaymentRecord statuses. Created and Pending are transient; Completed,
// Canceled and Error are terminal and never left.
const (
	PaymentStatusCreated   = "CREATED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCanceled  = "CANCELED"
	PaymentStatusError     = "ERROR"
)

// VerificationResult is the four-valued outcome of verifying a payment
// against the external provider.
type VerificationResult string

const (
	// VerificationCompleted means the provider confirmed the charge.
	VerificationCompleted VerificationResult = "COMPLETED"
	// VerificationPendingAcceptable means the provider either knows the
	// payment but has not marked it complete, or could not be reached at
	// all. Callers may proceed with activation; a reconciliation pass
	// settles the record later.
	VerificationPendingAcceptable VerificationResult = "PENDING_ACCEPTABLE"
	// VerificationPending means the payment link exists but the user has not
	// finished the provider flow.
	VerificationPending VerificationResult = "PENDING"
	// VerificationFailed means the provider explicitly reported a cancel or
	// error for the payment.
	VerificationFailed VerificationResult = "FAILED"
)

// Acceptable reports whether the result permits listing activation.
func (v VerificationResult) Acceptable() bool {
	return v == VerificationCompleted || v == VerificationPendingAcceptable
}

// PaymentRecord tracks one real or synthetic (free) payment attached to a
// single publish attempt.
type PaymentRecord struct {
	ID             int64                  `json:"-"`
	PaymentID      string                 `json:"id"`
	ListingID      string                 `json:"listing_id"`
	ExternalLinkID string                 `json:"external_link_id,omitempty"`
	PayableUrl     string                 `json:"payable_url,omitempty"`
	AmountCents    int64                  `json:"amount_cents"`
	IsFree         bool                   `json:"is_free"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

func (payment *PaymentRecord) ToJSON() ([]byte, error) {
	return json.Marshal(payment)
}

// IsTerminal reports whether the record has reached a status that must never
// change again. Re-verifying a terminal record is a no-op.
func (payment *PaymentRecord) IsTerminal() bool {
	switch payment.Status {
	case PaymentStatusCompleted, PaymentStatusCanceled, PaymentStatusError:
		return true
	}
	return false
}
