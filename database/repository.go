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

package database

import (
	"context"
	"time"

	"github.com/plazahq/plaza/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	listing // Interface for listing-related operations
	payment // Interface for payment-related operations
}

// listing defines methods for handling listings.
type listing interface {
	CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error)                        // Records a new listing
	GetListingByID(ctx context.Context, id string) (*model.Listing, error)                                    // Retrieves a listing by ID
	GetListingByPaymentID(ctx context.Context, paymentID string) (*model.Listing, error)                      // Retrieves the listing a payment belongs to
	GetListingsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Listing, error)      // Retrieves an owner's listings
	UpdateListing(ctx context.Context, listing *model.Listing) error                                          // Updates the editable fields of a listing
	UpdateListingStatus(ctx context.Context, id string, fromStatus, toStatus string) (bool, error)            // Compare-and-swap status transition
	AttachPayment(ctx context.Context, listingID, paymentID, discountCode string) error                       // Binds a payment and discount code to a listing
	ActivateListing(ctx context.Context, id string, publishedAt, expirationDate time.Time) (bool, error)      // Activates a pending listing and stamps its cycle dates
	ResetListingForRepublish(ctx context.Context, id string, duration model.Duration) error                   // Resets a listing to a fresh draft cycle
	PurgeListingContent(ctx context.Context, id string) error                                                 // Clears contact details and description from a deleted listing
	GetSweepCandidates(ctx context.Context, cutoff time.Time, batchSize int, afterExpiration time.Time, afterID string) ([]*model.Listing, error) // Retrieves published listings whose expiration falls before the cutoff, keyset-paged
	BackfillDraftStatus(ctx context.Context) (int64, error)                                                   // Assigns DRAFT to listings predating status tracking
}

// payment defines methods for handling payment records.
type payment interface {
	RecordPayment(ctx context.Context, payment *model.PaymentRecord) (*model.PaymentRecord, error) // Records a new payment
	GetPaymentByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error)            // Retrieves a payment by ID
	GetPaymentsByListingID(ctx context.Context, listingID string) ([]*model.PaymentRecord, error)  // Retrieves all payments for a listing
	UpdatePaymentStatus(ctx context.Context, paymentID string, status string) error                // Updates the status of a payment
	MarkPaymentCompleted(ctx context.Context, paymentID string, completedAt time.Time) error       // Marks a payment completed with its settlement time
	GetPendingPayments(ctx context.Context, batchSize int, offset int64) ([]*model.PaymentRecord, error) // Retrieves non-terminal payments for reconciliation
}
