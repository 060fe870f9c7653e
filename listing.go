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

package plaza

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/plazahq/plaza/internal/apierror"
	redlock "github.com/plazahq/plaza/internal/lock"
	"github.com/plazahq/plaza/internal/notification"
	"github.com/plazahq/plaza/model"
	"github.com/plazahq/plaza/pricing"
)

var (
	tracer = otel.Tracer("Listing lifecycle")
)

// reconcileDelay is how long after submission an unsettled payment gets its
// first background verification.
const reconcileDelay = 15 * time.Minute

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// CreateDraft validates the category and duration pairing and persists a new
// draft listing. Pricing is only checked for validity here; nothing is
// charged until the owner submits for publishing.
func (l *Plaza) CreateDraft(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Creating draft listing")
	defer span.End()

	if _, _, err := pricing.PriceForCategory(listing.Category, listing.Duration); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidCombination, fmt.Sprintf("%s listings cannot run for %d days", listing.Category, listing.Duration), err)
	}

	listing.ListingID = model.GenerateUUIDWithSuffix("lst")
	listing.Status = model.StatusDraft
	listing.CreatedAt = time.Now()
	listing.PublishedAt = nil
	listing.ExpirationDate = nil

	persisted, err := l.datasource.CreateListing(ctx, listing)
	if err != nil {
		return nil, logAndRecordError(span, "create draft error", err)
	}
	return persisted, nil
}

// SaveAsDraft updates the editable fields of a listing that is still in
// draft. Published listings cannot be edited in place.
func (l *Plaza) SaveAsDraft(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Saving listing draft")
	defer span.End()

	current, err := l.datasource.GetListingByID(ctx, listing.ListingID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusDraft {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("listing %s is %s and can no longer be edited", listing.ListingID, current.Status), nil)
	}

	if _, _, err := pricing.PriceForCategory(listing.Category, listing.Duration); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidCombination, fmt.Sprintf("%s listings cannot run for %d days", listing.Category, listing.Duration), err)
	}

	if err := l.datasource.UpdateListing(ctx, listing); err != nil {
		return nil, logAndRecordError(span, "save draft error", err)
	}
	return l.datasource.GetListingByID(ctx, listing.ListingID)
}

// SubmitForPublish prices the listing, applies the discount code, creates the
// payment, and moves the listing to PENDING_PAYMENT. A free outcome (universal
// code or full discount) activates the listing immediately; a paid one
// returns the payable link and schedules a background reconciliation check.
func (l *Plaza) SubmitForPublish(ctx context.Context, listingID, discountCode string) (*model.Listing, *model.PaymentRecord, error) {
	ctx, span := tracer.Start(ctx, "Submitting listing for publishing")
	defer span.End()

	listing, err := l.datasource.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.Status != model.StatusDraft {
		return nil, nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("listing %s is %s, only drafts can be submitted", listingID, listing.Status), nil)
	}

	priceCategory, baseAmount, err := pricing.PriceForCategory(listing.Category, listing.Duration)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidCombination, fmt.Sprintf("%s listings cannot run for %d days", listing.Category, listing.Duration), err)
	}

	discountResult, err := l.discounts.Apply(ctx, discountCode, priceCategory, baseAmount)
	if err != nil {
		return nil, nil, err
	}

	payment, err := l.gateway.CreatePayment(ctx, listing, discountResult.FinalAmountCents)
	if err != nil {
		return nil, nil, err
	}

	payment, err = l.datasource.RecordPayment(ctx, payment)
	if err != nil {
		return nil, nil, logAndRecordError(span, "record payment error", err)
	}

	if err := l.datasource.AttachPayment(ctx, listingID, payment.PaymentID, discountResult.Code); err != nil {
		return nil, nil, logAndRecordError(span, "attach payment error", err)
	}

	moved, err := l.datasource.UpdateListingStatus(ctx, listingID, model.StatusDraft, model.StatusPendingPayment)
	if err != nil {
		return nil, nil, logAndRecordError(span, "pending payment transition error", err)
	}
	if !moved {
		return nil, nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("listing %s was submitted concurrently", listingID), nil)
	}
	listing.Status = model.StatusPendingPayment
	listing.PaymentID = payment.PaymentID
	listing.DiscountCode = discountResult.Code

	if payment.Status == model.PaymentStatusCompleted {
		activated, err := l.activateListing(ctx, listing)
		if err != nil {
			return nil, nil, err
		}
		return activated, payment, nil
	}

	if err := l.queue.EnqueueReconcilePayment(ctx, payment.PaymentID, reconcileDelay); err != nil {
		// the confirm endpoint still settles the payment without it
		logrus.Errorf("failed to schedule reconciliation for %s: %v", payment.PaymentID, err)
	}

	return listing, payment, nil
}

// ConfirmPayment verifies a payment and activates its listing when the
// outcome is acceptable. Confirming an already-activated listing is a no-op
// returning the listing as is, so gateway redirects and retries are safe.
func (l *Plaza) ConfirmPayment(ctx context.Context, paymentID string) (*model.Listing, model.VerificationResult, error) {
	ctx, span := tracer.Start(ctx, "Confirming listing payment")
	defer span.End()

	payment, err := l.datasource.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, model.VerificationPending, err
	}

	listing, err := l.datasource.GetListingByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, model.VerificationPending, err
	}

	if listing.IsPublished() {
		return listing, model.VerificationCompleted, nil
	}

	result, err := l.gateway.VerifyPayment(ctx, payment)
	if err != nil {
		return nil, result, err
	}

	switch {
	case result.Acceptable():
		if result == model.VerificationCompleted && !payment.IsTerminal() {
			completedAt := time.Now()
			if err := l.datasource.MarkPaymentCompleted(ctx, paymentID, completedAt); err != nil {
				return nil, result, err
			}
			payment.Status = model.PaymentStatusCompleted
			payment.CompletedAt = &completedAt
			go func() {
				err := SendWebhook(NewWebhook{
					Event:   "payment.completed",
					Payload: payment,
				})
				if err != nil {
					notification.NotifyError(err)
				}
			}()
		}
		activated, err := l.activateListing(ctx, listing)
		if err != nil {
			return nil, result, err
		}
		if result == model.VerificationPendingAcceptable {
			// settlement still unproven, keep reconciliation on the hook
			logrus.Warnf("payment %s unverifiable, activated listing %s provisionally", paymentID, listing.ListingID)
			if err := l.queue.EnqueueReconcilePayment(ctx, paymentID, reconcileDelay); err != nil {
				logrus.Errorf("failed to schedule reconciliation for %s: %v", paymentID, err)
			}
			go func() {
				err := SendWebhook(NewWebhook{
					Event:   "payment.ambiguous",
					Payload: payment,
				})
				if err != nil {
					notification.NotifyError(err)
				}
			}()
		}
		return activated, result, nil
	case result == model.VerificationFailed:
		failStatus := model.PaymentStatusError
		if payment.Status == model.PaymentStatusCanceled {
			failStatus = model.PaymentStatusCanceled
		}
		if err := l.datasource.UpdatePaymentStatus(ctx, paymentID, failStatus); err != nil {
			return nil, result, err
		}
		payment.Status = failStatus
		go func() {
			err := SendWebhook(NewWebhook{
				Event:   "payment.failed",
				Payload: payment,
			})
			if err != nil {
				notification.NotifyError(err)
			}
		}()
		return listing, result, apierror.NewAPIError(apierror.ErrPaymentFailed, fmt.Sprintf("payment %s was not completed", paymentID), nil)
	default:
		// definitely not paid yet, leave the listing pending
		return listing, result, nil
	}
}

// Republish resets a previously published listing to a fresh draft cycle
// with the requested duration and runs it through the normal publish flow.
// The republished listing gets new publication dates and a new payment.
func (l *Plaza) Republish(ctx context.Context, listingID string, duration model.Duration, discountCode string) (*model.Listing, *model.PaymentRecord, error) {
	ctx, span := tracer.Start(ctx, "Republishing listing")
	defer span.End()

	listing, err := l.datasource.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.Status != model.StatusExpired && listing.Status != model.StatusDeleted && !listing.IsPublished() {
		return nil, nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("listing %s is %s, only published or expired listings can be republished", listingID, listing.Status), nil)
	}

	if _, _, err := pricing.PriceForCategory(listing.Category, duration); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidCombination, fmt.Sprintf("%s listings cannot run for %d days", listing.Category, duration), err)
	}

	if err := l.datasource.ResetListingForRepublish(ctx, listingID, duration); err != nil {
		return nil, nil, logAndRecordError(span, "republish reset error", err)
	}

	return l.SubmitForPublish(ctx, listingID, discountCode)
}

// GetListing retrieves a listing by ID.
func (l *Plaza) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	return l.datasource.GetListingByID(ctx, id)
}

// GetListingsByOwner retrieves an owner's listings, newest first.
func (l *Plaza) GetListingsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Listing, error) {
	return l.datasource.GetListingsByOwner(ctx, ownerID, limit, offset)
}

// GetPayment retrieves a payment record by ID.
func (l *Plaza) GetPayment(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	return l.datasource.GetPaymentByID(ctx, paymentID)
}

// activateListing stamps the publication window and moves the listing to
// ACTIVE under a distributed lock. The CAS on PENDING_PAYMENT makes the
// activation idempotent: the loser of a concurrent confirmation observes
// rowsAffected zero and returns the already-activated listing.
func (l *Plaza) activateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Activating listing")
	defer span.End()

	locker := redlock.NewLocker(l.redis, fmt.Sprintf("activate:%s", listing.ListingID), model.GenerateUUIDWithSuffix("loc"))
	if err := locker.Lock(ctx, time.Minute); err != nil {
		return nil, logAndRecordError(span, "activation lock error", err)
	}
	defer func(locker *redlock.Locker, ctx context.Context) {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("activation lock release error", err)
		}
	}(locker, ctx)

	publishedAt := time.Now()
	expiration := publishedAt.AddDate(0, 0, int(listing.Duration))

	activated, err := l.datasource.ActivateListing(ctx, listing.ListingID, publishedAt, expiration)
	if err != nil {
		return nil, logAndRecordError(span, "activation error", err)
	}
	if !activated {
		// someone else won, report their result
		return l.datasource.GetListingByID(ctx, listing.ListingID)
	}

	listing.Status = model.StatusActive
	listing.PublishedAt = &publishedAt
	listing.ExpirationDate = &expiration

	l.postActivationActions(ctx, listing)
	return listing, nil
}

func (l *Plaza) postActivationActions(_ context.Context, listing *model.Listing) {
	go func() {
		err := SendWebhook(NewWebhook{
			Event:   "listing.activated",
			Payload: listing,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}
