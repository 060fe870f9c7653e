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

// Package gateway adapts the external payment provider. Free listings get a
// synthetic completed payment without any provider round trip, and payment
// verification degrades gracefully: when the provider cannot give a definite
// answer the listing flow is allowed to proceed rather than blocking the
// publisher on third-party downtime.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/internal/request"
	"github.com/plazahq/plaza/model"
)

type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

type createLinkRequest struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	RedirectUrl string `json:"redirect_url,omitempty"`
}

type createLinkResponse struct {
	LinkID string `json:"link_id"`
	Url    string `json:"url"`
}

type linkStatusResponse struct {
	Status string `json:"status"`
}

// CreatePayment creates the payment record for a listing. A zero amount
// synthesizes a completed free payment locally; any other amount creates a
// payable link on the provider.
func (a *Adapter) CreatePayment(ctx context.Context, listing *model.Listing, amountCents int64) (*model.PaymentRecord, error) {
	if amountCents < 0 {
		return nil, apierror.NewAPIError(apierror.ErrPaymentCreationFailed, "payment amount cannot be negative", nil)
	}

	now := time.Now()
	record := &model.PaymentRecord{
		PaymentID:   model.GenerateUUIDWithSuffix("pay"),
		ListingID:   listing.ListingID,
		AmountCents: amountCents,
		CreatedAt:   now,
	}

	if amountCents == 0 {
		record.IsFree = true
		record.Status = model.PaymentStatusCompleted
		record.CompletedAt = &now
		return record, nil
	}

	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if cnf.PaymentGateway.Url == "" {
		return nil, apierror.NewAPIError(apierror.ErrPaymentCreationFailed, "payment gateway is not configured", nil)
	}

	resp, err := a.createLink(ctx, cnf, record.PaymentID, amountCents, listing.Title)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrPaymentCreationFailed, "could not create payment link", err)
	}

	// link generated, so the record enters the world already PENDING
	record.Status = model.PaymentStatusPending
	record.ExternalLinkID = resp.LinkID
	record.PayableUrl = resp.Url
	return record, nil
}

// VerifyPayment returns the four-valued verification outcome for a payment.
// Terminal records short-circuit without a provider call. A provider that
// times out, is unreachable, or answers ambiguously yields
// VerificationPendingAcceptable so publishing is not held hostage to the
// provider being up.
func (a *Adapter) VerifyPayment(ctx context.Context, record *model.PaymentRecord) (model.VerificationResult, error) {
	if record.IsTerminal() {
		switch record.Status {
		case model.PaymentStatusCompleted:
			return model.VerificationCompleted, nil
		default:
			return model.VerificationFailed, nil
		}
	}

	cnf, err := config.Fetch()
	if err != nil {
		return model.VerificationPending, err
	}
	if record.ExternalLinkID == "" {
		// no payable link was ever issued, there is nothing to verify
		return model.VerificationPending, nil
	}
	if cnf.PaymentGateway.Url == "" {
		logrus.Warnf("payment %s cannot be verified, gateway not configured, accepting as pending", record.PaymentID)
		return model.VerificationPendingAcceptable, nil
	}

	url := fmt.Sprintf("%s/payment-links/%s", strings.TrimRight(cnf.PaymentGateway.Url, "/"), record.ExternalLinkID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.VerificationPending, errors.Wrap(err, "building verification request")
	}
	req.Header.Set("X-Api-Key", cnf.PaymentGateway.ApiKey)

	var status linkStatusResponse
	resp, err := request.CallWithTimeout(req, &status, cnf.VerifyTimeout())
	if err != nil {
		logrus.Warnf("payment %s verification unreachable, accepting as pending: %v", record.PaymentID, err)
		return model.VerificationPendingAcceptable, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		logrus.Warnf("payment %s verification returned %d, accepting as pending", record.PaymentID, resp.StatusCode)
		return model.VerificationPendingAcceptable, nil
	}

	result := mapProviderStatus(record.PaymentID, status.Status)
	if result == model.VerificationFailed {
		// surface the provider's terminal answer on the record so the
		// caller persists CANCELED or ERROR, not a blanket error
		record.Status = model.PaymentStatusError
		switch strings.ToLower(status.Status) {
		case "canceled", "cancelled":
			record.Status = model.PaymentStatusCanceled
		}
	}
	return result, nil
}

func (a *Adapter) createLink(ctx context.Context, cnf *config.Configuration, reference string, amountCents int64, description string) (*createLinkResponse, error) {
	payload, err := request.ToJsonReq(&createLinkRequest{
		Reference:   reference,
		AmountCents: amountCents,
		Description: description,
		RedirectUrl: cnf.PaymentGateway.RedirectUrl,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(cnf.PaymentGateway.Url, "/") + "/payment-links"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", cnf.PaymentGateway.ApiKey)

	var response createLinkResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		return nil, errors.Wrap(err, "payment gateway unreachable")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}
	if response.LinkID == "" {
		return nil, errors.New("payment gateway returned no link id")
	}
	return &response, nil
}

// mapProviderStatus folds the provider's vocabulary into the four-valued
// verification result. A payment the provider knows about but has not marked
// complete is acceptable: the charge may still settle asynchronously, so the
// listing flow proceeds and reconciliation finishes the bookkeeping. The same
// goes for anything the provider reports that we do not recognize.
func mapProviderStatus(paymentID, providerStatus string) model.VerificationResult {
	switch strings.ToLower(providerStatus) {
	case "completed", "paid", "settled":
		return model.VerificationCompleted
	case "pending", "created", "processing":
		logrus.Warnf("payment %s exists but is not complete, accepting as pending", paymentID)
		return model.VerificationPendingAcceptable
	case "canceled", "cancelled", "failed", "error", "expired":
		return model.VerificationFailed
	default:
		logrus.Warnf("payment %s has unrecognized provider status %q, accepting as pending", paymentID, providerStatus)
		return model.VerificationPendingAcceptable
	}
}
