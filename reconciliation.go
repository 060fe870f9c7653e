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
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/plazahq/plaza/internal/notification"
	"github.com/plazahq/plaza/model"
)

// ReconcilePayment is the task handler for the reconcile queue. It re-checks
// a payment that was accepted on an ambiguous provider answer and settles it
// one way or the other. Returning an error makes asynq retry the task with
// backoff until its max retry count is exhausted.
func (l *Plaza) ReconcilePayment(ctx context.Context, task *asynq.Task) error {
	ctx, span := tracer.Start(ctx, "Reconciling payment from queue")
	defer span.End()

	var payload ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logrus.Errorf("Error unmarshaling reconcile payload: %v", err)
		return err
	}

	payment, err := l.datasource.GetPaymentByID(ctx, payload.PaymentID)
	if err != nil {
		return err
	}
	if payment.IsTerminal() {
		return nil
	}

	result, err := l.gateway.VerifyPayment(ctx, payment)
	if err != nil {
		return err
	}

	switch result {
	case model.VerificationCompleted:
		completedAt := time.Now()
		if err := l.datasource.MarkPaymentCompleted(ctx, payment.PaymentID, completedAt); err != nil {
			return err
		}
		payment.Status = model.PaymentStatusCompleted
		payment.CompletedAt = &completedAt
		listing, err := l.datasource.GetListingByPaymentID(ctx, payment.PaymentID)
		if err != nil {
			return err
		}
		if !listing.IsPublished() {
			if _, err := l.activateListing(ctx, listing); err != nil {
				return err
			}
		}
		go func() {
			err := SendWebhook(NewWebhook{
				Event:   "payment.completed",
				Payload: payment,
			})
			if err != nil {
				notification.NotifyError(err)
			}
		}()
		return nil
	case model.VerificationFailed:
		failStatus := model.PaymentStatusError
		if payment.Status == model.PaymentStatusCanceled {
			failStatus = model.PaymentStatusCanceled
		}
		if err := l.datasource.UpdatePaymentStatus(ctx, payment.PaymentID, failStatus); err != nil {
			return err
		}
		payment.Status = failStatus
		logrus.Warnf("payment %s failed on reconciliation", payment.PaymentID)
		go func() {
			err := SendWebhook(NewWebhook{
				Event:   "payment.failed",
				Payload: payment,
			})
			if err != nil {
				notification.NotifyError(err)
			}
		}()
		return nil
	default:
		// still ambiguous, let asynq retry
		return fmt.Errorf("payment %s still unsettled", payment.PaymentID)
	}
}

// RecoverStalePayments re-enqueues reconciliation for every non-terminal
// payment. Run at worker startup so payments whose tasks were lost to a
// Redis flush still get settled.
func (l *Plaza) RecoverStalePayments(ctx context.Context) (int, error) {
	const batchSize = 100

	recovered := 0
	var offset int64
	for {
		payments, err := l.datasource.GetPendingPayments(ctx, batchSize, offset)
		if err != nil {
			return recovered, err
		}
		if len(payments) == 0 {
			break
		}

		for _, payment := range payments {
			if err := l.queue.EnqueueReconcilePayment(ctx, payment.PaymentID, 0); err != nil {
				logrus.Errorf("failed to re-enqueue payment %s: %v", payment.PaymentID, err)
				continue
			}
			recovered++
		}

		if len(payments) < batchSize {
			break
		}
		offset += int64(len(payments))
	}

	if recovered > 0 {
		logrus.Infof("re-enqueued %d unsettled payments for reconciliation", recovered)
	}
	return recovered, nil
}
