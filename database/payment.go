package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/model"
)

const paymentColumns = `payment_id, listing_id, external_link_id, payable_url, amount_cents, is_free, status, created_at, completed_at, meta_data`

func (d Datasource) RecordPayment(ctx context.Context, payment *model.PaymentRecord) (*model.PaymentRecord, error) {
	ctx, span := otel.Tracer("payment.database").Start(ctx, "Saving payment to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(payment.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO payments(payment_id,listing_id,external_link_id,payable_url,amount_cents,is_free,status,created_at,completed_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		payment.PaymentID, payment.ListingID, payment.ExternalLinkID, payment.PayableUrl, payment.AmountCents, payment.IsFree, payment.Status, payment.CreatedAt, payment.CompletedAt, metaDataJSON,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record payment", err)
	}

	return payment, nil
}

func (d Datasource) GetPaymentByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE payment_id = $1
	`, paymentID)

	payment, err := scanPayment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Payment with ID '%s' not found", paymentID), err)
		}
		if _, ok := err.(apierror.APIError); ok {
			return nil, err
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve payment", err)
	}
	return payment, nil
}

func (d Datasource) GetPaymentsByListingID(ctx context.Context, listingID string) ([]*model.PaymentRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE listing_id = $1
		ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve payments", err)
	}
	defer rows.Close()

	return scanPaymentRows(rows)
}

func (d Datasource) UpdatePaymentStatus(ctx context.Context, paymentID string, status string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE payments
		SET status = $2
		WHERE payment_id = $1
	`, paymentID, status)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update payment status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Payment with ID '%s' not found", paymentID), nil)
	}

	return nil
}

func (d Datasource) MarkPaymentCompleted(ctx context.Context, paymentID string, completedAt time.Time) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, completed_at = $3
		WHERE payment_id = $1
	`, paymentID, model.PaymentStatusCompleted, completedAt)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark payment completed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Payment with ID '%s' not found", paymentID), nil)
	}

	return nil
}

// GetPendingPayments returns non-terminal, non-free payments for the
// reconciliation worker, oldest first.
func (d Datasource) GetPendingPayments(ctx context.Context, batchSize int, offset int64) ([]*model.PaymentRecord, error) {
	ctx, span := otel.Tracer("payment.database").Start(ctx, "Fetching pending payments")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status IN ($1, $2) AND is_free = FALSE
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4
	`, model.PaymentStatusCreated, model.PaymentStatusPending, batchSize, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve pending payments", err)
	}
	defer rows.Close()

	return scanPaymentRows(rows)
}

func scanPayment(scanner rowScanner) (*model.PaymentRecord, error) {
	payment := &model.PaymentRecord{}
	var metaDataJSON []byte
	var externalLinkID, payableURL sql.NullString
	err := scanner.Scan(
		&payment.PaymentID,
		&payment.ListingID,
		&externalLinkID,
		&payableURL,
		&payment.AmountCents,
		&payment.IsFree,
		&payment.Status,
		&payment.CreatedAt,
		&payment.CompletedAt,
		&metaDataJSON,
	)
	if err != nil {
		return nil, err
	}

	payment.ExternalLinkID = externalLinkID.String
	payment.PayableUrl = payableURL.String

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &payment.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return payment, nil
}

func scanPaymentRows(rows *sql.Rows) ([]*model.PaymentRecord, error) {
	var payments []*model.PaymentRecord
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			if _, ok := err.(apierror.APIError); ok {
				return nil, err
			}
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan payment data", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over payments", err)
	}
	return payments, nil
}
