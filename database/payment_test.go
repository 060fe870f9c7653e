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
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/model"
)

func testPayment() *model.PaymentRecord {
	return &model.PaymentRecord{
		PaymentID:      "pay_123",
		ListingID:      "lst_123",
		ExternalLinkID: "plink_123",
		PayableUrl:     "http://payments.example.com/pay/plink_123",
		AmountCents:    1500,
		Status:         model.PaymentStatusCreated,
		CreatedAt:      time.Now(),
		MetaData:       map[string]interface{}{"channel": "web"},
	}
}

func paymentRows(payment *model.PaymentRecord) *sqlmock.Rows {
	metaDataJSON, _ := json.Marshal(payment.MetaData)
	return sqlmock.NewRows([]string{
		"payment_id", "listing_id", "external_link_id", "payable_url", "amount_cents",
		"is_free", "status", "created_at", "completed_at", "meta_data",
	}).AddRow(
		payment.PaymentID, payment.ListingID, payment.ExternalLinkID, payment.PayableUrl,
		payment.AmountCents, payment.IsFree, payment.Status, payment.CreatedAt,
		payment.CompletedAt, metaDataJSON,
	)
}

func TestRecordPayment_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	payment := testPayment()

	metaDataJSON, err := json.Marshal(payment.MetaData)
	assert.NoError(t, err)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(payment.PaymentID, payment.ListingID, payment.ExternalLinkID, payment.PayableUrl, payment.AmountCents, payment.IsFree, payment.Status, payment.CreatedAt, payment.CompletedAt, metaDataJSON).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := ds.RecordPayment(context.Background(), payment)
	assert.NoError(t, err)
	assert.Equal(t, payment, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	payment := testPayment()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(payment.PaymentID).
		WillReturnRows(paymentRows(payment))

	result, err := ds.GetPaymentByID(context.Background(), payment.PaymentID)
	assert.NoError(t, err)
	assert.Equal(t, payment.PaymentID, result.PaymentID)
	assert.Equal(t, payment.AmountCents, result.AmountCents)
}

func TestGetPaymentByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("pay_missing").
		WillReturnRows(sqlmock.NewRows([]string{"payment_id"}))

	_, err = ds.GetPaymentByID(context.Background(), "pay_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestUpdatePaymentStatus_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE payments").
		WithArgs("pay_123", model.PaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.UpdatePaymentStatus(context.Background(), "pay_123", model.PaymentStatusPending)
	assert.NoError(t, err)
}

func TestMarkPaymentCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	completedAt := time.Now()

	mock.ExpectExec("UPDATE payments").
		WithArgs("pay_123", model.PaymentStatusCompleted, completedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.MarkPaymentCompleted(context.Background(), "pay_123", completedAt)
	assert.NoError(t, err)
}

func TestGetPendingPayments(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	payment := testPayment()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(model.PaymentStatusCreated, model.PaymentStatusPending, 100, int64(0)).
		WillReturnRows(paymentRows(payment))

	payments, err := ds.GetPendingPayments(context.Background(), 100, 0)
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, payment.PaymentID, payments[0].PaymentID)
}
