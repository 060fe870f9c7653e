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
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/plazahq/plaza/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Listing methods

func (m *MockDataSource) CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	args := m.Called(ctx, listing)
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockDataSource) GetListingByID(ctx context.Context, id string) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockDataSource) GetListingByPaymentID(ctx context.Context, paymentID string) (*model.Listing, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockDataSource) GetListingsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Listing, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	return args.Get(0).([]*model.Listing), args.Error(1)
}

func (m *MockDataSource) UpdateListing(ctx context.Context, listing *model.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockDataSource) UpdateListingStatus(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	args := m.Called(ctx, id, fromStatus, toStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) AttachPayment(ctx context.Context, listingID, paymentID, discountCode string) error {
	args := m.Called(ctx, listingID, paymentID, discountCode)
	return args.Error(0)
}

func (m *MockDataSource) ActivateListing(ctx context.Context, id string, publishedAt, expirationDate time.Time) (bool, error) {
	args := m.Called(ctx, id, publishedAt, expirationDate)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) ResetListingForRepublish(ctx context.Context, id string, duration model.Duration) error {
	args := m.Called(ctx, id, duration)
	return args.Error(0)
}

func (m *MockDataSource) PurgeListingContent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDataSource) GetSweepCandidates(ctx context.Context, cutoff time.Time, batchSize int, afterExpiration time.Time, afterID string) ([]*model.Listing, error) {
	args := m.Called(ctx, cutoff, batchSize, afterExpiration, afterID)
	return args.Get(0).([]*model.Listing), args.Error(1)
}

func (m *MockDataSource) BackfillDraftStatus(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Payment methods

func (m *MockDataSource) RecordPayment(ctx context.Context, payment *model.PaymentRecord) (*model.PaymentRecord, error) {
	args := m.Called(ctx, payment)
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockDataSource) GetPaymentByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockDataSource) GetPaymentsByListingID(ctx context.Context, listingID string) ([]*model.PaymentRecord, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).([]*model.PaymentRecord), args.Error(1)
}

func (m *MockDataSource) UpdatePaymentStatus(ctx context.Context, paymentID string, status string) error {
	args := m.Called(ctx, paymentID, status)
	return args.Error(0)
}

func (m *MockDataSource) MarkPaymentCompleted(ctx context.Context, paymentID string, completedAt time.Time) error {
	args := m.Called(ctx, paymentID, completedAt)
	return args.Error(0)
}

func (m *MockDataSource) GetPendingPayments(ctx context.Context, batchSize int, offset int64) ([]*model.PaymentRecord, error) {
	args := m.Called(ctx, batchSize, offset)
	return args.Get(0).([]*model.PaymentRecord), args.Error(1)
}
