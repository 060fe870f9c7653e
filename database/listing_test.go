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
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/model"
)

type mockCache struct {
	data map[string]interface{}
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]interface{})}
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Get(ctx context.Context, key string, data interface{}) error {
	if v, ok := m.data[key]; ok {
		switch d := data.(type) {
		case *model.Listing:
			*d = *v.(*model.Listing)
		}
		return nil
	}
	return errors.New("cache miss")
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testListing() *model.Listing {
	return &model.Listing{
		ListingID:   "lst_123",
		OwnerID:     "usr_456",
		Title:       "Garage sale this Saturday",
		Description: "Everything must go",
		Category:    model.CategoryGarageSale,
		Duration:    model.Duration3Day,
		Status:      model.StatusDraft,
		Contact: model.ContactInfo{
			Name:  "Pat Doe",
			Email: "pat@example.com",
		},
		CreatedAt: time.Now(),
		MetaData:  map[string]interface{}{"neighborhood": "Elm Street"},
	}
}

func listingRows(listing *model.Listing) *sqlmock.Rows {
	metaDataJSON, _ := json.Marshal(listing.MetaData)
	return sqlmock.NewRows([]string{
		"listing_id", "owner_id", "title", "description", "category", "duration_days", "status",
		"discount_code", "payment_id", "contact_name", "contact_email", "contact_phone",
		"created_at", "published_at", "expiration_date", "meta_data",
	}).AddRow(
		listing.ListingID, listing.OwnerID, listing.Title, listing.Description, listing.Category,
		listing.Duration, listing.Status, listing.DiscountCode, listing.PaymentID,
		listing.Contact.Name, listing.Contact.Email, listing.Contact.Phone,
		listing.CreatedAt, listing.PublishedAt, listing.ExpirationDate, metaDataJSON,
	)
}

func TestCreateListing_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	listing := testListing()

	metaDataJSON, err := json.Marshal(listing.MetaData)
	assert.NoError(t, err)

	mock.ExpectExec("INSERT INTO listings").
		WithArgs(listing.ListingID, listing.OwnerID, listing.Title, listing.Description, listing.Category, listing.Duration, listing.Status, listing.DiscountCode, listing.PaymentID, listing.Contact.Name, listing.Contact.Email, listing.Contact.Phone, listing.CreatedAt, listing.PublishedAt, listing.ExpirationDate, metaDataJSON).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := ds.CreateListing(context.Background(), listing)
	assert.NoError(t, err)
	assert.Equal(t, listing, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListingByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db, Cache: newMockCache()}
	listing := testListing()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(listing.ListingID).
		WillReturnRows(listingRows(listing))

	result, err := ds.GetListingByID(context.Background(), listing.ListingID)
	assert.NoError(t, err)
	assert.Equal(t, listing.ListingID, result.ListingID)
	assert.Equal(t, listing.Contact.Email, result.Contact.Email)
	assert.Equal(t, "Elm Street", result.MetaData["neighborhood"])
}

func TestGetListingByID_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	cached := testListing()
	mc := newMockCache()
	_ = mc.Set(context.Background(), "listing:lst_123", cached, time.Minute)

	ds := Datasource{Conn: db, Cache: mc}

	// no query expectation registered, a db hit would fail the test
	result, err := ds.GetListingByID(context.Background(), "lst_123")
	assert.NoError(t, err)
	assert.Equal(t, cached.ListingID, result.ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListingByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("lst_missing").
		WillReturnRows(sqlmock.NewRows([]string{"listing_id"}))

	_, err = ds.GetListingByID(context.Background(), "lst_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestUpdateListingStatus_CAS(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db, Cache: newMockCache()}

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusDraft, model.StatusPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := ds.UpdateListingStatus(context.Background(), "lst_123", model.StatusDraft, model.StatusPendingPayment)
	assert.NoError(t, err)
	assert.True(t, moved)
}

func TestUpdateListingStatus_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusDraft, model.StatusPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := ds.UpdateListingStatus(context.Background(), "lst_123", model.StatusDraft, model.StatusPendingPayment)
	assert.NoError(t, err)
	assert.False(t, moved)
}

func TestActivateListing_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db, Cache: newMockCache()}
	publishedAt := time.Now()
	expiration := publishedAt.AddDate(0, 0, 7)

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusActive, publishedAt, expiration, model.StatusPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))

	activated, err := ds.ActivateListing(context.Background(), "lst_123", publishedAt, expiration)
	assert.NoError(t, err)
	assert.True(t, activated)
}

func TestActivateListing_AlreadyActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	publishedAt := time.Now()
	expiration := publishedAt.AddDate(0, 0, 7)

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusActive, publishedAt, expiration, model.StatusPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 0))

	activated, err := ds.ActivateListing(context.Background(), "lst_123", publishedAt, expiration)
	assert.NoError(t, err)
	assert.False(t, activated)
}

func TestResetListingForRepublish(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db, Cache: newMockCache()}

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusDraft, model.Duration30Day).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.ResetListingForRepublish(context.Background(), "lst_123", model.Duration30Day)
	assert.NoError(t, err)
}

func TestPurgeListingContent_RequiresDeletedStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE listings").
		WithArgs("lst_123", model.StatusDeleted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.PurgeListingContent(context.Background(), "lst_123")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestGetSweepCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	active := testListing()
	active.Status = model.StatusActive
	publishedAt := time.Now().AddDate(0, 0, -25)
	expiration := time.Now().AddDate(0, 0, 5)
	active.PublishedAt = &publishedAt
	active.ExpirationDate = &expiration

	cutoff := time.Now().AddDate(0, 0, 7)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(model.StatusActive, model.StatusExpiringSoon, model.StatusExpired, cutoff, time.Time{}, "", 500).
		WillReturnRows(listingRows(active))

	listings, err := ds.GetSweepCandidates(context.Background(), cutoff, 500, time.Time{}, "")
	assert.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, model.StatusActive, listings[0].Status)
}

func TestBackfillDraftStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE listings").
		WithArgs(model.StatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 42))

	count, err := ds.BackfillDraftStatus(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
