package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/model"

	_ "github.com/lib/pq"
)

const listingColumns = `listing_id, owner_id, title, description, category, duration_days, status, discount_code, payment_id, contact_name, contact_email, contact_phone, created_at, published_at, expiration_date, meta_data`

func (d Datasource) CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ctx, span := otel.Tracer("listing.database").Start(ctx, "Saving listing to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(listing.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO listings(listing_id,owner_id,title,description,category,duration_days,status,discount_code,payment_id,contact_name,contact_email,contact_phone,created_at,published_at,expiration_date,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		listing.ListingID, listing.OwnerID, listing.Title, listing.Description, listing.Category, listing.Duration, listing.Status, listing.DiscountCode, listing.PaymentID, listing.Contact.Name, listing.Contact.Email, listing.Contact.Phone, listing.CreatedAt, listing.PublishedAt, listing.ExpirationDate, metaDataJSON,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record listing", err)
	}

	return listing, nil
}

func (d Datasource) GetListingByID(ctx context.Context, id string) (*model.Listing, error) {
	cacheKey := fmt.Sprintf("listing:%s", id)

	var cached model.Listing
	if d.Cache != nil {
		err := d.Cache.Get(ctx, cacheKey, &cached)
		if err == nil && cached.ListingID != "" {
			return &cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE listing_id = $1
	`, id)

	listing, err := scanListingRow(row, id)
	if err != nil {
		return nil, err
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, cacheKey, listing, 5*time.Minute); err != nil {
			log.Printf("Failed to cache listing: %v", err)
		}
	}

	return listing, nil
}

func (d Datasource) GetListingByPaymentID(ctx context.Context, paymentID string) (*model.Listing, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE payment_id = $1
	`, paymentID)

	return scanListingRow(row, paymentID)
}

func (d Datasource) GetListingsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Listing, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve listings", err)
	}
	defer rows.Close()

	return scanListingRows(rows)
}

func (d Datasource) UpdateListing(ctx context.Context, listing *model.Listing) error {
	metaDataJSON, err := json.Marshal(listing.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET title = $2, description = $3, category = $4, duration_days = $5, discount_code = $6, contact_name = $7, contact_email = $8, contact_phone = $9, meta_data = $10
		WHERE listing_id = $1
	`, listing.ListingID, listing.Title, listing.Description, listing.Category, listing.Duration, listing.DiscountCode, listing.Contact.Name, listing.Contact.Email, listing.Contact.Phone, metaDataJSON)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update listing", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Listing with ID '%s' not found", listing.ListingID), nil)
	}

	d.invalidateListing(ctx, listing.ListingID)
	return nil
}

// AttachPayment binds a payment and the discount code used for it to a
// listing.
func (d Datasource) AttachPayment(ctx context.Context, listingID, paymentID, discountCode string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET payment_id = $2, discount_code = $3
		WHERE listing_id = $1
	`, listingID, paymentID, discountCode)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to attach payment to listing", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Listing with ID '%s' not found", listingID), nil)
	}

	d.invalidateListing(ctx, listingID)
	return nil
}

// UpdateListingStatus performs a compare-and-swap status transition. It
// reports false without error when the listing was not in fromStatus, which
// callers treat as losing the race to a concurrent transition.
func (d Datasource) UpdateListingStatus(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	ctx, span := otel.Tracer("listing.database").Start(ctx, "Transitioning listing status")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET status = $3
		WHERE listing_id = $1 AND status = $2
	`, id, fromStatus, toStatus)

	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update listing status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}

	if rowsAffected > 0 {
		d.invalidateListing(ctx, id)
	}
	return rowsAffected > 0, nil
}

// ActivateListing moves a pending listing to ACTIVE and stamps its cycle
// dates in one statement. The status guard makes activation idempotent: a
// second confirmation finds no PENDING_PAYMENT row and reports false.
func (d Datasource) ActivateListing(ctx context.Context, id string, publishedAt, expirationDate time.Time) (bool, error) {
	ctx, span := otel.Tracer("listing.database").Start(ctx, "Activating listing")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET status = $2, published_at = $3, expiration_date = $4
		WHERE listing_id = $1 AND status = $5
	`, id, model.StatusActive, publishedAt, expirationDate, model.StatusPendingPayment)

	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to activate listing", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}

	if rowsAffected > 0 {
		d.invalidateListing(ctx, id)
	}
	return rowsAffected > 0, nil
}

// ResetListingForRepublish clears everything tied to the previous publish
// cycle and puts the listing back in DRAFT with the new duration.
func (d Datasource) ResetListingForRepublish(ctx context.Context, id string, duration model.Duration) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET status = $2, duration_days = $3, discount_code = '', payment_id = '', published_at = NULL, expiration_date = NULL
		WHERE listing_id = $1
	`, id, model.StatusDraft, duration)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reset listing", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Listing with ID '%s' not found", id), nil)
	}

	d.invalidateListing(ctx, id)
	return nil
}

// PurgeListingContent strips contact details and the description from a
// deleted listing. The row itself stays for bookkeeping.
func (d Datasource) PurgeListingContent(ctx context.Context, id string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET description = '', contact_name = '', contact_email = '', contact_phone = ''
		WHERE listing_id = $1 AND status = $2
	`, id, model.StatusDeleted)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to purge listing content", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Deleted listing with ID '%s' not found", id), nil)
	}

	d.invalidateListing(ctx, id)
	return nil
}

// GetSweepCandidates pages with a keyset cursor on (expiration_date,
// listing_id). The sweep changes the statuses its own predicate matches, so
// an OFFSET would shift surviving rows into pages already visited and skip
// them; the cursor keys on columns the sweep never touches.
func (d Datasource) GetSweepCandidates(ctx context.Context, cutoff time.Time, batchSize int, afterExpiration time.Time, afterID string) ([]*model.Listing, error) {
	ctx, span := otel.Tracer("listing.database").Start(ctx, "Fetching sweep candidates")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE status IN ($1, $2, $3) AND expiration_date IS NOT NULL AND expiration_date <= $4
			AND (expiration_date, listing_id) > ($5, $6)
		ORDER BY expiration_date ASC, listing_id ASC
		LIMIT $7
	`, model.StatusActive, model.StatusExpiringSoon, model.StatusExpired, cutoff, afterExpiration, afterID, batchSize)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sweep candidates", err)
	}
	defer rows.Close()

	return scanListingRows(rows)
}

// BackfillDraftStatus assigns DRAFT to listings created before status
// tracking existed. Returns the number of rows classified.
func (d Datasource) BackfillDraftStatus(ctx context.Context) (int64, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE listings
		SET status = $1
		WHERE status IS NULL OR status = ''
	`, model.StatusDraft)

	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to backfill draft status", err)
	}

	return result.RowsAffected()
}

func (d Datasource) invalidateListing(ctx context.Context, id string) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Delete(ctx, fmt.Sprintf("listing:%s", id)); err != nil {
		log.Printf("Failed to invalidate listing cache: %v", err)
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(scanner rowScanner) (*model.Listing, error) {
	listing := &model.Listing{}
	var metaDataJSON []byte
	var description, discountCode, paymentID sql.NullString
	var contactName, contactEmail, contactPhone sql.NullString
	err := scanner.Scan(
		&listing.ListingID,
		&listing.OwnerID,
		&listing.Title,
		&description,
		&listing.Category,
		&listing.Duration,
		&listing.Status,
		&discountCode,
		&paymentID,
		&contactName,
		&contactEmail,
		&contactPhone,
		&listing.CreatedAt,
		&listing.PublishedAt,
		&listing.ExpirationDate,
		&metaDataJSON,
	)
	if err != nil {
		return nil, err
	}

	listing.Description = description.String
	listing.DiscountCode = discountCode.String
	listing.PaymentID = paymentID.String
	listing.Contact = model.ContactInfo{
		Name:  contactName.String,
		Email: contactEmail.String,
		Phone: contactPhone.String,
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &listing.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return listing, nil
}

func scanListingRow(row *sql.Row, ref string) (*model.Listing, error) {
	listing, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Listing '%s' not found", ref), err)
		}
		if _, ok := err.(apierror.APIError); ok {
			return nil, err
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve listing", err)
	}
	return listing, nil
}

func scanListingRows(rows *sql.Rows) ([]*model.Listing, error) {
	var listings []*model.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			if _, ok := err.(apierror.APIError); ok {
				return nil, err
			}
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan listing data", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over listings", err)
	}
	return listings, nil
}
