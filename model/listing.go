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
	"math"
	"time"
)

// Category is the user-facing classification of a listing.
type Category string

const (
	CategoryForSaleByOwner Category = "for_sale_by_owner"
	CategoryAgent          Category = "agent"
	CategoryRent           Category = "rent"
	CategoryOpenHouse      Category = "open_house"
	CategoryWanted         Category = "wanted"
	CategoryClassified     Category = "classified"
	CategoryGarageSale     Category = "garage_sale"
)

// PriceCategory is the pricing tier derived from a listing category. It
// decides which durations are legal and which price row applies.
type PriceCategory string

const (
	PriceCategoryRealProperty PriceCategory = "real_property"
	PriceCategoryOpenHouse    PriceCategory = "open_house"
	PriceCategoryClassified   PriceCategory = "classified"
)

// Duration is the paid publication window in days.
type Duration int

const (
	Duration3Day  Duration = 3
	Duration7Day  Duration = 7
	Duration30Day Duration = 30
)

func (d Duration) Valid() bool {
	return d == Duration3Day || d == Duration7Day || d == Duration30Day
}

// Listing statuses. Within one publish cycle a listing only ever moves
// forward through these; an admin republish starts a new cycle.
const (
	StatusDraft          = "DRAFT"
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusActive         = "ACTIVE"
	StatusExpiringSoon   = "EXPIRING_SOON"
	StatusExpired        = "EXPIRED"
	StatusDeleted        = "DELETED"
)

// ContactInfo is the owner-supplied contact block shown with an active
// listing. It is cleared when the listing is purged.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Listing struct {
	ID             int64                  `json:"-"`
	ListingID      string                 `json:"id"`
	OwnerID        string                 `json:"owner_id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Category       Category               `json:"category"`
	Duration       Duration               `json:"duration_days"`
	Status         string                 `json:"status"`
	DiscountCode   string                 `json:"discount_code,omitempty"`
	PaymentID      string                 `json:"payment_id,omitempty"`
	Contact        ContactInfo            `json:"contact"`
	CreatedAt      time.Time              `json:"created_at"`
	PublishedAt    *time.Time             `json:"published_at,omitempty"`
	ExpirationDate *time.Time             `json:"expiration_date,omitempty"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

func (listing *Listing) ToJSON() ([]byte, error) {
	return json.Marshal(listing)
}

// DaysRemaining reports the whole days left until expiration, rounding up.
// A listing expiring in one hour has one day remaining; one that expired an
// hour ago has zero.
func (listing *Listing) DaysRemaining(now time.Time) int {
	if listing.ExpirationDate == nil {
		return 0
	}
	remaining := listing.ExpirationDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// IsPublished reports whether the listing is in any post-activation state of
// the current cycle.
func (listing *Listing) IsPublished() bool {
	switch listing.Status {
	case StatusActive, StatusExpiringSoon, StatusExpired:
		return true
	}
	return false
}
