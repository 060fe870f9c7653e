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
	"github.com/plazahq/plaza/model"
)

type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type CreateListing struct {
	OwnerID      string                 `json:"owner_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	DurationDays int                    `json:"duration_days"`
	Contact      ContactInput           `json:"contact"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
}

type UpdateListing struct {
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	DurationDays int                    `json:"duration_days"`
	Contact      ContactInput           `json:"contact"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
}

type SubmitListing struct {
	DiscountCode string `json:"discount_code"`
}

type RepublishListing struct {
	DurationDays int    `json:"duration_days"`
	DiscountCode string `json:"discount_code"`
}

type SubmitListingResponse struct {
	Listing *model.Listing       `json:"listing"`
	Payment *model.PaymentRecord `json:"payment"`
}

type ConfirmPaymentResponse struct {
	Listing      *model.Listing           `json:"listing"`
	Verification model.VerificationResult `json:"verification"`
}

func (l *CreateListing) ToListing() *model.Listing {
	return &model.Listing{
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		Category:    model.Category(l.Category),
		Duration:    model.Duration(l.DurationDays),
		Contact: model.ContactInfo{
			Name:  l.Contact.Name,
			Email: l.Contact.Email,
			Phone: l.Contact.Phone,
		},
		MetaData: l.MetaData,
	}
}

func (l *UpdateListing) ToListing(listingID string) *model.Listing {
	return &model.Listing{
		ListingID:   listingID,
		Title:       l.Title,
		Description: l.Description,
		Category:    model.Category(l.Category),
		Duration:    model.Duration(l.DurationDays),
		Contact: model.ContactInfo{
			Name:  l.Contact.Name,
			Email: l.Contact.Email,
			Phone: l.Contact.Phone,
		},
		MetaData: l.MetaData,
	}
}
