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
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/plazahq/plaza/model"
)

func categoryRule() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.In(
			string(model.CategoryForSaleByOwner),
			string(model.CategoryAgent),
			string(model.CategoryRent),
			string(model.CategoryOpenHouse),
			string(model.CategoryWanted),
			string(model.CategoryClassified),
			string(model.CategoryGarageSale),
		),
	}
}

func durationRule() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.In(
			int(model.Duration3Day),
			int(model.Duration7Day),
			int(model.Duration30Day),
		),
	}
}

func (c *ContactInput) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
	)
}

func (l *CreateListing) ValidateCreateListing() error {
	if err := validation.ValidateStruct(l,
		validation.Field(&l.OwnerID, validation.Required),
		validation.Field(&l.Title, validation.Required, validation.Length(1, 140)),
		validation.Field(&l.Category, categoryRule()...),
		validation.Field(&l.DurationDays, durationRule()...),
	); err != nil {
		return err
	}
	return l.Contact.validate()
}

func (l *UpdateListing) ValidateUpdateListing() error {
	if err := validation.ValidateStruct(l,
		validation.Field(&l.Title, validation.Required, validation.Length(1, 140)),
		validation.Field(&l.Category, categoryRule()...),
		validation.Field(&l.DurationDays, durationRule()...),
	); err != nil {
		return err
	}
	return l.Contact.validate()
}

func (r *RepublishListing) ValidateRepublishListing() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DurationDays, durationRule()...),
	)
}
