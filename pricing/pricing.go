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

// Package pricing maps listing categories to price tiers and resolves the
// publication fee for a (tier, duration) pair. It is a pure lookup with no
// side effects; an illegal pair is a typed error, never a default.
package pricing

import (
	"errors"
	"fmt"

	"github.com/plazahq/plaza/model"
)

// ErrUnavailable is returned when the requested duration is not sold for the
// price category. Callers must reject the request rather than substitute a
// different duration.
var ErrUnavailable = errors.New("no price for this category and duration")

// priceTable holds the fee in cents per (price category, duration).
// Real-property listings are sold only in 30-day runs.
var priceTable = map[model.PriceCategory]map[model.Duration]int64{
	model.PriceCategoryRealProperty: {
		model.Duration30Day: 4500,
	},
	model.PriceCategoryOpenHouse: {
		model.Duration3Day:  500,
		model.Duration7Day:  1000,
		model.Duration30Day: 2500,
	},
	model.PriceCategoryClassified: {
		model.Duration3Day:  750,
		model.Duration7Day:  2500,
		model.Duration30Day: 3000,
	},
}

// Classify derives the price category from a listing category. Unknown
// categories fall through to the classified tier, which is the catch-all.
func Classify(category model.Category) model.PriceCategory {
	switch category {
	case model.CategoryForSaleByOwner, model.CategoryAgent, model.CategoryRent, model.CategoryWanted:
		return model.PriceCategoryRealProperty
	case model.CategoryOpenHouse, model.CategoryGarageSale:
		return model.PriceCategoryOpenHouse
	default:
		return model.PriceCategoryClassified
	}
}

// Price returns the fee in cents for publishing a listing of the given price
// category for the given duration, or ErrUnavailable for an illegal pair.
func Price(priceCategory model.PriceCategory, duration model.Duration) (int64, error) {
	durations, ok := priceTable[priceCategory]
	if !ok {
		return 0, fmt.Errorf("unknown price category %q: %w", priceCategory, ErrUnavailable)
	}
	cents, ok := durations[duration]
	if !ok {
		return 0, fmt.Errorf("%d-day run not sold for %s listings: %w", duration, priceCategory, ErrUnavailable)
	}
	return cents, nil
}

// PriceForCategory is the common path: classify then price in one call.
func PriceForCategory(category model.Category, duration model.Duration) (model.PriceCategory, int64, error) {
	priceCategory := Classify(category)
	cents, err := Price(priceCategory, duration)
	if err != nil {
		return priceCategory, 0, err
	}
	return priceCategory, cents, nil
}
