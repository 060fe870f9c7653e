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

package discount

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/internal/apierror"
	"github.com/plazahq/plaza/internal/request"
	"github.com/plazahq/plaza/model"
)

const maxValidationRetries = 3

// Engine resolves discount codes against the configured discount service.
// The universal code is recognized locally and never leaves the process.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

type validateRequest struct {
	Code        string `json:"code"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

type validateResponse struct {
	Valid               bool    `json:"valid"`
	Kind                string  `json:"kind"`
	Percentage          float64 `json:"percentage"`
	CategoryRestriction string  `json:"category_restriction"`
}

// Resolve validates code for the given price category and base amount and
// returns the matching discount. An empty code resolves to nil with no error.
func (e *Engine) Resolve(ctx context.Context, code string, category model.PriceCategory, amountCents int64) (*model.DiscountCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(code, cnf.Discount.UniversalCode) {
		return &model.DiscountCode{
			Code: cnf.Discount.UniversalCode,
			Kind: model.DiscountFreeOverride,
		}, nil
	}

	if cnf.Discount.ServiceUrl == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidDiscountCode, fmt.Sprintf("discount code %s is not valid", code), nil)
	}

	resp, err := e.validateRemote(ctx, cnf.Discount.ServiceUrl, code, category, amountCents)
	if err != nil {
		logrus.Errorf("discount validation for %s failed: %v", code, err)
		return nil, apierror.NewAPIError(apierror.ErrInvalidDiscountCode, fmt.Sprintf("discount code %s could not be validated", code), err)
	}
	if !resp.Valid {
		return nil, apierror.NewAPIError(apierror.ErrInvalidDiscountCode, fmt.Sprintf("discount code %s is not valid", code), nil)
	}

	dc := &model.DiscountCode{
		Code:       code,
		Kind:       model.DiscountKind(resp.Kind),
		Percentage: resp.Percentage,
	}
	if resp.CategoryRestriction != "" {
		restriction := model.PriceCategory(resp.CategoryRestriction)
		dc.CategoryRestriction = &restriction
		if restriction != category {
			return nil, apierror.NewAPIError(apierror.ErrInvalidDiscountCode, fmt.Sprintf("discount code %s does not apply to %s listings", code, category), nil)
		}
	}
	return dc, nil
}

// Apply resolves code and computes the discounted amount for baseAmountCents.
// Percentage discounts round half up; the final amount never goes below zero.
func (e *Engine) Apply(ctx context.Context, code string, category model.PriceCategory, baseAmountCents int64) (*model.DiscountResult, error) {
	dc, err := e.Resolve(ctx, code, category, baseAmountCents)
	if err != nil {
		return nil, err
	}

	result := &model.DiscountResult{
		BaseAmountCents:  baseAmountCents,
		FinalAmountCents: baseAmountCents,
	}
	if dc == nil {
		return result, nil
	}

	result.Code = dc.Code
	result.Kind = dc.Kind

	switch dc.Kind {
	case model.DiscountFreeOverride:
		result.IsFree = true
		result.FinalAmountCents = 0
	case model.DiscountPercentageOff:
		result.Percentage = dc.Percentage
		discounted := discountedAmount(baseAmountCents, dc.Percentage)
		result.FinalAmountCents = discounted
		result.IsFree = discounted == 0
	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidDiscountCode, fmt.Sprintf("discount code %s has unknown kind %s", dc.Code, dc.Kind), nil)
	}
	return result, nil
}

func (e *Engine) validateRemote(ctx context.Context, serviceURL, code string, category model.PriceCategory, amountCents int64) (*validateResponse, error) {
	var response validateResponse
	operation := func() error {
		// rebuilt per attempt, the body is consumed on send
		payload, err := request.ToJsonReq(&validateRequest{Code: code, Category: string(category), AmountCents: amountCents})
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL+"/validate", payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := request.Call(req, &response)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("discount service returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			response.Valid = false
			return nil
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxValidationRetries), ctx))
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// discountedAmount applies a percentage-off discount with half-up rounding
// and clamps the result at zero.
func discountedAmount(baseAmountCents int64, percentage float64) int64 {
	base := decimal.NewFromInt(baseAmountCents)
	pct := decimal.NewFromFloat(percentage).Div(decimal.NewFromInt(100))
	reduction := base.Mul(pct).Round(0)
	final := base.Sub(reduction)
	if final.IsNegative() {
		return 0
	}
	return final.IntPart()
}
