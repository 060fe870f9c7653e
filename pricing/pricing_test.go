package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plazahq/plaza/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		category model.Category
		want     model.PriceCategory
	}{
		{model.CategoryForSaleByOwner, model.PriceCategoryRealProperty},
		{model.CategoryAgent, model.PriceCategoryRealProperty},
		{model.CategoryRent, model.PriceCategoryRealProperty},
		{model.CategoryWanted, model.PriceCategoryRealProperty},
		{model.CategoryOpenHouse, model.PriceCategoryOpenHouse},
		{model.CategoryGarageSale, model.PriceCategoryOpenHouse},
		{model.CategoryClassified, model.PriceCategoryClassified},
		{model.Category("something_new"), model.PriceCategoryClassified},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.category), string(tt.category))
	}
}

func TestPriceMatrix(t *testing.T) {
	durations := []model.Duration{model.Duration3Day, model.Duration7Day, model.Duration30Day}

	// Real property sells only the 30-day run
	for _, d := range durations {
		cents, err := Price(model.PriceCategoryRealProperty, d)
		if d == model.Duration30Day {
			assert.NoError(t, err)
			assert.Greater(t, cents, int64(0))
		} else {
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Zero(t, cents)
		}
	}

	// Every other tier prices all three durations
	for _, pc := range []model.PriceCategory{model.PriceCategoryOpenHouse, model.PriceCategoryClassified} {
		for _, d := range durations {
			cents, err := Price(pc, d)
			assert.NoError(t, err, "%s/%d", pc, d)
			assert.Greater(t, cents, int64(0))
		}
	}
}

func TestClassifiedWeekPrice(t *testing.T) {
	cents, err := Price(model.PriceCategoryClassified, model.Duration7Day)
	assert.NoError(t, err)
	assert.Equal(t, int64(2500), cents)
}

func TestPriceUnknownCategory(t *testing.T) {
	_, err := Price(model.PriceCategory("bogus"), model.Duration7Day)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenHouseCheaperThanClassified(t *testing.T) {
	for _, d := range []model.Duration{model.Duration3Day, model.Duration7Day, model.Duration30Day} {
		oh, err := Price(model.PriceCategoryOpenHouse, d)
		assert.NoError(t, err)
		cl, err := Price(model.PriceCategoryClassified, d)
		assert.NoError(t, err)
		assert.Less(t, oh, cl)
	}
}

func TestPriceForCategoryRejectsRentShortRun(t *testing.T) {
	pc, cents, err := PriceForCategory(model.CategoryRent, model.Duration3Day)
	assert.Equal(t, model.PriceCategoryRealProperty, pc)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Zero(t, cents)
}
