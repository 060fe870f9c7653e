package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("lst")
	assert.True(t, strings.HasPrefix(id, "lst_"))
	assert.NotEqual(t, id, GenerateUUIDWithSuffix("lst"))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		want       int
	}{
		{"one hour left counts as a day", now.Add(time.Hour), 1},
		{"exactly three days", now.AddDate(0, 0, 3), 3},
		{"three days minus an hour rounds up", now.AddDate(0, 0, 3).Add(-time.Hour), 3},
		{"already expired", now.Add(-time.Hour), 0},
		{"expires this instant", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := tt.expiration
			listing := &Listing{ExpirationDate: &exp}
			assert.Equal(t, tt.want, listing.DaysRemaining(now))
		})
	}
}

func TestDaysRemainingNoExpiration(t *testing.T) {
	listing := &Listing{}
	assert.Equal(t, 0, listing.DaysRemaining(time.Now()))
}

func TestPaymentIsTerminal(t *testing.T) {
	terminal := []string{PaymentStatusCompleted, PaymentStatusCanceled, PaymentStatusError}
	for _, s := range terminal {
		payment := &PaymentRecord{Status: s}
		assert.True(t, payment.IsTerminal(), s)
	}

	open := []string{PaymentStatusCreated, PaymentStatusPending}
	for _, s := range open {
		payment := &PaymentRecord{Status: s}
		assert.False(t, payment.IsTerminal(), s)
	}
}

func TestVerificationAcceptable(t *testing.T) {
	assert.True(t, VerificationCompleted.Acceptable())
	assert.True(t, VerificationPendingAcceptable.Acceptable())
	assert.False(t, VerificationPending.Acceptable())
	assert.False(t, VerificationFailed.Acceptable())
}

func TestDurationValid(t *testing.T) {
	assert.True(t, Duration3Day.Valid())
	assert.True(t, Duration7Day.Valid())
	assert.True(t, Duration30Day.Valid())
	assert.False(t, Duration(14).Valid())
	assert.False(t, Duration(0).Valid())
}
