package services

import (
	"testing"

	"lotto/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateReferral(t *testing.T) {
	t.Parallel()

	referrerID := testReferrerID
	purchaser := createTestUser(testUserID, "100")
	purchaser.ReferredBy = &referrerID

	referrerWith := func(mutate func(*entities.User)) *entities.User {
		u := createTestUser(testReferrerID, "0")
		u.Role = entities.UserRoleAgent
		mutate(u)
		return u
	}

	tests := []struct {
		name         string
		purchaser    *entities.User
		referrer     *entities.User
		paid         string
		percent      string
		wantEligible bool
		wantSkip     string
		wantAmount   string
	}{
		{
			name:         "agent referrer earns bonus",
			purchaser:    purchaser,
			referrer:     referrerWith(func(u *entities.User) {}),
			paid:         "90",
			percent:      "5",
			wantEligible: true,
			wantAmount:   "4.50",
		},
		{
			name:         "plain user referrer earns bonus",
			purchaser:    purchaser,
			referrer:     referrerWith(func(u *entities.User) { u.Role = entities.UserRoleUser }),
			paid:         "33.33",
			percent:      "3",
			wantEligible: true,
			wantAmount:   "1.00",
		},
		{
			name:       "no referrer",
			purchaser:  createTestUser(testUserID, "100"),
			paid:       "90",
			percent:    "5",
			wantSkip:   "no_referrer",
			wantAmount: "4.50",
		},
		{
			name:       "referrer not found",
			purchaser:  purchaser,
			paid:       "90",
			percent:    "5",
			wantSkip:   "referrer_not_found",
			wantAmount: "4.50",
		},
		{
			name:       "admin referrer",
			purchaser:  purchaser,
			referrer:   referrerWith(func(u *entities.User) { u.Role = entities.UserRoleAdmin }),
			paid:       "90",
			percent:    "5",
			wantSkip:   "referrer_role",
			wantAmount: "4.50",
		},
		{
			name:       "blocked referrer",
			purchaser:  purchaser,
			referrer:   referrerWith(func(u *entities.User) { u.BlockedByAdmin = true }),
			paid:       "90",
			percent:    "5",
			wantSkip:   "referrer_blocked",
			wantAmount: "4.50",
		},
		{
			name:       "system account referrer",
			purchaser:  purchaser,
			referrer:   referrerWith(func(u *entities.User) { u.ID = testSystemID }),
			paid:       "90",
			percent:    "5",
			wantSkip:   "system_account",
			wantAmount: "4.50",
		},
		{
			name:       "bonus rounds to zero",
			purchaser:  purchaser,
			referrer:   referrerWith(func(u *entities.User) {}),
			paid:       "0.09",
			percent:    "5",
			wantSkip:   "zero_bonus",
			wantAmount: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := EvaluateReferral(tt.purchaser, tt.referrer, dec(tt.paid), dec(tt.percent), testSystemID)

			assert.Equal(t, tt.wantEligible, d.Eligible())
			assert.Equal(t, tt.wantSkip, d.SkipReason())
			assertMoney(t, tt.wantAmount, d.Amount)
		})
	}
}
