package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestCheckEligibility(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		posting Posting
		wantErr error
	}{
		{
			name:    "no limits",
			posting: Posting{},
		},
		{
			name:    "expires today still accepts",
			posting: Posting{ExpiresAt: datePtr(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC))},
		},
		{
			name:    "expired yesterday",
			posting: Posting{ExpiresAt: datePtr(time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC))},
			wantErr: ErrPostingExpired,
		},
		{
			name:    "expires tomorrow",
			posting: Posting{ExpiresAt: datePtr(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC))},
		},
		{
			name:    "under the cap",
			posting: Posting{MaxApplications: 10, ApplicationCount: 9},
		},
		{
			name:    "at the cap",
			posting: Posting{MaxApplications: 10, ApplicationCount: 10},
			wantErr: ErrPostingFull,
		},
		{
			name:    "zero max means unlimited",
			posting: Posting{MaxApplications: 0, ApplicationCount: 5000},
		},
		{
			name: "expiry checked before capacity",
			posting: Posting{
				ExpiresAt:        datePtr(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
				MaxApplications:  10,
				ApplicationCount: 10,
			},
			wantErr: ErrPostingExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEligibility(&tt.posting, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
