package levy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		name   string
		stored string
		expiry *time.Time
		want   Status
	}{
		{"pending without expiry", "pending", nil, StatusPending},
		{"unknown stored value reads as pending", "", nil, StatusPending},
		{"paid awaiting approval", "paid", nil, StatusPaid},
		{"approved without expiry", "approved", nil, StatusApproved},
		{"approved future expiry", "approved", day("2026-06-01"), StatusApproved},
		{"approved expiring today is still valid", "approved", day("2026-03-15"), StatusApproved},
		{"approved past expiry", "approved", day("2026-03-14"), StatusExpired},
		{"paid ignores stale expiry", "paid", day("2020-01-01"), StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EffectiveStatus(tc.stored, tc.expiry, now))
		})
	}
}

func TestBookableAndDue(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	assert.True(t, Bookable("approved", day("2026-03-20"), now))
	assert.False(t, Bookable("approved", day("2026-03-01"), now))
	assert.False(t, Bookable("paid", nil, now))
	assert.False(t, Bookable("pending", nil, now))

	assert.True(t, Due("pending", nil, now))
	assert.True(t, Due("approved", day("2026-03-01"), now))
	assert.False(t, Due("paid", nil, now))
	assert.False(t, Due("approved", day("2026-03-20"), now))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)

	assert.Nil(t, DaysRemaining(nil, now))

	d := DaysRemaining(day("2026-03-20"), now)
	require.NotNil(t, d)
	assert.Equal(t, 5, *d)

	d = DaysRemaining(day("2026-03-10"), now)
	require.NotNil(t, d)
	assert.Equal(t, -5, *d)
}

func TestExpiryFrom(t *testing.T) {
	now := time.Date(2026, 1, 31, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), ExpiryFrom(now, 365))
}
