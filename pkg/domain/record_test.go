package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetentionPolicy_Keep(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	days := func(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

	tests := []struct {
		name      string
		policy    RetentionPolicy
		published time.Time
		kept      int
		expected  bool
	}{
		{"unlimited keeps everything", RetentionPolicy{MaxAgeDays: -1, MaxItems: -1}, days(1000), 1000, true},
		{"within age bound", RetentionPolicy{MaxAgeDays: 7, MaxItems: -1}, days(3), 0, true},
		{"age bound is inclusive", RetentionPolicy{MaxAgeDays: 7, MaxItems: -1}, days(7), 0, true},
		{"past age bound", RetentionPolicy{MaxAgeDays: 7, MaxItems: -1}, days(10), 0, false},
		{"below item bound", RetentionPolicy{MaxAgeDays: -1, MaxItems: 10}, days(1), 9, true},
		{"at item bound keeps exactly the newest N", RetentionPolicy{MaxAgeDays: -1, MaxItems: 10}, days(1), 10, false},
		{"both bounds must pass", RetentionPolicy{MaxAgeDays: 7, MaxItems: 10}, days(10), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.Keep(tt.published, now, tt.kept))
		})
	}
}

func TestRetentionPolicy_Unlimited(t *testing.T) {
	assert.True(t, RetentionPolicy{MaxAgeDays: -1, MaxItems: -1}.Unlimited())
	assert.False(t, RetentionPolicy{MaxAgeDays: 7, MaxItems: -1}.Unlimited())
	assert.False(t, RetentionPolicy{MaxAgeDays: -1, MaxItems: 50}.Unlimited())
}
