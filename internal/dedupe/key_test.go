package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name       string
		postalCode int
		orgBucket  int
		expected   int64
	}{
		{"five digit zip", 12345, 0, 123450},
		{"bucket shifts last digit", 60035, 7, 600357},
		{"leading-zero zip parses small", 1201, 3, 12013},
		{"max bucket", 99999, 9, 999999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IdentityKey(tt.postalCode, tt.orgBucket))
		})
	}
}

func TestRankKey(t *testing.T) {
	assert.Equal(t, int64(2012013), RankKey(2, 12013))
	assert.Equal(t, int64(12600357), RankKey(12, 600357))
	assert.Equal(t, int64(123450), RankKey(0, 123450))
}
