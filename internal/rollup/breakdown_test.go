package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountByCountsInFirstSeenOrder(t *testing.T) {
	values := []string{"Mobile", "Desktop", "Mobile", "Tablet", "Mobile", "Desktop"}

	rows := CountBy(values, func(s string) (string, bool) { return s, true })

	require.Len(t, rows, 3)
	assert.Equal(t, LabelCount{Label: "Mobile", Count: 3}, rows[0])
	assert.Equal(t, LabelCount{Label: "Desktop", Count: 2}, rows[1])
	assert.Equal(t, LabelCount{Label: "Tablet", Count: 1}, rows[2])
}

func TestCountByExcludesNotOK(t *testing.T) {
	values := []string{"FR", "", "FR", "", "DE"}

	rows := CountBy(values, func(s string) (string, bool) {
		return s, s != ""
	})

	require.Len(t, rows, 2)
	assert.Equal(t, LabelCount{Label: "FR", Count: 2}, rows[0])
	assert.Equal(t, LabelCount{Label: "DE", Count: 1}, rows[1])
}

func TestCountByEmpty(t *testing.T) {
	rows := CountBy(nil, func(s string) (string, bool) { return s, true })
	assert.Empty(t, rows)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		total  int
		expect int
	}{
		{"zero total", 5, 0, 0},
		{"zero count", 0, 10, 0},
		{"whole", 10, 10, 100},
		{"half", 1, 2, 50},
		{"third rounds down", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"small fraction", 1, 200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Percent(tt.count, tt.total))
		})
	}
}
