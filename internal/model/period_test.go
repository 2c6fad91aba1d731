package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Period
		wantErr bool
	}{
		{name: "empty means all", input: "", want: AllTime},
		{name: "all keyword", input: "ALL", want: AllTime},
		{name: "month", input: "2025-03", want: Period{Year: 2025, Month: time.March}},
		{name: "padded", input: " 2025-12 ", want: Period{Year: 2025, Month: time.December}},
		{name: "invalid month", input: "2025-13", wantErr: true},
		{name: "full date rejected", input: "2025-03-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodContains(t *testing.T) {
	march := Period{Year: 2025, Month: time.March}

	assert.True(t, march.Contains(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, march.Contains(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, march.Contains(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, march.Contains(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, AllTime.Contains(time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodNavigation(t *testing.T) {
	dec := Period{Year: 2024, Month: time.December}

	assert.Equal(t, Period{Year: 2025, Month: time.January}, dec.Next())
	assert.Equal(t, dec, dec.Next().Prev())
	assert.Equal(t, AllTime, AllTime.Next())
	assert.Equal(t, "2024-12", dec.String())
	assert.Equal(t, "all", AllTime.String())
}
