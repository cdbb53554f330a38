package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	paris := time.FixedZone("CET", 3600)

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"Nil", nil, "NULL"},
		{"Bytes", []byte("abc"), "abc"},
		{"Integer", int64(42), "42"},
		{"UTC datetime", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), "2025-03-01 10:00:00"},
		{"Fractional seconds", time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC), "2025-03-01 10:00:00.5"},
		{"Offset kept", time.Date(2025, 3, 1, 10, 0, 0, 0, paris), "2025-03-01 10:00:00+01:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}
