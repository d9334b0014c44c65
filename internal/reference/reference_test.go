package reference

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndParse(t *testing.T) {
	id := uuid.New().String()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ref := Build(id, at)
	assert.Equal(t, fmt.Sprintf("seat_%s_%d", id, at.UnixMilli()), ref)

	parsed, ok := Parse(ref)
	require.True(t, ok)
	assert.Equal(t, id, parsed)
}

func TestParse_Rejects(t *testing.T) {
	id := uuid.New().String()

	cases := []struct {
		name string
		ref  string
	}{
		{"empty", ""},
		{"wrong namespace", "order_" + id + "_1700000000000"},
		{"missing timestamp", "seat_" + id},
		{"extra segment", "seat_" + id + "_1700000000000_x"},
		{"not a uuid", "seat_not-a-uuid_1700000000000"},
		{"timestamp not numeric", "seat_" + id + "_soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Parse(tc.ref)
			assert.False(t, ok)
		})
	}
}
