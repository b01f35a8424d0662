package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    ComplaintStatus
		to      ComplaintStatus
		allowed bool
	}{
		{"pending to diproses", StatusPending, StatusDiproses, true},
		{"pending to ditolak", StatusPending, StatusDitolak, true},
		{"pending to selesai skips pipeline", StatusPending, StatusSelesai, false},
		{"diproses to selesai", StatusDiproses, StatusSelesai, true},
		{"diproses to ditolak", StatusDiproses, StatusDitolak, true},
		{"diproses back to pending", StatusDiproses, StatusPending, false},
		{"selesai is terminal", StatusSelesai, StatusDiproses, false},
		{"ditolak is terminal", StatusDitolak, StatusPending, false},
		{"no self transition", StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, CategoryInfrastruktur, NormalizeCategory("Infrastruktur"))
	assert.Equal(t, CategoryKebersihan, NormalizeCategory("  KEBERSIHAN "))
	assert.Equal(t, ComplaintCategory("jalan rusak"), NormalizeCategory("Jalan Rusak"))
}

func TestValidCategory(t *testing.T) {
	for _, opt := range CategoryOptions() {
		assert.True(t, ValidCategory(opt.Value), string(opt.Value))
	}
	assert.False(t, ValidCategory("jalan rusak"))
	assert.False(t, ValidCategory(""))
}

func TestValidStatus(t *testing.T) {
	for _, opt := range StatusOptions() {
		assert.True(t, ValidStatus(opt.Value), string(opt.Value))
	}
	assert.False(t, ValidStatus("dibatalkan"))
}
