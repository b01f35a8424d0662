package domain

import (
	"strings"
	"time"
)

// ComplaintStatus enumerates triage states.
type ComplaintStatus string

const (
	StatusPending  ComplaintStatus = "pending"
	StatusDiproses ComplaintStatus = "diproses"
	StatusSelesai  ComplaintStatus = "selesai"
	StatusDitolak  ComplaintStatus = "ditolak"
)

// ComplaintCategory enumerates the canonical category set shared by creation,
// update and the public listing endpoint.
type ComplaintCategory string

const (
	CategoryInfrastruktur ComplaintCategory = "infrastruktur"
	CategoryKebersihan    ComplaintCategory = "kebersihan"
	CategoryKeamanan      ComplaintCategory = "keamanan"
	CategoryPelayanan     ComplaintCategory = "pelayanan"
	CategoryLingkungan    ComplaintCategory = "lingkungan"
	CategoryTransportasi  ComplaintCategory = "transportasi"
	CategoryLainnya       ComplaintCategory = "lainnya"
)

// Complaint is the pengaduan aggregate. UserID is nil for anonymous reports.
type Complaint struct {
	ID        int64
	Title     string
	Name      string
	Address   *string
	Phone     string
	Category  ComplaintCategory
	Body      string
	PhotoRef  *string
	Status    ComplaintStatus
	UserID    *int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Reporter  *User
}

// DefaultComplaintTitle is used when a report arrives without judul.
const DefaultComplaintTitle = "Laporan Pengaduan"

// NormalizeCategory lower-cases and trims a raw category value.
func NormalizeCategory(raw string) ComplaintCategory {
	return ComplaintCategory(strings.ToLower(strings.TrimSpace(raw)))
}

// ValidCategory reports whether the value is part of the canonical set.
func ValidCategory(c ComplaintCategory) bool {
	switch c {
	case CategoryInfrastruktur, CategoryKebersihan, CategoryKeamanan,
		CategoryPelayanan, CategoryLingkungan, CategoryTransportasi, CategoryLainnya:
		return true
	}
	return false
}

// ValidStatus reports whether the value is part of the status enumeration.
func ValidStatus(s ComplaintStatus) bool {
	switch s {
	case StatusPending, StatusDiproses, StatusSelesai, StatusDitolak:
		return true
	}
	return false
}

// statusTransitions is the legal move table: forward through the triage
// pipeline, with ditolak reachable from any non-terminal state.
var statusTransitions = map[ComplaintStatus][]ComplaintStatus{
	StatusPending:  {StatusDiproses, StatusDitolak},
	StatusDiproses: {StatusSelesai, StatusDitolak},
	StatusSelesai:  {},
	StatusDitolak:  {},
}

// CanTransition reports whether moving current -> next is allowed.
func CanTransition(current, next ComplaintStatus) bool {
	for _, candidate := range statusTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CategoryOption describes a category for the static listing endpoint.
type CategoryOption struct {
	Value ComplaintCategory `json:"value"`
	Label string            `json:"label"`
}

// CategoryOptions returns the selectable categories.
func CategoryOptions() []CategoryOption {
	return []CategoryOption{
		{Value: CategoryInfrastruktur, Label: "Infrastruktur"},
		{Value: CategoryKebersihan, Label: "Kebersihan"},
		{Value: CategoryKeamanan, Label: "Keamanan"},
		{Value: CategoryPelayanan, Label: "Pelayanan Publik"},
		{Value: CategoryLingkungan, Label: "Lingkungan"},
		{Value: CategoryTransportasi, Label: "Transportasi"},
		{Value: CategoryLainnya, Label: "Lainnya"},
	}
}

// StatusOption describes a status with its display color.
type StatusOption struct {
	Value ComplaintStatus `json:"value"`
	Label string          `json:"label"`
	Color string          `json:"color"`
}

// StatusOptions returns the selectable statuses.
func StatusOptions() []StatusOption {
	return []StatusOption{
		{Value: StatusPending, Label: "Menunggu", Color: "orange"},
		{Value: StatusDiproses, Label: "Sedang Diproses", Color: "blue"},
		{Value: StatusSelesai, Label: "Selesai", Color: "green"},
		{Value: StatusDitolak, Label: "Ditolak", Color: "red"},
	}
}
