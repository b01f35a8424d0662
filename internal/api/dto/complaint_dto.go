package dto

import (
	"time"

	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/service"
)

// CreateComplaintRequest payload for intake. Arrives as multipart form fields
// (with an optional `foto` file part) or as plain JSON.
type CreateComplaintRequest struct {
	Name     string `json:"nama" form:"nama"`
	Phone    string `json:"nomor_hp" form:"nomor_hp"`
	Category string `json:"kategori" form:"kategori"`
	Title    string `json:"judul" form:"judul"`
	Body     string `json:"deskripsi" form:"deskripsi"`
	Address  string `json:"lokasi" form:"lokasi"`
}

// UpdateComplaintRequest carries optional field changes.
type UpdateComplaintRequest struct {
	Title    *string `json:"judul"`
	Name     *string `json:"nama"`
	Address  *string `json:"alamat"`
	Phone    *string `json:"nomor_hp"`
	Category *string `json:"kategori"`
	Body     *string `json:"isi"`
}

// UpdateStatusRequest payload for triage moves.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReporterResponse is the embedded owner summary.
type ReporterResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Name  *string     `json:"nama"`
	Role  domain.Role `json:"role"`
}

// ComplaintResponse is the wire shape of a pengaduan record.
type ComplaintResponse struct {
	ID        int64                    `json:"id"`
	Title     string                   `json:"judul"`
	Name      string                   `json:"nama"`
	Address   *string                  `json:"alamat"`
	Phone     string                   `json:"nomor_hp"`
	Category  domain.ComplaintCategory `json:"kategori"`
	Body      string                   `json:"isi"`
	PhotoRef  *string                  `json:"foto"`
	Status    domain.ComplaintStatus   `json:"status"`
	UserID    *int64                   `json:"userId"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Reporter  *ReporterResponse        `json:"user,omitempty"`
}

// PaginationResponse is the listing envelope metadata.
type PaginationResponse struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// ComplaintStatsResponse is the admin dashboard aggregate.
type ComplaintStatsResponse struct {
	Total      int64                              `json:"total"`
	ByStatus   map[domain.ComplaintStatus]int64   `json:"byStatus"`
	ByKategori map[domain.ComplaintCategory]int64 `json:"byKategori"`
	Recent     []ComplaintResponse                `json:"recent"`
}

// NewComplaintResponse maps a domain complaint to its wire shape.
func NewComplaintResponse(complaint *domain.Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:        complaint.ID,
		Title:     complaint.Title,
		Name:      complaint.Name,
		Address:   complaint.Address,
		Phone:     complaint.Phone,
		Category:  complaint.Category,
		Body:      complaint.Body,
		PhotoRef:  complaint.PhotoRef,
		Status:    complaint.Status,
		UserID:    complaint.UserID,
		CreatedAt: complaint.CreatedAt,
		UpdatedAt: complaint.UpdatedAt,
	}
	if complaint.Reporter != nil {
		resp.Reporter = &ReporterResponse{
			ID:    complaint.Reporter.ID,
			Email: complaint.Reporter.Email,
			Name:  complaint.Reporter.Name,
			Role:  complaint.Reporter.Role,
		}
	}
	return resp
}

// NewComplaintResponses maps a slice of complaints.
func NewComplaintResponses(complaints []domain.Complaint) []ComplaintResponse {
	items := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, NewComplaintResponse(&complaints[i]))
	}
	return items
}

// NewPaginationResponse maps service pagination metadata.
func NewPaginationResponse(p *service.Pagination) *PaginationResponse {
	if p == nil {
		return nil
	}
	return &PaginationResponse{
		CurrentPage:  p.CurrentPage,
		TotalPages:   p.TotalPages,
		TotalItems:   p.TotalItems,
		ItemsPerPage: p.ItemsPerPage,
		HasNextPage:  p.HasNextPage,
		HasPrevPage:  p.HasPrevPage,
	}
}

// NewComplaintStatsResponse maps the dashboard aggregate.
func NewComplaintStatsResponse(stats *service.ComplaintStats) ComplaintStatsResponse {
	return ComplaintStatsResponse{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		ByKategori: stats.ByKategori,
		Recent:     NewComplaintResponses(stats.Recent),
	}
}
