package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/api/dto"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/service"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// ReportsHandler exposes the self-scoped /api/user/laporan endpoints where a
// citizen manages only their own pengaduan.
type ReportsHandler struct {
	complaints *service.ComplaintService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(complaints *service.ComplaintService) *ReportsHandler {
	return &ReportsHandler{complaints: complaints}
}

// Create handles POST /api/user/laporan. The record is always owned by the
// authenticated caller.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Field nama, nomor_hp, kategori, dan deskripsi wajib diisi", nil)
	}

	input := service.ComplaintCreateInput{
		Title:    req.Title,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Category: req.Category,
		Body:     req.Body,
	}
	if file, err := c.FormFile("foto"); err == nil && file != nil {
		photo, err := readPhoto(file)
		if err != nil {
			return err
		}
		input.Photo = photo
	}

	complaint, err := h.complaints.Create(c.UserContext(), input, callerFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Laporan berhasil dibuat", dto.NewComplaintResponse(complaint))
}

// List handles GET /api/user/laporan.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}

	input := service.ComplaintListInput{
		Status:   c.Query("status"),
		Category: c.Query("kategori"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		UserID:   &principal.UserID,
	}

	complaints, pagination, err := h.complaints.List(c.UserContext(), input,
		&service.Caller{ID: principal.UserID, Role: principal.Role})
	if err != nil {
		return err
	}
	return respondPaged(c, "Data laporan berhasil diambil",
		dto.NewComplaintResponses(complaints), dto.NewPaginationResponse(pagination))
}

// Stats handles GET /api/user/laporan/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	stats, err := h.complaints.StatsForOwner(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Statistik laporan berhasil diambil", stats)
}

// GetByID handles GET /api/user/laporan/:id. Rows owned by someone else read
// as absent.
func (h *ReportsHandler) GetByID(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetOwned(c.UserContext(), id, principal.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Data laporan berhasil diambil", dto.NewComplaintResponse(complaint))
}

// Update handles PUT /api/user/laporan/:id.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.complaints.UpdateOwned(c.UserContext(), id, principal.UserID, service.ComplaintUpdateInput{
		Title:    req.Title,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Category: req.Category,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Laporan berhasil diupdate", dto.NewComplaintResponse(complaint))
}

// Delete handles DELETE /api/user/laporan/:id. Only pending laporan may be
// withdrawn.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("User tidak terautentikasi")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.complaints.DeleteOwned(c.UserContext(), id, principal.UserID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Laporan berhasil dihapus", nil)
}
