package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pengaduan-service/internal/api/dto"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/service"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// ComplaintsHandler exposes the public and admin pengaduan endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints}
}

// Create handles POST /api/pengaduan. Accepts multipart form data with an
// optional `foto` file part, or plain JSON.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
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
	return respond(c, http.StatusCreated, "Pengaduan berhasil dibuat", dto.NewComplaintResponse(complaint))
}

// List handles GET /api/pengaduan. Citizens only ever see their own rows.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	input := service.ComplaintListInput{
		Status:   c.Query("status"),
		Category: c.Query("kategori"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	}
	if userID := int64(c.QueryInt("userId", 0)); userID > 0 {
		input.UserID = &userID
	}

	complaints, pagination, err := h.complaints.List(c.UserContext(), input, callerFrom(c))
	if err != nil {
		return err
	}
	return respondPaged(c, "Data pengaduan berhasil diambil",
		dto.NewComplaintResponses(complaints), dto.NewPaginationResponse(pagination))
}

// GetByID handles GET /api/pengaduan/:id.
func (h *ComplaintsHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Data pengaduan berhasil diambil", dto.NewComplaintResponse(complaint))
}

// UpdateStatus handles PUT /api/pengaduan/:id/status (admin only).
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Status wajib diisi", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	complaint, err := h.complaints.UpdateStatus(c.UserContext(), id, req.Status, callerFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Status pengaduan berhasil diupdate", dto.NewComplaintResponse(complaint))
}

// Update handles PUT /api/pengaduan/:id.
func (h *ComplaintsHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.complaints.Update(c.UserContext(), id, service.ComplaintUpdateInput{
		Title:    req.Title,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Category: req.Category,
		Body:     req.Body,
	}, callerFrom(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Pengaduan berhasil diupdate", dto.NewComplaintResponse(complaint))
}

// Delete handles DELETE /api/pengaduan/:id (admin only).
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.complaints.Delete(c.UserContext(), id, callerFrom(c)); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Pengaduan berhasil dihapus", nil)
}

// Stats handles GET /api/pengaduan/stats (admin only).
func (h *ComplaintsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.complaints.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Statistik pengaduan berhasil diambil", dto.NewComplaintStatsResponse(stats))
}

// Categories handles GET /api/pengaduan/kategori/list.
func (h *ComplaintsHandler) Categories(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, "Daftar kategori berhasil diambil", domain.CategoryOptions())
}

// Statuses handles GET /api/pengaduan/status/list.
func (h *ComplaintsHandler) Statuses(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, "Daftar status berhasil diambil", domain.StatusOptions())
}

// callerFrom maps the request principal onto the service caller. Anonymous
// requests map to nil.
func callerFrom(c *fiber.Ctx) *service.Caller {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil {
		return nil
	}
	return &service.Caller{ID: principal.UserID, Role: principal.Role}
}

// readPhoto loads the uploaded file into memory for the storage layer.
func readPhoto(file *multipart.FileHeader) (*service.PhotoUpload, error) {
	src, err := file.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("File foto tidak dapat dibaca", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.NewValidationError("File foto tidak dapat dibaca", nil)
	}
	return &service.PhotoUpload{Filename: file.Filename, Data: data}, nil
}
