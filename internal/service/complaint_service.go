package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/pengaduan-service/internal/domain"
	"github.com/spec-kit/pengaduan-service/internal/events"
	"github.com/spec-kit/pengaduan-service/internal/repository"
	"github.com/spec-kit/pengaduan-service/internal/storage"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

const (
	statsCacheKey = "pengaduan:stats:v1"
	statsCacheTTL = 60 * time.Second
	recentLimit   = 5
)

const invalidCategoryMessage = "Kategori tidak valid. Pilihan: infrastruktur, kebersihan, keamanan, pelayanan, lingkungan, transportasi, lainnya"

// Caller identifies the authenticated request principal. A nil *Caller means
// an anonymous request.
type Caller struct {
	ID   int64
	Role domain.Role
}

// IsAdmin reports whether the caller is an administrator.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == domain.RoleAdmin
}

// ComplaintService coordinates the pengaduan lifecycle: intake validation,
// ownership windows, the status transition table and statistics.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	photos     storage.Uploader
	cache      *redis.Client
	dispatcher events.Dispatcher
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Photos        storage.Uploader
	Cache         *redis.Client
	Dispatcher    events.Dispatcher
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		photos:     deps.Photos,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// PhotoUpload carries raw multipart photo bytes.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// ComplaintCreateInput describes the intake payload.
type ComplaintCreateInput struct {
	Title    string
	Name     string
	Address  string
	Phone    string
	Category string
	Body     string
	Photo    *PhotoUpload
}

// ComplaintUpdateInput carries optional field changes; nil leaves a field
// untouched.
type ComplaintUpdateInput struct {
	Title    *string
	Name     *string
	Address  *string
	Phone    *string
	Category *string
	Body     *string
}

// ComplaintListInput describes listing parameters before server-side scoping.
type ComplaintListInput struct {
	UserID   *int64
	Status   string
	Category string
	Page     int
	Limit    int
}

// Pagination is the listing envelope metadata.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// ComplaintStats is the admin dashboard aggregate.
type ComplaintStats struct {
	Total      int64                              `json:"total"`
	ByStatus   map[domain.ComplaintStatus]int64   `json:"byStatus"`
	ByKategori map[domain.ComplaintCategory]int64 `json:"byKategori"`
	Recent     []domain.Complaint                 `json:"recent"`
}

// OwnerStats summarizes one reporter's complaints.
type OwnerStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Diproses int64 `json:"diproses"`
	Selesai  int64 `json:"selesai"`
	Ditolak  int64 `json:"ditolak"`
}

// Create validates and persists a new complaint. Authenticated callers own
// the record; anonymous submissions leave UserID nil.
func (s *ComplaintService) Create(ctx context.Context, input ComplaintCreateInput, caller *Caller) (*domain.Complaint, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Phone) == "" ||
		strings.TrimSpace(input.Category) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("Field nama, nomor_hp, kategori, dan deskripsi wajib diisi", nil)
	}
	phone := strings.TrimSpace(input.Phone)
	if len(phone) < 10 {
		return nil, apperrors.NewValidationError("Nomor HP minimal 10 digit", nil)
	}
	category := domain.NormalizeCategory(input.Category)
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError(invalidCategoryMessage, nil)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = domain.DefaultComplaintTitle
	}

	complaint := &domain.Complaint{
		Title:    title,
		Name:     strings.TrimSpace(input.Name),
		Phone:    phone,
		Category: category,
		Body:     strings.TrimSpace(input.Body),
		Status:   domain.StatusPending,
	}
	if addr := strings.TrimSpace(input.Address); addr != "" {
		complaint.Address = &addr
	}
	if caller != nil {
		id := caller.ID
		complaint.UserID = &id
	}

	if input.Photo != nil && len(input.Photo.Data) > 0 && s.photos != nil {
		ref, err := s.photos.UploadBytes(ctx, input.Photo.Filename, input.Photo.Data)
		if err != nil {
			var tooLarge *storage.ErrTooLarge
			if errors.As(err, &tooLarge) {
				return nil, apperrors.NewValidationError("Ukuran foto melebihi batas maksimal", nil)
			}
			return nil, apperrors.MapError(err)
		}
		complaint.PhotoRef = &ref
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidateStats(ctx)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       actorFromCaller(caller),
		Payload: events.ComplaintCreatedPayload{
			Category: complaint.Category,
			Title:    complaint.Title,
			HasPhoto: complaint.PhotoRef != nil,
		},
	})
	return complaint, nil
}

// List returns a complaint page. Citizens are force-scoped to their own rows
// regardless of the requested filter; admins may filter by owner.
func (s *ComplaintService) List(ctx context.Context, input ComplaintListInput, caller *Caller) ([]domain.Complaint, *Pagination, error) {
	filter := repository.ComplaintFilter{}

	if input.Status != "" {
		status := domain.ComplaintStatus(strings.ToLower(input.Status))
		filter.Status = &status
	}
	if input.Category != "" {
		category := domain.NormalizeCategory(input.Category)
		filter.Category = &category
	}

	switch {
	case caller.IsAdmin():
		filter.UserID = input.UserID
	case caller != nil:
		id := caller.ID
		filter.UserID = &id
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	complaints, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	total, err := s.complaints.Count(ctx, filter)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	return complaints, buildPagination(page, limit, total), nil
}

// GetByID fetches a complaint. Complaint records are public reads.
func (s *ComplaintService) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Pengaduan tidak ditemukan")
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

// GetOwned fetches a complaint and hides its existence from non-owners.
func (s *ComplaintService) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Laporan tidak ditemukan atau Anda tidak memiliki akses")
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.UserID == nil || *complaint.UserID != ownerID {
		return nil, apperrors.NewNotFound("Laporan tidak ditemukan atau Anda tidak memiliki akses")
	}
	return complaint, nil
}

// UpdateStatus moves a complaint through the triage pipeline. Only moves the
// transition table allows are accepted.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id int64, rawStatus string, caller *Caller) (*domain.Complaint, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("Akses ditolak. Role tidak memiliki izin")
	}

	newStatus := domain.ComplaintStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("Status tidak valid. Pilihan: pending, diproses, selesai, ditolak", nil)
	}

	complaint, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(complaint.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition("Perubahan status tidak diizinkan", map[string]any{
			"from": complaint.Status,
			"to":   newStatus,
		})
	}

	oldStatus := complaint.Status
	complaint.Status = newStatus
	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidateStats(ctx)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: complaint.ID,
		Actor:       actorFromCaller(caller),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return complaint, nil
}

// Update applies field changes. Admins may edit any complaint at any time;
// owners only their own and only while it is still pending.
func (s *ComplaintService) Update(ctx context.Context, id int64, input ComplaintUpdateInput, caller *Caller) (*domain.Complaint, error) {
	complaint, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(complaint, caller, "Anda tidak memiliki akses untuk mengupdate pengaduan ini",
		"Laporan hanya bisa diedit jika status masih pending"); err != nil {
		return nil, err
	}

	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if len(phone) < 10 {
			return nil, apperrors.NewValidationError("Nomor HP minimal 10 digit", nil)
		}
		complaint.Phone = phone
	}
	if input.Category != nil {
		category := domain.NormalizeCategory(*input.Category)
		if !domain.ValidCategory(category) {
			return nil, apperrors.NewValidationError(invalidCategoryMessage, nil)
		}
		complaint.Category = category
	}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			complaint.Title = title
		}
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			complaint.Name = name
		}
	}
	if input.Address != nil {
		if addr := strings.TrimSpace(*input.Address); addr != "" {
			complaint.Address = &addr
		} else {
			complaint.Address = nil
		}
	}
	if input.Body != nil {
		if body := strings.TrimSpace(*input.Body); body != "" {
			complaint.Body = body
		}
	}

	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	return complaint, nil
}

// UpdateOwned is the self-scoped variant: non-owned rows read as absent.
func (s *ComplaintService) UpdateOwned(ctx context.Context, id, ownerID int64, input ComplaintUpdateInput) (*domain.Complaint, error) {
	if _, err := s.GetOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.Update(ctx, id, input, &Caller{ID: ownerID, Role: domain.RoleMasyarakat})
}

// Delete removes a complaint permanently. Admin-only on the general endpoint.
func (s *ComplaintService) Delete(ctx context.Context, id int64, caller *Caller) error {
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("Hanya admin yang dapat menghapus pengaduan")
	}
	complaint, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, complaint, caller)
}

// DeleteOwned removes the caller's own complaint while it is still pending.
func (s *ComplaintService) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	complaint, err := s.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if complaint.Status != domain.StatusPending {
		return apperrors.NewValidationError("Laporan hanya bisa dihapus jika status masih pending", nil)
	}
	return s.remove(ctx, complaint, &Caller{ID: ownerID, Role: domain.RoleMasyarakat})
}

func (s *ComplaintService) remove(ctx context.Context, complaint *domain.Complaint, caller *Caller) error {
	if err := s.complaints.Delete(ctx, complaint.ID); err != nil {
		return apperrors.MapError(err)
	}
	if complaint.PhotoRef != nil && s.photos != nil {
		_ = s.photos.Remove(ctx, *complaint.PhotoRef)
	}

	s.invalidateStats(ctx)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintDeleted,
		ComplaintID: complaint.ID,
		Actor:       actorFromCaller(caller),
		Payload:     events.ComplaintDeletedPayload{Status: complaint.Status},
	})
	return nil
}

// Stats returns the admin dashboard aggregate, served from Redis when fresh.
func (s *ComplaintService) Stats(ctx context.Context) (*ComplaintStats, error) {
	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	total, err := s.complaints.Count(ctx, repository.ComplaintFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	statusCounts, err := s.complaints.CountByStatus(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categoryCounts, err := s.complaints.CountByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := s.complaints.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &ComplaintStats{
		Total:      total,
		ByStatus:   make(map[domain.ComplaintStatus]int64, len(statusCounts)),
		ByKategori: make(map[domain.ComplaintCategory]int64, len(categoryCounts)),
		Recent:     recent,
	}
	for _, entry := range statusCounts {
		stats.ByStatus[entry.Status] = entry.Count
	}
	for _, entry := range categoryCounts {
		stats.ByKategori[entry.Category] = entry.Count
	}

	s.storeStats(ctx, stats)
	return stats, nil
}

// StatsForOwner summarizes the caller's own complaints by status.
func (s *ComplaintService) StatsForOwner(ctx context.Context, ownerID int64) (*OwnerStats, error) {
	counts, err := s.complaints.CountByStatus(ctx, &ownerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &OwnerStats{}
	for _, entry := range counts {
		stats.Total += entry.Count
		switch entry.Status {
		case domain.StatusPending:
			stats.Pending = entry.Count
		case domain.StatusDiproses:
			stats.Diproses = entry.Count
		case domain.StatusSelesai:
			stats.Selesai = entry.Count
		case domain.StatusDitolak:
			stats.Ditolak = entry.Count
		}
	}
	return stats, nil
}

// authorizeMutation is the shared owner/admin policy: admins always pass,
// owners pass only inside the pending window.
func (s *ComplaintService) authorizeMutation(complaint *domain.Complaint, caller *Caller, forbiddenMsg, pendingMsg string) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller == nil || complaint.UserID == nil || *complaint.UserID != caller.ID {
		return apperrors.NewForbidden(forbiddenMsg)
	}
	if complaint.Status != domain.StatusPending {
		return apperrors.NewValidationError(pendingMsg, nil)
	}
	return nil
}

func (s *ComplaintService) cachedStats(ctx context.Context) *ComplaintStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats ComplaintStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *ComplaintService) storeStats(ctx context.Context, stats *ComplaintStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err()
}

func (s *ComplaintService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, statsCacheKey).Err()
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFromCaller(caller *Caller) events.Actor {
	if caller == nil {
		return events.Actor{}
	}
	id := caller.ID
	return events.Actor{UserID: &id, Role: caller.Role}
}

func buildPagination(page, limit int, total int64) *Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}
