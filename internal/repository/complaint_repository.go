package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pengaduan-service/internal/domain"
)

// ComplaintFilter captures listing parameters. UserID scopes to an owner;
// services set it server-side for citizen callers.
type ComplaintFilter struct {
	UserID   *int64
	Status   *domain.ComplaintStatus
	Category *domain.ComplaintCategory
	Limit    int
	Offset   int
}

// StatusCount pairs a status with its row count.
type StatusCount struct {
	Status domain.ComplaintStatus
	Count  int64
}

// CategoryCount pairs a category with its row count.
type CategoryCount struct {
	Category domain.ComplaintCategory
	Count    int64
}

// ComplaintRepository encapsulates pengaduan persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int64, error)
	CountByStatus(ctx context.Context, userID *int64) ([]StatusCount, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintSelect = `
        SELECT p.id, p.judul, p.nama, p.alamat, p.nomor_hp, p.kategori, p.isi, p.foto,
               p.status, p.user_id, p.created_at, p.updated_at,
               u.id, u.email, u.nama, u.role
        FROM pengaduan p
        LEFT JOIN users u ON u.id = p.user_id`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO pengaduan (judul, nama, alamat, nomor_hp, kategori, isi, foto, status, user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.Title,
		complaint.Name,
		complaint.Address,
		complaint.Phone,
		complaint.Category,
		complaint.Body,
		complaint.PhotoRef,
		complaint.Status,
		complaint.UserID,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE pengaduan SET judul=$1, nama=$2, alamat=$3, nomor_hp=$4, kategori=$5, isi=$6,
            foto=$7, status=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		complaint.Title,
		complaint.Name,
		complaint.Address,
		complaint.Phone,
		complaint.Category,
		complaint.Body,
		complaint.PhotoRef,
		complaint.Status,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM pengaduan WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	query := complaintSelect + ` WHERE p.id=$1`
	var complaint domain.Complaint
	if err := scanComplaint(r.pool.QueryRow(ctx, query, id), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses, args := complaintFilterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.created_at DESC LIMIT %d OFFSET %d`,
		complaintSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) Count(ctx context.Context, filter ComplaintFilter) (int64, error) {
	clauses, args := complaintFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM pengaduan p WHERE %s`, strings.Join(clauses, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *complaintRepository) CountByStatus(ctx context.Context, userID *int64) ([]StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM pengaduan GROUP BY status`
	args := []any{}
	if userID != nil {
		query = `SELECT status, COUNT(*) FROM pengaduan WHERE user_id=$1 GROUP BY status`
		args = append(args, *userID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var entry StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *complaintRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT kategori, COUNT(*) FROM pengaduan GROUP BY kategori`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var entry CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *complaintRepository) ListRecent(ctx context.Context, limit int) ([]domain.Complaint, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`%s ORDER BY p.created_at DESC LIMIT %d`, complaintSelect, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func complaintFilterClauses(filter ComplaintFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("p.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("p.status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("p.kategori=$%d", len(args)))
	}
	return clauses, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner, complaint *domain.Complaint) error {
	var (
		reporterID    *int64
		reporterEmail *string
		reporterName  *string
		reporterRole  *domain.Role
	)
	if err := row.Scan(
		&complaint.ID,
		&complaint.Title,
		&complaint.Name,
		&complaint.Address,
		&complaint.Phone,
		&complaint.Category,
		&complaint.Body,
		&complaint.PhotoRef,
		&complaint.Status,
		&complaint.UserID,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&reporterID,
		&reporterEmail,
		&reporterName,
		&reporterRole,
	); err != nil {
		return err
	}
	if reporterID != nil {
		complaint.Reporter = &domain.User{
			ID:    *reporterID,
			Email: *reporterEmail,
			Name:  reporterName,
			Role:  *reporterRole,
		}
	}
	return nil
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := scanComplaint(rows, &complaint); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
