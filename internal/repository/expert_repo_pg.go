package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpertRepository interface {
	List(ctx context.Context, filter domain.ExpertFilter) ([]domain.Expert, int, error)
	GetByID(ctx context.Context, id string) (*domain.Expert, error)
	SlotsByDate(ctx context.Context, expertID string) (map[string][]domain.Slot, error)
}

type PGExpertRepository struct {
	db *pgxpool.Pool
}

func NewExpertRepository(db *pgxpool.Pool) ExpertRepository {
	return &PGExpertRepository{db: db}
}

const expertColumns = `id, name, category, bio, avatar, experience, rating, total_reviews, hourly_rate, created_at, updated_at`

func (r *PGExpertRepository) List(ctx context.Context, filter domain.ExpertFilter) ([]domain.Expert, int, error) {
	where, args := expertFilter(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM experts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM experts%s ORDER BY rating DESC, name LIMIT $%d OFFSET $%d`,
		expertColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	experts := make([]domain.Expert, 0)
	for rows.Next() {
		var e domain.Expert
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.Bio, &e.Avatar, &e.Experience, &e.Rating, &e.TotalReviews, &e.HourlyRate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		experts = append(experts, e)
	}
	return experts, total, rows.Err()
}

func expertFilter(filter domain.ExpertFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR bio ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PGExpertRepository) GetByID(ctx context.Context, id string) (*domain.Expert, error) {
	row := r.db.QueryRow(ctx, `SELECT `+expertColumns+` FROM experts WHERE id=$1`, id)
	var e domain.Expert
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Bio, &e.Avatar, &e.Experience, &e.Rating, &e.TotalReviews, &e.HourlyRate, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// SlotsByDate returns the expert's upcoming calendar with slots in display order.
func (r *PGExpertRepository) SlotsByDate(ctx context.Context, expertID string) (map[string][]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT date, time, is_booked FROM expert_slots
		WHERE expert_id=$1 AND date >= to_char(current_date, 'YYYY-MM-DD')
		ORDER BY date, position`, expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDate := make(map[string][]domain.Slot)
	for rows.Next() {
		var date string
		var s domain.Slot
		if err := rows.Scan(&date, &s.Time, &s.IsBooked); err != nil {
			return nil, err
		}
		byDate[date] = append(byDate[date], s)
	}
	return byDate, rows.Err()
}

var _ ExpertRepository = (*PGExpertRepository)(nil)
