package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

const uniqueViolationCode = "23505"

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository instantiates the pgx-backed ticket store.
func NewPostgresRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) NextID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT nextval('ticket_number_seq')::TEXT`).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *postgresRepository) Create(ctx context.Context, id, requesterID, channelID string) (*domain.Ticket, error) {
	const query = `
        INSERT INTO tickets (id, requester_id, channel_id, status)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	ticket := &domain.Ticket{
		ID:          id,
		RequesterID: requesterID,
		ChannelID:   channelID,
		Status:      domain.TicketStatusOpen,
	}
	err := r.pool.QueryRow(ctx, query, id, requesterID, channelID, domain.TicketStatusOpen).
		Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrOpenTicketExists
		}
		return nil, err
	}
	return ticket, nil
}

func (r *postgresRepository) FindOpenByRequester(ctx context.Context, requesterID string) (*domain.Ticket, error) {
	const query = `
        SELECT id, requester_id, channel_id, status, created_at, updated_at, closed_at
        FROM tickets WHERE requester_id=$1 AND status=$2`
	return r.fetchSingle(ctx, query, requesterID, domain.TicketStatusOpen)
}

func (r *postgresRepository) FindOpenByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	const query = `
        SELECT id, requester_id, channel_id, status, created_at, updated_at, closed_at
        FROM tickets WHERE channel_id=$1 AND status=$2`
	return r.fetchSingle(ctx, query, channelID, domain.TicketStatusOpen)
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, requester_id, channel_id, status, created_at, updated_at, closed_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *postgresRepository) CloseByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$1, closed_at=NOW(), updated_at=NOW()
        WHERE channel_id=$2 AND status=$3
        RETURNING id, requester_id, channel_id, status, created_at, updated_at, closed_at`
	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query, domain.TicketStatusClosed, channelID, domain.TicketStatusOpen).Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.ChannelID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *postgresRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, requester_id, channel_id, status, created_at, updated_at, closed_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *postgresRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *postgresRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.ChannelID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.RequesterID,
			&ticket.ChannelID,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
