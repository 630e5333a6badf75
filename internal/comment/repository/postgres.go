package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticketdesk/backend/internal/comment/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a comment repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const viewColumns = `
	c.id, c.body, c.ticket_id, c.created_at, c.updated_at,
	u.id, u.name, u.email, u.role`

const viewFrom = `
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func (r *PostgresRepository) Create(ctx context.Context, c *domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, body, ticket_id, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Body, c.TicketID, c.AuthorID, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID returns the raw comment row for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, body, ticket_id, author_id, created_at, updated_at
		FROM comments WHERE id = $1`, id)
	var c domain.Comment
	err := row.Scan(&c.ID, &c.Body, &c.TicketID, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetView returns the joined read model for id, or nil if not found.
func (r *PostgresRepository) GetView(ctx context.Context, id string) (*domain.View, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+viewColumns+viewFrom+` WHERE c.id = $1`, id)
	var v domain.View
	err := row.Scan(&v.ID, &v.Body, &v.TicketID, &v.CreatedAt, &v.UpdatedAt,
		&v.Author.ID, &v.Author.Name, &v.Author.Email, &v.Author.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// List returns comments newest first, optionally filtered by ticket.
func (r *PostgresRepository) List(ctx context.Context, ticketID string, limit, offset int) ([]*domain.View, error) {
	query := `SELECT ` + viewColumns + viewFrom
	args := []interface{}{limit, offset}
	if ticketID != "" {
		query += ` WHERE c.ticket_id = $3`
		args = append(args, ticketID)
	}
	query += ` ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.View
	for rows.Next() {
		var v domain.View
		if err := rows.Scan(&v.ID, &v.Body, &v.TicketID, &v.CreatedAt, &v.UpdatedAt,
			&v.Author.ID, &v.Author.Name, &v.Author.Email, &v.Author.Role); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context, ticketID string) (int, error) {
	var n int
	var err error
	if ticketID == "" {
		err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM comments`).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM comments WHERE ticket_id = $1`, ticketID).Scan(&n)
	}
	return n, err
}

func (r *PostgresRepository) SetBody(ctx context.Context, id, body string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE comments SET body = $2, updated_at = now() WHERE id = $1`, id, body)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
