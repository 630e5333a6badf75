package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticketdesk/backend/internal/ticket/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ticket repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const ticketColumns = `id, title, description, priority, status, category_id, requester_id, assignee_id, created_at, updated_at`

// viewColumns joins category, requester, and assignee summaries onto the
// ticket row. Category and assignee are LEFT JOINs since both are optional.
const viewColumns = `
	t.id, t.title, t.description, t.priority, t.status,
	c.id, c.name,
	r.id, r.name, r.email,
	a.id, a.name, a.email,
	t.created_at, t.updated_at`

const viewFrom = `
	FROM tickets t
	LEFT JOIN categories c ON c.id = t.category_id
	JOIN users r ON r.id = t.requester_id
	LEFT JOIN users a ON a.id = t.assignee_id`

func (r *PostgresRepository) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.CategoryID, t.RequesterID, t.AssigneeID, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetByID returns the raw ticket row for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	var t domain.Ticket
	var priority, status string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &status,
		&t.CategoryID, &t.RequesterID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	return &t, nil
}

// Exists reports whether a ticket row with id exists.
func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// GetView returns the joined read model for id, or nil if not found.
func (r *PostgresRepository) GetView(ctx context.Context, id string) (*domain.View, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+viewColumns+viewFrom+` WHERE t.id = $1`, id)
	v, err := scanView(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.View, error) {
	return r.listViews(ctx, `SELECT `+viewColumns+viewFrom+`
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tickets`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) ListByAssignee(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error) {
	return r.listViews(ctx, `SELECT `+viewColumns+viewFrom+`
		WHERE t.assignee_id = $3
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset, userID)
}

func (r *PostgresRepository) CountByAssignee(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tickets WHERE assignee_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *PostgresRepository) ListByRequester(ctx context.Context, userID string, limit, offset int) ([]*domain.View, error) {
	return r.listViews(ctx, `SELECT `+viewColumns+viewFrom+`
		WHERE t.requester_id = $3
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset, userID)
}

func (r *PostgresRepository) CountByRequester(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tickets WHERE requester_id = $1`, userID).Scan(&n)
	return n, err
}

// Update persists the mutable ticket fields.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET title = $2, description = $3, priority = $4, status = $5,
		    category_id = $6, assignee_id = $7, updated_at = $8
		WHERE id = $1`,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.CategoryID, t.AssigneeID, t.UpdatedAt,
	)
	return err
}

// SetAssignee assigns the ticket to assigneeID. Returns false when the ticket
// does not exist.
func (r *PostgresRepository) SetAssignee(ctx context.Context, ticketID, assigneeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET assignee_id = $2, updated_at = now() WHERE id = $1`,
		ticketID, assigneeID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the ticket and returns false when it does not exist.
// Comments cascade at the schema level.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListForTicket returns the comment thread for the ticket detail view,
// oldest first.
func (r *PostgresRepository) ListForTicket(ctx context.Context, ticketID string) ([]domain.CommentView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cm.body, u.id, u.name, u.email, cm.created_at
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.ticket_id = $1
		ORDER BY cm.created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CommentView
	for rows.Next() {
		var cv domain.CommentView
		if err := rows.Scan(&cv.Body, &cv.Author.ID, &cv.Author.Name, &cv.Author.Email, &cv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) listViews(ctx context.Context, query string, args ...interface{}) ([]*domain.View, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.View
	for rows.Next() {
		v, err := scanView(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanView(scan func(...interface{}) error) (*domain.View, error) {
	var v domain.View
	var priority, status string
	var catID, catName sql.NullString
	var reqID, reqName, reqEmail sql.NullString
	var asgID, asgName, asgEmail sql.NullString
	err := scan(&v.ID, &v.Title, &v.Description, &priority, &status,
		&catID, &catName,
		&reqID, &reqName, &reqEmail,
		&asgID, &asgName, &asgEmail,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Priority = domain.Priority(priority)
	v.Status = domain.Status(status)
	if catID.Valid {
		v.Category = &domain.CategoryRef{ID: catID.String, Name: catName.String}
	}
	if reqID.Valid {
		v.Requester = &domain.UserRef{ID: reqID.String, Name: reqName.String, Email: reqEmail.String}
	}
	if asgID.Valid {
		v.Assignee = &domain.UserRef{ID: asgID.String, Name: asgName.String, Email: asgEmail.String}
	}
	return &v, nil
}
