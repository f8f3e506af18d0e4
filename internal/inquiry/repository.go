package inquiry

import (
	"database/sql"
	"fmt"
)

const selectColumns = "id, name, email, subject, status, message, relay, created_at"

// Repository stores inquiries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an inquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add records a submission. Message holds the relay's message, if any.
func (r *Repository) Add(in Inquiry) (*Inquiry, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("inquiry email is required")
	}
	if in.Status != StatusSuccess && in.Status != StatusError {
		return nil, fmt.Errorf("invalid inquiry status %q", in.Status)
	}

	result, err := r.db.Exec(
		"INSERT INTO inquiries (name, email, subject, status, message, relay) VALUES (?, ?, ?, ?, ?, ?)",
		in.Name, in.Email, in.Subject, string(in.Status), in.Message, in.Relay,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting inquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	got, err := scan(r.db.QueryRow("SELECT "+selectColumns+" FROM inquiries WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading back inquiry: %w", err)
	}
	return got, nil
}

// List returns the most recent inquiries, newest first. A limit of zero or
// less returns all of them.
func (r *Repository) List(limit int) (inquiries []*Inquiry, err error) {
	query := "SELECT " + selectColumns + " FROM inquiries ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		in, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inquiry: %w", err)
		}
		inquiries = append(inquiries, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inquiries: %w", err)
	}

	return inquiries, nil
}

// Count returns the number of inquiries with the given status.
func (r *Repository) Count(status Status) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM inquiries WHERE status = ?", string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting inquiries: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Inquiry, error) {
	var in Inquiry
	var status string
	if err := s.Scan(&in.ID, &in.Name, &in.Email, &in.Subject, &status, &in.Message, &in.Relay, &in.CreatedAt); err != nil {
		return nil, err
	}
	in.Status = Status(status)
	return &in, nil
}
