// Package repository implements all database queries for the events and stats services.
// It uses pgx directly (no ORM) so every query and lock is visible.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrRequestCanceled is returned when a status change targets a canceled request.
var ErrRequestCanceled = errors.New("request canceled")

const pgUniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool and pgx.Tx, so the same query code
// runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// predicates composes optional WHERE clauses. A '?' in a clause is replaced
// by the positional placeholder of its argument; a clause may repeat it.
type predicates struct {
	clauses []string
	args    []any
}

func (p *predicates) add(clause string, arg any) {
	p.args = append(p.args, arg)
	p.clauses = append(p.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(p.args))))
}

func (p *predicates) addRaw(clause string) {
	p.clauses = append(p.clauses, clause)
}

func (p *predicates) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// limit appends LIMIT/OFFSET placeholders for the page.
func (p *predicates) limit(size, from int) string {
	p.args = append(p.args, size, from)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(p.args)-1, len(p.args))
}

// likePattern escapes LIKE wildcards in s and wraps it for a contains match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
