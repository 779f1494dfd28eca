package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ConstraintKind names the class of integrity violation behind a driver error.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique_violation"
	ConstraintForeignKey ConstraintKind = "foreign_key_violation"
	ConstraintNotNull    ConstraintKind = "not_null_violation"
	ConstraintCheck      ConstraintKind = "check_violation"
)

var pgConstraintKinds = map[string]ConstraintKind{
	"23505": ConstraintUnique,
	"23503": ConstraintForeignKey,
	"23502": ConstraintNotNull,
	"23514": ConstraintCheck,
}

// sqlite only reports violations as text, e.g. "UNIQUE constraint failed: users.email".
var sqliteConstraintKinds = []struct {
	marker string
	kind   ConstraintKind
}{
	{"UNIQUE constraint failed", ConstraintUnique},
	{"FOREIGN KEY constraint failed", ConstraintForeignKey},
	{"NOT NULL constraint failed", ConstraintNotNull},
	{"CHECK constraint failed", ConstraintCheck},
}

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Driver       string         `json:"driver,omitempty"`
	Constraint   ConstraintKind `json:"constraint_kind,omitempty"`
	DBCode       string         `json:"db_code,omitempty"`
	DBConstraint string         `json:"db_constraint,omitempty"`
	DBTable      string         `json:"db_table,omitempty"`
	DBColumn     string         `json:"db_column,omitempty"`
	DBDetail     string         `json:"db_detail,omitempty"`
	DBMessage    string         `json:"db_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Driver = "pgx"
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		d.Constraint = pgConstraintKinds[pgxErr.Code]
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Driver = "pq"
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
		d.Constraint = pgConstraintKinds[string(pqErr.Code)]
		return d
	}

	dumpSQLite(&d, err)
	return d
}

func dumpSQLite(d *ErrorDump, err error) {
	msg := err.Error()
	for _, candidate := range sqliteConstraintKinds {
		idx := strings.Index(msg, candidate.marker)
		if idx < 0 {
			continue
		}
		d.Driver = "sqlite"
		d.Constraint = candidate.kind
		d.DBMessage = msg[idx:]

		target := strings.TrimSpace(strings.TrimPrefix(msg[idx+len(candidate.marker):], ":"))
		// composite keys list every column: "reviews.user_id, reviews.product_id"
		if first, _, _ := strings.Cut(target, ","); first != "" {
			if table, column, ok := strings.Cut(strings.TrimSpace(first), "."); ok {
				d.DBTable = table
				d.DBColumn = column
			}
		}
		return
	}
}
