package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the loggable view of an error chain, with postgres
// diagnostics pulled out when a driver error is buried in the chain.
// Checkout and cart writes surface unique-violation and check-constraint
// failures this way.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens err into an ErrorDump. It never fails; an empty dump means
// err was nil.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	dump := ErrorDump{TopMessage: err.Error()}

	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		dump.Chain = append(dump.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	// pgx is the active driver; lib/pq errors still show up through
	// pq.StringArray scans.
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		dump.PGCode = pgxErr.Code
		dump.PGConstraint = pgxErr.ConstraintName
		dump.PGTable = pgxErr.TableName
		dump.PGColumn = pgxErr.ColumnName
		dump.PGDetail = pgxErr.Detail
		dump.PGMessage = pgxErr.Message
		return dump
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		dump.PGCode = string(pqErr.Code)
		dump.PGConstraint = pqErr.Constraint
		dump.PGTable = pqErr.Table
		dump.PGColumn = pqErr.Column
		dump.PGDetail = pqErr.Detail
		dump.PGMessage = pqErr.Message
	}

	return dump
}
