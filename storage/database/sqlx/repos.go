package sqlxrepos

import (
	"database/sql"
	"strconv"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const pqUniqueViolation = "23505"

// trapNoRowsErr converts sql.ErrNoRows into the domain's not-found error.
func trapNoRowsErr(err, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}

// isUniqueErr reports whether err is a unique violation on the named constraint or index.
func isUniqueErr(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}

// trapUniqueErr converts a unique constraint violation on constraint into dupErr.
func trapUniqueErr(err error, constraint string, dupErr error) error {
	if isUniqueErr(err, constraint) {
		return dupErr
	}
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }

func orderingClause(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	clause := " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			clause += ", "
		}
		clause += ord.String()
	}
	return clause
}
