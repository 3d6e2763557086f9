package executor

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/lightorm/ormerr"
)

// pgReadOnlyTransaction is SQLSTATE read_only_sql_transaction.
const pgReadOnlyTransaction = "25006"

// classify converts a driver error into an *ormerr.Error. Writes rejected
// because the connection is read-only become CodeReadOnly; everything else
// is CodeBackendFailure. The driver error stays reachable with errors.As.
func classify(query string, args []any, err error) error {
	var oe *ormerr.Error
	if errors.As(err, &oe) {
		return err
	}

	if isReadOnlyRejection(err) {
		return &ormerr.Error{
			Code:    ormerr.CodeReadOnly,
			Message: "store rejected write on read-only connection",
			Query:   query,
			Args:    args,
			Err:     err,
		}
	}
	return ormerr.NewBackend(query, args, err)
}

func isReadOnlyRejection(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrReadonly
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgReadOnlyTransaction
	}
	return false
}
