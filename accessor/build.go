package accessor

import (
	"fmt"
	"strings"

	"github.com/roach88/lightorm/internal/sqltext"
	"github.com/roach88/lightorm/record"
)

// Statement is generated SQL using the canonical "?" marker together with
// the parameters it binds, in marker order.
type Statement struct {
	SQL  string
	Args []any
}

// buildFilter renders ident as "a = ? and b is null".
// Null values compare with IS NULL and bind nothing. An empty filter
// renders as "" and matches every row.
func buildFilter(ident record.Fields) (string, []any, error) {
	if len(ident) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(ident))
	var args []any
	for _, f := range ident {
		col, err := sqltext.Ident(f.Name)
		if err != nil {
			return "", nil, err
		}
		if record.IsNull(f.Value) {
			parts = append(parts, col+" is null")
			continue
		}
		parts = append(parts, col+" = ?")
		args = append(args, f.Value)
	}
	return strings.Join(parts, " and "), args, nil
}

// buildSelect builds "select <projection> from <table> [where <filter>]".
// projection is either an identity column or "*".
func buildSelect(table, projection string, ident record.Fields) (Statement, error) {
	where, args, err := buildFilter(ident)
	if err != nil {
		return Statement{}, err
	}

	query := fmt.Sprintf("select %s from %s", projection, table)
	if where != "" {
		query += " where " + where
	}
	return Statement{SQL: query, Args: args}, nil
}

// buildInsert inserts exactly the given columns. No columns inserts a row of
// defaults.
func buildInsert(table string, fields record.Fields) (Statement, error) {
	if len(fields) == 0 {
		return Statement{SQL: fmt.Sprintf("insert into %s default values", table)}, nil
	}

	cols, err := sqltext.Idents(fields.Names())
	if err != nil {
		return Statement{}, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = boundValue(f.Value)
	}

	return Statement{
		SQL:  fmt.Sprintf("insert into %s (%s) values (%s)", table, strings.Join(cols, ", "), marks),
		Args: args,
	}, nil
}

// buildUpdate sets every field except identityCol and keys the row on the
// identity value. ok is false when there is nothing to set.
func buildUpdate(table, identityCol string, fields record.Fields) (st Statement, ok bool, err error) {
	id, found := fields.Get(identityCol)
	if !found || record.IsNull(id) {
		return Statement{}, false, fmt.Errorf("record has no %s value", identityCol)
	}
	idCol, err := sqltext.Ident(identityCol)
	if err != nil {
		return Statement{}, false, err
	}

	var sets []string
	var args []any
	for _, f := range fields {
		if f.Name == identityCol {
			continue
		}
		col, err := sqltext.Ident(f.Name)
		if err != nil {
			return Statement{}, false, err
		}
		sets = append(sets, col+" = ?")
		args = append(args, boundValue(f.Value))
	}
	if len(sets) == 0 {
		return Statement{}, false, nil
	}
	args = append(args, id)

	return Statement{
		SQL:  fmt.Sprintf("update %s set %s where %s = ?", table, strings.Join(sets, ", "), idCol),
		Args: args,
	}, true, nil
}

func boundValue(v record.Value) any {
	if v == nil {
		return record.Null{}
	}
	return v
}
