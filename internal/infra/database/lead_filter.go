package database

import (
	"strings"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// leadFilterArgs is the fixed set of values a listing can bind. Clauses refer
// to them by name and sqlx.Named turns them into positional parameters.
type leadFilterArgs struct {
	Pattern  string    `db:"pattern"`
	Source   string    `db:"source"`
	Status   string    `db:"status"`
	DateFrom time.Time `db:"date_from"`
	DateTo   time.Time `db:"date_to"`
	Limit    int       `db:"limit"`
	Offset   int       `db:"offset"`
}

// sortColumns is the only way a sort key reaches the query text.
var sortColumns = map[entity.SortField]string{
	entity.SortCreatedAt: "created_at",
	entity.SortUpdatedAt: "updated_at",
	entity.SortName:      "name",
	entity.SortEmail:     "email",
}

// searchClause matches the pattern against every free-text column, folded
// with lower.
func searchClause(lower string) string {
	cols := []string{"name", "email", "phone", "message"}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = lower + "(" + c + `) LIKE :pattern ESCAPE '\'`
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// buildLeadWhere returns the WHERE clause (empty when no filter is set) and the
// values it refers to. Clause order is fixed so both reads of a listing see
// the same text. lower is the SQL fold function of the target driver.
func buildLeadWhere(f entity.LeadFilter, lower string) (string, leadFilterArgs) {
	var (
		clauses []string
		args    leadFilterArgs
	)

	if f.Search != "" {
		clauses = append(clauses, searchClause(lower))
		args.Pattern = "%" + escapeLike(strings.ToLower(f.Search)) + "%"
	}
	if f.Source != nil {
		clauses = append(clauses, "source = :source")
		args.Source = string(*f.Source)
	}
	if f.Status != nil {
		clauses = append(clauses, "status = :status")
		args.Status = string(*f.Status)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "created_at >= :date_from")
		args.DateFrom = f.DateFrom.UTC()
	}
	if f.DateTo != nil {
		clauses = append(clauses, "created_at <= :date_to")
		args.DateTo = f.DateTo.UTC()
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildLeadOrder orders by the allow-listed column, then by id in the same
// direction so equal keys page deterministically.
func buildLeadOrder(field entity.SortField, dir entity.SortDir) string {
	col, ok := sortColumns[field]
	if !ok {
		col = sortColumns[entity.SortCreatedAt]
	}
	d := "DESC"
	if dir == entity.SortAsc {
		d = "ASC"
	}
	return " ORDER BY " + col + " " + d + ", id " + d
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
