package postgres

import "strings"

const defaultPerPage = 20

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE match, escaping wildcards.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// limitOffset turns 1-based page numbers into LIMIT/OFFSET values.
func limitOffset(page, perPage int) (limit, offset int) {
	limit = perPage
	if limit <= 0 {
		limit = defaultPerPage
	}
	if page > 1 {
		offset = (page - 1) * limit
	}
	return limit, offset
}
