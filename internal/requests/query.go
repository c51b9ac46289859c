package requests

import "strings"

const (
	selectClause = "SELECT a.audible_asin, u.plex_email, u.plex_username " +
		"FROM requests r " +
		"JOIN audiobooks a ON r.audiobook_id = a.id " +
		"JOIN users u ON r.user_id = u.id "

	// postgresQuery is used over a direct connection; $1 binds the statuses.
	postgresQuery = "SELECT a.audible_asin, COALESCE(u.plex_email, ''), COALESCE(u.plex_username, '') " +
		"FROM requests r " +
		"JOIN audiobooks a ON r.audiobook_id = a.id " +
		"JOIN users u ON r.user_id = u.id " +
		"WHERE r.status = ANY($1) AND a.audible_asin IS NOT NULL"
)

// psqlQuery renders the query run through psql. The statuses are package
// constants, never user input.
func psqlQuery() string {
	quoted := make([]string, len(ActionableStatuses))
	for i, status := range ActionableStatuses {
		quoted[i] = "'" + strings.ReplaceAll(status, "'", "''") + "'"
	}
	return selectClause +
		"WHERE r.status IN (" + strings.Join(quoted, ", ") + ") AND a.audible_asin IS NOT NULL;"
}
