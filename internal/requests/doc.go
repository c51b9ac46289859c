// Package requests reads ReadMeABook request records and groups requesters
// by ASIN.
//
// Only requests in an actionable status ("available" or "downloaded") with a
// non-null ASIN are read. Rows come from a Source: DockerSource runs psql
// inside the ReadMeABook container, PostgresSource connects to the database
// directly. Grouping preserves the order rows were returned in.
package requests
