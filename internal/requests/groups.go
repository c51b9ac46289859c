package requests

import (
	"context"
	"strings"

	"abstagsync/internal/services"
)

// ActionableStatuses lists the request statuses that warrant a tag.
var ActionableStatuses = []string{"available", "downloaded"}

// Row is one (asin, requester) pair as read from the request tracker.
type Row struct {
	ASIN       string
	Email      string
	BackupName string
}

// Requester identifies who asked for a title. Email may be empty; BackupName
// is used whenever the email cannot be resolved.
type Requester struct {
	Email      string `json:"email"`
	BackupName string `json:"backup_name"`
}

// Source yields request rows.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
	Name() string
}

// Groups maps ASINs to requesters, remembering the order in which each ASIN
// and each requester was first seen. The zero value is empty.
type Groups struct {
	order  []string
	byASIN map[string][]Requester
	rows   int
}

// Add appends the row's requester to its ASIN. The ASIN is trimmed and rows
// without one are ignored; email and backup name are kept verbatim.
func (g *Groups) Add(row Row) {
	asin := strings.TrimSpace(row.ASIN)
	if asin == "" {
		return
	}
	if g.byASIN == nil {
		g.byASIN = make(map[string][]Requester)
	}
	if _, ok := g.byASIN[asin]; !ok {
		g.order = append(g.order, asin)
	}
	g.byASIN[asin] = append(g.byASIN[asin], Requester{
		Email:      row.Email,
		BackupName: row.BackupName,
	})
	g.rows++
}

// Len returns the number of distinct ASINs.
func (g Groups) Len() int { return len(g.order) }

// Rows returns the number of rows grouped.
func (g Groups) Rows() int { return g.rows }

// ASINs returns the ASINs in first-seen order.
func (g Groups) ASINs() []string {
	return append([]string(nil), g.order...)
}

// Requesters returns the requesters of asin in row order.
func (g Groups) Requesters(asin string) []Requester {
	return append([]Requester(nil), g.byASIN[asin]...)
}

// GroupRows builds groups from rows in order.
func GroupRows(rows []Row) Groups {
	var g Groups
	for _, row := range rows {
		g.Add(row)
	}
	return g
}

// Group reads every row from source. On failure it returns empty groups and
// the error.
func Group(ctx context.Context, source Source) (Groups, error) {
	rows, err := source.Rows(ctx)
	if err != nil {
		return Groups{}, services.Wrap(nil, "requests", source.Name(), "read rows", err)
	}
	return GroupRows(rows), nil
}
