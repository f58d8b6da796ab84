package gateway

import "context"

// Row is one record as exchanged with the collection gateway.
type Row = map[string]any

type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

type Filter struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

func Eq(column string, v any) Filter  { return Filter{Column: column, Op: OpEq, Value: v} }
func Gte(column string, v any) Filter { return Filter{Column: column, Op: OpGte, Value: v} }
func Lte(column string, v any) Filter { return Filter{Column: column, Op: OpLte, Value: v} }

// Query describes one read. Limit <= 0 means no limit.
type Query struct {
	Filters    []Filter `json:"filters,omitempty"`
	OrderBy    string   `json:"order_by,omitempty"`
	Descending bool     `json:"descending,omitempty"`
	Offset     int      `json:"offset,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// Collections is the remote collection service.
type Collections interface {
	Select(ctx context.Context, collection string, q Query) ([]Row, error)
	Insert(ctx context.Context, collection string, row Row) (Row, error)
	// Update returns an error matching ErrNotFound when no row has id.
	Update(ctx context.Context, collection string, id int64, patch Row) (Row, error)
	Delete(ctx context.Context, collection string, id int64) error
}
