package collections

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

type note struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
}

func (n note) ItemID() int64 { return n.ID }

// fakeGW serves Select from a fixed newest-first dataset and records queries.
type fakeGW struct {
	mu      sync.Mutex
	rows    []gateway.Row
	queries []gateway.Query

	selectErr error
	insertRow gateway.Row
	insertErr error
	updateRow gateway.Row
	updateErr error
	deleteErr error
	deleted   []int64

	// block, when set, holds Select until released
	block   chan struct{}
	entered chan struct{}
}

func dataset(n int) []gateway.Row {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]gateway.Row, 0, n)
	for i := n; i >= 1; i-- {
		rows = append(rows, gateway.Row{
			"id":         float64(i),
			"created_at": base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"title":      "note",
		})
	}
	return rows
}

func (f *fakeGW) Select(_ context.Context, _ string, q gateway.Query) ([]gateway.Row, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if block != nil {
		if entered != nil {
			close(entered)
		}
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if len(q.Filters) == 1 && q.Filters[0].Column == "id" {
		for _, r := range f.rows {
			if r["id"] == float64(q.Filters[0].Value.(int64)) {
				return []gateway.Row{r}, nil
			}
		}
		return nil, nil
	}
	if q.Offset >= len(f.rows) {
		return []gateway.Row{}, nil
	}
	end := min(q.Offset+q.Limit, len(f.rows))
	return f.rows[q.Offset:end], nil
}

func (f *fakeGW) Insert(context.Context, string, gateway.Row) (gateway.Row, error) {
	return f.insertRow, f.insertErr
}

func (f *fakeGW) Update(context.Context, string, int64, gateway.Row) (gateway.Row, error) {
	return f.updateRow, f.updateErr
}

func (f *fakeGW) Delete(_ context.Context, _ string, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeGW) selectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}
