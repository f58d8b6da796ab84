package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/metrics"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

// ErrRequestInFlight rejects a page read while another one is outstanding.
var ErrRequestInFlight = errors.New("a page request is already in flight")

const DefaultPageSize = 12

// Item is a collection record with a server-assigned id.
type Item interface {
	ItemID() int64
}

// Config describes one collection.
type Config struct {
	// Collection is the gateway name, e.g. "announcements".
	Collection string
	// Noun names one item in default error messages, e.g. "announcement".
	Noun     string
	PageSize int
	// OrderBy is the creation-time column; reads are always descending.
	OrderBy string
}

// Scope narrows the window to rows matching Filters. FailMessage replaces
// the default fetch error message.
type Scope struct {
	Filters     []gateway.Filter
	FailMessage string
}

// State is a point-in-time copy of the cache.
type State[T Item] struct {
	Items       []T
	Current     *T
	PageIndex   int
	PageSize    int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Saving      bool
	LastError   string
}

type ticket struct{ reset bool }

type Cache[T Item] struct {
	gw      gateway.Collections
	cfg     Config
	log     logging.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	items     []T
	current   *T
	pageIndex int
	hasMore   bool
	scope     Scope
	inflight  *ticket
	gen       uint64
	saving    int
	lastError string
}

type Option func(*options)

type options struct {
	log     logging.Logger
	metrics *metrics.Metrics
}

func WithLogger(l logging.Logger) Option    { return func(o *options) { o.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

func New[T Item](gw gateway.Collections, cfg Config, opts ...Option) *Cache[T] {
	o := options{log: logging.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.OrderBy == "" {
		cfg.OrderBy = "created_at"
	}
	if cfg.Noun == "" {
		cfg.Noun = "item"
	}
	return &Cache[T]{
		gw:      gw,
		cfg:     cfg,
		log:     o.log.With("module", "collections", "collection", cfg.Collection),
		metrics: o.metrics,
		hasMore: true,
	}
}

func (c *Cache[T]) Collection() string { return c.cfg.Collection }
func (c *Cache[T]) PageSize() int      { return c.cfg.PageSize }

// Fetch reads one page. With reset the window is emptied first and the read
// starts at offset zero under the current scope.
func (c *Cache[T]) Fetch(ctx context.Context, reset bool) error {
	t, gen, q, failMsg, ok := c.begin(reset, nil, false)
	if !ok {
		return ErrRequestInFlight
	}
	return c.run(ctx, t, gen, q, failMsg)
}

// FetchWhere replaces the scope and performs a reset fetch.
func (c *Cache[T]) FetchWhere(ctx context.Context, s Scope) error {
	t, gen, q, failMsg, ok := c.begin(true, &s, false)
	if !ok {
		return ErrRequestInFlight
	}
	return c.run(ctx, t, gen, q, failMsg)
}

// LoadMore appends the next page. It does nothing when the collection is
// exhausted or a page read is outstanding.
func (c *Cache[T]) LoadMore(ctx context.Context) error {
	t, gen, q, failMsg, ok := c.begin(false, nil, true)
	if !ok {
		return nil
	}
	return c.run(ctx, t, gen, q, failMsg)
}

// begin takes the ticket and prepares the query under the lock. With
// needMore it also refuses when the collection is exhausted.
func (c *Cache[T]) begin(reset bool, scope *Scope, needMore bool) (*ticket, uint64, gateway.Query, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != nil {
		return nil, 0, gateway.Query{}, "", false
	}
	if needMore && !c.hasMore {
		return nil, 0, gateway.Query{}, "", false
	}

	t := &ticket{reset: reset}
	c.inflight = t
	c.lastError = ""
	if scope != nil {
		c.scope = Scope{Filters: slices.Clone(scope.Filters), FailMessage: scope.FailMessage}
	}
	if reset {
		c.items = nil
		c.pageIndex = 0
		c.hasMore = true
	}

	q := gateway.Query{
		Filters:    slices.Clone(c.scope.Filters),
		OrderBy:    c.cfg.OrderBy,
		Descending: true,
		Offset:     c.pageIndex * c.cfg.PageSize,
		Limit:      c.cfg.PageSize,
	}
	failMsg := c.scope.FailMessage
	if failMsg == "" {
		failMsg = fmt.Sprintf("Failed to fetch %s", c.cfg.Collection)
	}
	return t, c.gen, q, failMsg, true
}

func (c *Cache[T]) run(ctx context.Context, t *ticket, gen uint64, q gateway.Query, failMsg string) error {
	start := time.Now()
	rows, err := c.gw.Select(ctx, c.cfg.Collection, q)
	var page []T
	if err == nil {
		page, err = decodeRows[T](rows)
	}
	c.metrics.RecordGatewayCall(c.cfg.Collection, "select", start, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == t {
		c.inflight = nil
	}

	// reset while the read was outstanding: drop the stale page
	if gen != c.gen {
		c.log.Debug(ctx, "discarding page read across reset", "offset", q.Offset)
		return nil
	}

	if err != nil {
		c.lastError = gateway.Message(err, failMsg)
		c.log.Warn(ctx, "page read failed", "offset", q.Offset, "error", err)
		return fmt.Errorf("fetch %s: %w", c.cfg.Collection, err)
	}

	if t.reset {
		c.items = page
	} else {
		c.items = append(c.items, page...)
	}
	c.hasMore = len(page) == c.cfg.PageSize
	if len(page) > 0 {
		c.pageIndex++
	}
	c.log.Debug(ctx, "page loaded", "offset", q.Offset, "rows", len(page), "has_more", c.hasMore)
	return nil
}

// mutation marks a write in progress and clears the stored error. The
// returned func must run when the write finishes.
func (c *Cache[T]) mutation() func() {
	c.mu.Lock()
	c.saving++
	c.lastError = ""
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.saving--
		c.mu.Unlock()
	}
}

func (c *Cache[T]) fail(ctx context.Context, op string, err error, def string) error {
	c.mu.Lock()
	c.lastError = gateway.Message(err, def)
	c.mu.Unlock()
	c.log.Warn(ctx, op+" failed", "error", err)
	return fmt.Errorf("%s %s: %w", op, c.cfg.Noun, err)
}

// Get reads a single item by id and tracks it as Current.
func (c *Cache[T]) Get(ctx context.Context, id int64) (T, error) {
	defer c.mutation()()
	var zero T
	def := fmt.Sprintf("Failed to fetch %s with ID %d", c.cfg.Noun, id)

	start := time.Now()
	rows, err := c.gw.Select(ctx, c.cfg.Collection, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("id", id)},
		Limit:   1,
	})
	if err == nil && len(rows) == 0 {
		err = &gateway.Error{Op: "Select", Code: gateway.CodeNotFound, Message: fmt.Sprintf("%s %d not found", c.cfg.Noun, id)}
	}
	var item T
	if err == nil {
		item, err = decodeRow[T](rows[0])
	}
	c.metrics.RecordGatewayCall(c.cfg.Collection, "get", start, err)
	if err != nil {
		return zero, c.fail(ctx, "get", err, def)
	}

	c.mu.Lock()
	c.current = &item
	c.mu.Unlock()
	return item, nil
}

// Create inserts row and prepends the committed item unless the window
// already holds its id.
func (c *Cache[T]) Create(ctx context.Context, row gateway.Row) (T, error) {
	defer c.mutation()()
	var zero T
	def := fmt.Sprintf("Failed to create %s", c.cfg.Noun)

	start := time.Now()
	out, err := c.gw.Insert(ctx, c.cfg.Collection, row)
	var item T
	if err == nil {
		item, err = decodeRow[T](out)
	}
	c.metrics.RecordGatewayCall(c.cfg.Collection, "insert", start, err)
	if err != nil {
		return zero, c.fail(ctx, "create", err, def)
	}

	// a reset fetch that overlapped the insert may already hold the row
	c.mu.Lock()
	if i := c.indexOf(item.ItemID()); i >= 0 {
		c.items[i] = item
	} else {
		c.items = append([]T{item}, c.items...)
	}
	c.mu.Unlock()
	c.log.Info(ctx, "item created", "id", item.ItemID())
	return item, nil
}

// Update patches id remotely and replaces the local copy if one is held.
func (c *Cache[T]) Update(ctx context.Context, id int64, patch gateway.Row) (T, error) {
	defer c.mutation()()
	var zero T
	def := fmt.Sprintf("Failed to update %s with ID %d", c.cfg.Noun, id)

	start := time.Now()
	out, err := c.gw.Update(ctx, c.cfg.Collection, id, patch)
	var item T
	if err == nil {
		item, err = decodeRow[T](out)
	}
	c.metrics.RecordGatewayCall(c.cfg.Collection, "update", start, err)
	if err != nil {
		return zero, c.fail(ctx, "update", err, def)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.items[i] = item
	}
	if c.current != nil && (*c.current).ItemID() == id {
		c.current = &item
	}
	c.mu.Unlock()
	return item, nil
}

// Delete removes id remotely; a missing local copy is not an error.
func (c *Cache[T]) Delete(ctx context.Context, id int64) error {
	defer c.mutation()()
	def := fmt.Sprintf("Failed to delete %s with ID %d", c.cfg.Noun, id)

	start := time.Now()
	err := c.gw.Delete(ctx, c.cfg.Collection, id)
	c.metrics.RecordGatewayCall(c.cfg.Collection, "delete", start, err)
	if err != nil {
		return c.fail(ctx, "delete", err, def)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	if c.current != nil && (*c.current).ItemID() == id {
		c.current = nil
	}
	c.mu.Unlock()
	return nil
}

// indexOf must be called with mu held.
func (c *Cache[T]) indexOf(id int64) int {
	return slices.IndexFunc(c.items, func(it T) bool { return it.ItemID() == id })
}

// Reset returns the cache to its initial state. A page read still
// outstanding is abandoned and its result discarded.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items = nil
	c.current = nil
	c.pageIndex = 0
	c.hasMore = true
	c.scope = Scope{}
	c.inflight = nil
	c.lastError = ""
}

// Clear empties the window and the stored error but keeps the scope.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.inflight = nil
	c.items = nil
	c.current = nil
	c.pageIndex = 0
	c.hasMore = true
	c.lastError = ""
}

func (c *Cache[T]) ClearCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

func (c *Cache[T]) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
}

// Items returns a copy of the window.
func (c *Cache[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cache[T]) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Cache[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Cache[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State[T]{
		Items:     slices.Clone(c.items),
		PageIndex: c.pageIndex,
		PageSize:  c.cfg.PageSize,
		HasMore:   c.hasMore,
		Saving:    c.saving > 0,
		LastError: c.lastError,
	}
	if c.current != nil {
		cur := *c.current
		s.Current = &cur
	}
	if c.inflight != nil {
		s.Loading = c.inflight.reset
		s.LoadingMore = !c.inflight.reset
	}
	return s
}

func decodeRow[T any](row gateway.Row) (T, error) {
	var v T
	b, err := json.Marshal(row)
	if err != nil {
		return v, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode row: %w", err)
	}
	return v, nil
}

func decodeRows[T any](rows []gateway.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := decodeRow[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeRow turns a tagged struct into a gateway row.
func EncodeRow(v any) (gateway.Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row gateway.Row
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return row, nil
}
