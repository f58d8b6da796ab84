// Package logs mirrors the "logs" collection: release notes and change
// entries tagged with a version and a type.
package logs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/bulletin/internal/client/collections"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

const Collection = "logs"

const DefaultRecent = 10

var ErrInvalidInput = errors.New("invalid log entry")

type Log struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
}

func (l Log) ItemID() int64 { return l.ID }

type CreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Version     string `json:"version" validate:"required,max=50"`
	Description string `json:"description" validate:"required"`
	Type        string `json:"type" validate:"required,max=50"`
}

type UpdateInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Version     *string `json:"version,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty" validate:"omitempty,min=1,max=50"`
}

type Store struct {
	*collections.Cache[Log]

	validate *validator.Validate
}

func NewStore(gw gateway.Collections, pageSize int, opts ...collections.Option) *Store {
	return &Store{
		Cache: collections.New[Log](gw, collections.Config{
			Collection: Collection,
			Noun:       "log",
			PageSize:   pageSize,
		}, opts...),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Store) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// FetchByType resets the window to entries of one type.
func (s *Store) FetchByType(ctx context.Context, logType string) error {
	return s.FetchWhere(ctx, collections.Scope{
		Filters:     []gateway.Filter{gateway.Eq("type", logType)},
		FailMessage: fmt.Sprintf("Failed to fetch logs of type %q", logType),
	})
}

// FetchByDateRange resets the window to entries created within [from, to].
func (s *Store) FetchByDateRange(ctx context.Context, from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: range ends before it starts", ErrInvalidInput)
	}
	return s.FetchWhere(ctx, collections.Scope{
		Filters: []gateway.Filter{
			gateway.Gte("created_at", from.UTC().Format(time.RFC3339)),
			gateway.Lte("created_at", to.UTC().Format(time.RFC3339)),
		},
		FailMessage: "Failed to fetch logs for the specified date range",
	})
}

func (s *Store) Create(ctx context.Context, in CreateInput) (Log, error) {
	if err := s.check(in); err != nil {
		return Log{}, err
	}
	row, err := collections.EncodeRow(in)
	if err != nil {
		return Log{}, err
	}
	return s.Cache.Create(ctx, row)
}

func (s *Store) Update(ctx context.Context, id int64, in UpdateInput) (Log, error) {
	if err := s.check(in); err != nil {
		return Log{}, err
	}
	row, err := collections.EncodeRow(in)
	if err != nil {
		return Log{}, err
	}
	if len(row) == 0 {
		return Log{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return s.Cache.Update(ctx, id, row)
}

func (s *Store) filter(keep func(Log) bool) []Log {
	var out []Log
	for _, l := range s.Items() {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) ByVersion(version string) []Log {
	return s.filter(func(l Log) bool { return l.Version == version })
}

func (s *Store) ByType(logType string) []Log {
	return s.filter(func(l Log) bool { return l.Type == logType })
}

// Recent returns the first n loaded entries; n <= 0 means 10.
func (s *Store) Recent(n int) []Log {
	if n <= 0 {
		n = DefaultRecent
	}
	items := s.Items()
	return items[:min(n, len(items))]
}

// Search matches term against title and description, ignoring case.
func (s *Store) Search(term string) []Log {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Items()
	}
	return s.filter(func(l Log) bool {
		return strings.Contains(strings.ToLower(l.Title), term) ||
			strings.Contains(strings.ToLower(l.Description), term)
	})
}

func (s *Store) Count() int   { return len(s.Items()) }
func (s *Store) HasAny() bool { return s.Count() > 0 }
