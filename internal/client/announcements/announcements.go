// Package announcements is the paginated mirror of the "announcements"
// collection plus the derived views the board shows.
package announcements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/bulletin/internal/client/collections"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/media"
)

const Collection = "announcements"

const DefaultRecent = 10

var (
	ErrInvalidInput = errors.New("invalid announcement")
	ErrNotSignedIn  = errors.New("sign in to post announcements")
)

type Announcement struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
}

func (a Announcement) ItemID() int64 { return a.ID }

// HasImage reports a non-blank image URL.
func (a Announcement) HasImage() bool { return strings.TrimSpace(a.ImageURL) != "" }

// CreateInput is a new announcement. ImagePath, when set, is uploaded and
// takes precedence over ImageURL.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	ImagePath   string `json:"-" validate:"omitempty,file"`
	UserID      string `json:"user_id" validate:"-"`
}

// UpdateInput carries only the fields to change.
type UpdateInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Identity supplies the signed-in user's id.
type Identity interface {
	UserID() string
}

type Store struct {
	*collections.Cache[Announcement]

	identity Identity
	uploader media.Uploader
	validate *validator.Validate
}

// NewStore creates the store. uploader may be nil when image storage is
// not configured.
func NewStore(gw gateway.Collections, identity Identity, uploader media.Uploader, pageSize int, opts ...collections.Option) *Store {
	return &Store{
		Cache: collections.New[Announcement](gw, collections.Config{
			Collection: Collection,
			Noun:       "announcement",
			PageSize:   pageSize,
		}, opts...),
		identity: identity,
		uploader: uploader,
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

// FetchByUser resets the window to one author's announcements.
func (s *Store) FetchByUser(ctx context.Context, userID string) error {
	return s.FetchWhere(ctx, collections.Scope{
		Filters:     []gateway.Filter{gateway.Eq("user_id", userID)},
		FailMessage: fmt.Sprintf("Failed to fetch announcements for user %s", userID),
	})
}

// Create posts as the signed-in user, uploading ImagePath first if given.
// The uploaded object is removed again when the insert fails.
func (s *Store) Create(ctx context.Context, in CreateInput) (Announcement, error) {
	if err := s.check(in); err != nil {
		return Announcement{}, err
	}
	in.UserID = s.identity.UserID()
	if in.UserID == "" {
		return Announcement{}, ErrNotSignedIn
	}

	if in.ImagePath != "" {
		if s.uploader == nil {
			return Announcement{}, media.ErrNotConfigured
		}
		url, err := s.uploader.Upload(ctx, in.ImagePath)
		if err != nil {
			return Announcement{}, fmt.Errorf("image upload: %w", err)
		}
		in.ImageURL = url
	}

	row, err := collections.EncodeRow(in)
	if err == nil {
		var a Announcement
		if a, err = s.Cache.Create(ctx, row); err == nil {
			return a, nil
		}
	}
	if in.ImagePath != "" {
		if rerr := s.uploader.Remove(ctx, in.ImageURL); rerr != nil {
			err = errors.Join(err, fmt.Errorf("remove orphaned image: %w", rerr))
		}
	}
	return Announcement{}, err
}

func (s *Store) Update(ctx context.Context, id int64, in UpdateInput) (Announcement, error) {
	if err := s.check(in); err != nil {
		return Announcement{}, err
	}
	row, err := collections.EncodeRow(in)
	if err != nil {
		return Announcement{}, err
	}
	if len(row) == 0 {
		return Announcement{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return s.Cache.Update(ctx, id, row)
}

func (s *Store) filter(keep func(Announcement) bool) []Announcement {
	var out []Announcement
	for _, a := range s.Items() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Search matches term against title and description, ignoring case. A
// blank term returns everything loaded.
func (s *Store) Search(term string) []Announcement {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Items()
	}
	return s.filter(func(a Announcement) bool {
		return strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.Description), term)
	})
}

func (s *Store) ByUser(userID string) []Announcement {
	return s.filter(func(a Announcement) bool { return a.UserID == userID })
}

// Recent returns the first n loaded announcements; n <= 0 means 10.
func (s *Store) Recent(n int) []Announcement {
	if n <= 0 {
		n = DefaultRecent
	}
	items := s.Items()
	return items[:min(n, len(items))]
}

func (s *Store) WithImages() []Announcement {
	return s.filter(Announcement.HasImage)
}

func (s *Store) WithoutImages() []Announcement {
	return s.filter(func(a Announcement) bool { return !a.HasImage() })
}

func (s *Store) Count() int   { return len(s.Items()) }
func (s *Store) HasAny() bool { return s.Count() > 0 }
