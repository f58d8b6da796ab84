package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/client/announcements"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/logs"
	"github.com/dmitrijs2005/bulletin/internal/client/navigation"
)

const (
	pathAnnouncements = "/announcements"
	pathLogs          = "/logs"
)

func (a *App) registerPages() {
	a.router.Handle("/", static("Bulletin Board",
		"Community announcements and release logs.\nType 'login' to sign in or 'register' to create an account."))
	a.router.Handle("/auth", static("Sign In",
		"Type 'login' to sign in or 'register' to create an account."))
	a.router.Handle("/home", a.homePage)
	a.router.Handle("/admin", static("Administration", "Nothing to administer yet."))
	a.router.Handle("/profiles", a.profilePage)
	a.router.Handle(pathAnnouncements, a.announcementsPage)
	a.router.Handle(pathLogs, a.logsPage)
}

func (a *App) notFoundPage(_ context.Context, path string) (navigation.Page, error) {
	hint := "Type 'help' for commands."
	if a.isLoggedIn() {
		hint = fmt.Sprintf("Try 'go %s' or type 'help' for commands.", pathAnnouncements)
	}
	return navigation.StaticPage("Not Found", fmt.Sprintf("Nothing lives at %s. %s", path, hint)), nil
}

func static(title, body string) navigation.Loader {
	p := navigation.StaticPage(title, body)
	return func(context.Context, string) (navigation.Page, error) { return p, nil }
}

// pageFunc adapts a render function to navigation.Page.
type pageFunc struct {
	title  string
	render func(w io.Writer) error
}

func (p pageFunc) Title() string { return p.title }

func (p pageFunc) Render(_ context.Context, w io.Writer) error { return p.render(w) }

// loadFailure marks an unreachable backend as a page load failure so the
// router retries once.
func loadFailure(err error) error {
	if errors.Is(err, gateway.ErrUnavailable) {
		return fmt.Errorf("%w: %w", navigation.ErrModuleLoad, err)
	}
	return nil
}

func (a *App) homePage(context.Context, string) (navigation.Page, error) {
	return pageFunc{title: "Home", render: func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Welcome, %s.\nTry 'ann list', 'logs list' or 'go /profiles'.\n", a.session.DisplayName())
		return err
	}}, nil
}

func (a *App) profilePage(context.Context, string) (navigation.Page, error) {
	s, ok := a.session.Snapshot()
	return pageFunc{title: "Profile", render: func(w io.Writer) error {
		if !ok {
			_, err := fmt.Fprintln(w, "Not signed in.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Name\t%s\n", a.session.DisplayName())
		fmt.Fprintf(tw, "Email\t%s\n", s.Email)
		fmt.Fprintf(tw, "ID\t%s\n", s.ID)
		if !s.CreatedAt.IsZero() {
			fmt.Fprintf(tw, "Member since\t%s\n", s.CreatedAt.Format(time.DateOnly))
		}
		return tw.Flush()
	}}, nil
}

// announcementsPage serves the list at /announcements and a single item at
// /announcements/<id>.
func (a *App) announcementsPage(ctx context.Context, path string) (navigation.Page, error) {
	if rest := strings.TrimPrefix(path, pathAnnouncements+"/"); rest != path {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return navigation.StaticPage("Not Found", fmt.Sprintf("%q is not an announcement id.", rest)), nil
		}
		item, err := a.anns.Get(ctx, id)
		if err != nil {
			if lf := loadFailure(err); lf != nil {
				return nil, lf
			}
			return navigation.StaticPage("Announcement", a.anns.LastError()), nil
		}
		return pageFunc{title: item.Title, render: func(w io.Writer) error {
			return renderAnnouncement(w, item)
		}}, nil
	}

	a.anns.ClearCurrent()
	if err := a.anns.Fetch(ctx, true); err != nil {
		if lf := loadFailure(err); lf != nil {
			return nil, lf
		}
	}
	return a.announcementList("Announcements", nil), nil
}

// announcementList renders items, or the whole loaded window when items is nil.
func (a *App) announcementList(title string, items []announcements.Announcement) navigation.Page {
	return pageFunc{title: title, render: func(w io.Writer) error {
		list := items
		if list == nil {
			list = a.anns.Items()
			if msg := a.anns.LastError(); msg != "" {
				fmt.Fprintf(w, "error: %s\n", msg)
			}
		}
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "No announcements.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, x := range list {
			img := ""
			if x.HasImage() {
				img = "[image]"
			}
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\n", x.ID, x.Title, x.CreatedAt.Format(time.DateOnly), img)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if items == nil && a.anns.HasMore() {
			_, err := fmt.Fprintln(w, "More available: 'ann more'.")
			return err
		}
		return nil
	}}
}

func renderAnnouncement(w io.Writer, x announcements.Announcement) error {
	fmt.Fprintf(w, "#%d posted %s by %s\n", x.ID, x.CreatedAt.Format(time.DateTime), x.UserID)
	if x.HasImage() {
		fmt.Fprintf(w, "image: %s\n", x.ImageURL)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", x.Description)
	return err
}

func (a *App) logsPage(ctx context.Context, _ string) (navigation.Page, error) {
	if err := a.logs.Fetch(ctx, true); err != nil {
		if lf := loadFailure(err); lf != nil {
			return nil, lf
		}
	}
	return a.logList("Logs", nil), nil
}

func (a *App) logList(title string, items []logs.Log) navigation.Page {
	return pageFunc{title: title, render: func(w io.Writer) error {
		list := items
		if list == nil {
			list = a.logs.Items()
			if msg := a.logs.LastError(); msg != "" {
				fmt.Fprintf(w, "error: %s\n", msg)
			}
		}
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "No logs.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, l := range list {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\n", l.ID, l.Version, l.Type, l.Title, l.CreatedAt.Format(time.DateOnly))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if items == nil && a.logs.HasMore() {
			_, err := fmt.Fprintln(w, "More available: 'logs more'.")
			return err
		}
		return nil
	}}
}
