package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/bulletin/internal/client/announcements"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

const annUsage = "Usage: ann [list|more|show <id>|add|edit <id>|rm <id>|search <term>|mine|images|recent [n]]"

// Announcements dispatches the "ann" subcommands. Every subcommand first
// enters /announcements through the router.
func (a *App) Announcements(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	if sub == "list" {
		return a.router.Navigate(ctx, pathAnnouncements)
	}
	if !a.enter(ctx, pathAnnouncements) {
		return nil
	}

	switch sub {
	case "more":
		if err := a.anns.LoadMore(ctx); err != nil {
			a.printf("error: %s\n", a.anns.LastError())
			return err
		}
		a.Show(ctx, pathAnnouncements, a.announcementList("Announcements", nil))

	case "show":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		return a.router.Navigate(ctx, fmt.Sprintf("%s/%d", pathAnnouncements, id))

	case "add":
		return a.addAnnouncement(ctx)

	case "edit":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		return a.editAnnouncement(ctx, id)

	case "rm":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		if err := a.anns.Delete(ctx, id); err != nil {
			a.printf("error: %s\n", a.anns.LastError())
			return err
		}
		a.printf("Announcement #%d deleted.\n", id)

	case "search":
		term := strings.Join(args, " ")
		a.Show(ctx, pathAnnouncements, a.announcementList(fmt.Sprintf("Search %q", term), nonNil(a.anns.Search(term))))

	case "mine":
		a.Show(ctx, pathAnnouncements, a.announcementList("My announcements", nonNil(a.anns.ByUser(a.session.UserID()))))

	case "images":
		a.Show(ctx, pathAnnouncements, a.announcementList("With images", nonNil(a.anns.WithImages())))

	case "recent":
		n := 0
		if len(args) > 0 {
			n, _ = strconv.Atoi(args[0])
		}
		a.Show(ctx, pathAnnouncements, a.announcementList("Recent", nonNil(a.anns.Recent(n))))

	default:
		a.printf("%s\n", annUsage)
	}
	return nil
}

func (a *App) addAnnouncement(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	desc, err := getMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}
	image, err := getSimpleText(a.reader, "Image file or URL (optional)", a.out)
	if err != nil {
		return err
	}

	in := announcements.CreateInput{Title: title, Description: desc}
	switch {
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		in.ImageURL = image
	case image != "":
		in.ImagePath = image
	}

	item, err := a.anns.Create(ctx, in)
	if err != nil {
		a.printf("Could not post: %s\n", a.storeError(err, a.anns.LastError()))
		return err
	}
	a.printf("Posted announcement #%d.\n", item.ID)
	return nil
}

// editAnnouncement prompts for each field; an empty answer keeps the
// current value.
func (a *App) editAnnouncement(ctx context.Context, id int64) error {
	var in announcements.UpdateInput

	title, err := getSimpleText(a.reader, "New title (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if title != "" {
		in.Title = &title
	}
	desc, err := getMultiline(a.reader, "New description (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if desc != "" {
		in.Description = &desc
	}
	image, err := getSimpleText(a.reader, "New image URL (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if image != "" {
		in.ImageURL = &image
	}

	if _, err := a.anns.Update(ctx, id, in); err != nil {
		a.printf("Could not update: %s\n", a.storeError(err, a.anns.LastError()))
		return err
	}
	a.printf("Announcement #%d updated.\n", id)
	return nil
}

func (a *App) idArg(args []string) (int64, bool) {
	if len(args) == 0 {
		a.printf("An id is required.\n")
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		a.printf("Invalid id: %s\n", args[0])
		return 0, false
	}
	return id, true
}

// storeError prefers the cache's message for gateway failures and the
// error text for local validation failures.
func (a *App) storeError(err error, lastError string) string {
	var ge *gateway.Error
	if errors.As(err, &ge) && lastError != "" {
		return lastError
	}
	return describe(err)
}

// nonNil keeps an empty filter result distinct from "render everything".
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
