// Package guard decides whether a navigation may proceed given the caller's
// authentication state. Decide is pure; callers evaluate it on every attempt.
package guard

import (
	"slices"
	"strings"
)

// Table classifies paths. It is static for the life of the process.
type Table struct {
	SignIn    string
	Home      string
	Public    []string
	Protected []string
}

// DefaultTable is the application's route classification.
var DefaultTable = Table{
	SignIn:    "/auth",
	Home:      "/home",
	Public:    []string{"/", "/auth"},
	Protected: []string{"/home", "/admin", "/profiles", "/announcements", "/logs"},
}

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

type Notice struct {
	Severity Severity
	Message  string
}

// Decision is the guard's verdict. Redirect is empty when Allow is true.
type Decision struct {
	Allow    bool
	Redirect string
	Notice   *Notice
}

const (
	MsgAlreadySignedIn = "You are already signed in."
	MsgSignInRequired  = "Please sign in to continue."
)

// Normalize trims query, fragment and trailing slashes.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func (t Table) IsPublic(path string) bool {
	return slices.Contains(t.Public, Normalize(path))
}

// RequiresAuth matches protected paths and anything below them.
func (t Table) RequiresAuth(path string) bool {
	p := Normalize(path)
	for _, pr := range t.Protected {
		if p == pr || strings.HasPrefix(p, pr+"/") {
			return true
		}
	}
	return false
}

// Decide evaluates the rules in order; the first match wins.
func Decide(target string, t Table, authenticated bool) Decision {
	p := Normalize(target)
	switch {
	case p == t.SignIn && authenticated:
		return Decision{Redirect: t.Home, Notice: &Notice{Severity: SeverityInfo, Message: MsgAlreadySignedIn}}
	case t.RequiresAuth(p) && !authenticated:
		return Decision{Redirect: t.SignIn, Notice: &Notice{Severity: SeverityError, Message: MsgSignInRequired}}
	case t.IsPublic(p) && authenticated:
		return Decision{Redirect: t.Home}
	default:
		return Decision{Allow: true}
	}
}
