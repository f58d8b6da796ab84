package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bulletin/internal/client/config"
	"github.com/dmitrijs2005/bulletin/internal/client/credentials"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/storage"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

type account struct {
	user     gateway.User
	password string
}

// fakeIdentity keeps accounts in memory and remembers who is signed in.
type fakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]*account
	current  *gateway.User
	nextID   int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]*account{}}
}

func (f *fakeIdentity) add(email, password, fullName string) *gateway.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := gateway.User{ID: fmt.Sprintf("u-%d", f.nextID), Email: email}
	if fullName != "" {
		u.UserMetadata = map[string]any{"full_name": fullName}
	}
	f.accounts[email] = &account{user: u, password: password}
	return &u
}

func (f *fakeIdentity) SignUp(_ context.Context, req gateway.SignUpRequest) (*gateway.User, error) {
	f.mu.Lock()
	_, taken := f.accounts[req.Email]
	f.mu.Unlock()
	if taken {
		return nil, &gateway.Error{Op: "SignUp", Code: gateway.CodeInvalid, Message: "User already registered"}
	}
	name, _ := req.ProfileData["full_name"].(string)
	return f.add(req.Email, req.Password, name), nil
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, &gateway.Error{Op: "SignInWithPassword", Code: gateway.CodeUnauthorized, Message: "Invalid login credentials"}
	}
	u := acc.user
	f.current = &u
	return &gateway.AuthResult{
		Session: &gateway.Tokens{AccessToken: "at-" + u.ID, RefreshToken: "rt-" + u.ID},
		User:    &u,
	}, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	return nil
}

func (f *fakeIdentity) GetCurrentUser(context.Context) (*gateway.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

// fakeCollections is an in-memory table set. Rows are kept newest first.
type fakeCollections struct {
	mu      sync.Mutex
	tables  map[string][]gateway.Row
	nextID  int64
	down    bool
	selects int
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{tables: map[string][]gateway.Row{}, nextID: 1000}
}

func (f *fakeCollections) seed(collection string, rows ...gateway.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[collection] = append(f.tables[collection], rows...)
}

func (f *fakeCollections) unavailable(op string) error {
	return &gateway.Error{Op: op, Code: gateway.CodeUnavailable, Message: "connection refused"}
}

func matches(row gateway.Row, filters []gateway.Filter) bool {
	for _, flt := range filters {
		have, want := fmt.Sprint(row[flt.Column]), fmt.Sprint(flt.Value)
		switch flt.Op {
		case gateway.OpEq:
			if have != want {
				return false
			}
		case gateway.OpGte:
			if have < want {
				return false
			}
		case gateway.OpLte:
			if have > want {
				return false
			}
		}
	}
	return true
}

func (f *fakeCollections) Select(_ context.Context, collection string, q gateway.Query) ([]gateway.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects++
	if f.down {
		return nil, f.unavailable("Select")
	}
	var out []gateway.Row
	for _, r := range f.tables[collection] {
		if matches(r, q.Filters) {
			out = append(out, r)
		}
	}
	if q.Offset >= len(out) {
		return []gateway.Row{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeCollections) Insert(_ context.Context, collection string, row gateway.Row) (gateway.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, f.unavailable("Insert")
	}
	f.nextID++
	out := gateway.Row{"id": float64(f.nextID), "created_at": "2026-10-18T12:00:00Z"}
	for k, v := range row {
		out[k] = v
	}
	f.tables[collection] = append([]gateway.Row{out}, f.tables[collection]...)
	return out, nil
}

func (f *fakeCollections) find(collection string, id int64) int {
	for i, r := range f.tables[collection] {
		if fmt.Sprint(r["id"]) == fmt.Sprint(float64(id)) {
			return i
		}
	}
	return -1
}

func (f *fakeCollections) Update(_ context.Context, collection string, id int64, patch gateway.Row) (gateway.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(collection, id)
	if i < 0 {
		return nil, &gateway.Error{Op: "Update", Code: gateway.CodeNotFound, Message: fmt.Sprintf("%s %d not found", collection, id)}
	}
	for k, v := range patch {
		f.tables[collection][i][k] = v
	}
	return f.tables[collection][i], nil
}

func (f *fakeCollections) Delete(_ context.Context, collection string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(collection, id); i >= 0 {
		f.tables[collection] = append(f.tables[collection][:i], f.tables[collection][i+1:]...)
	}
	return nil
}

func announcementRow(id int64, userID, title, desc string) gateway.Row {
	return gateway.Row{
		"id":          float64(id),
		"created_at":  fmt.Sprintf("2026-09-%02dT10:00:00Z", id%28+1),
		"user_id":     userID,
		"title":       title,
		"description": desc,
		"image_url":   "",
	}
}

func logRow(id int64, created, version, typ, title string) gateway.Row {
	return gateway.Row{
		"id":          float64(id),
		"created_at":  created,
		"title":       title,
		"version":     version,
		"type":        typ,
		"description": title + " details",
	}
}

type testApp struct {
	*App
	out   *bytes.Buffer
	id    *fakeIdentity
	coll  *fakeCollections
	store credentials.Store
}

// newTestApp assembles an App over fakes and an in-memory credential
// store. input feeds the interactive prompts.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	id := newFakeIdentity()
	coll := newFakeCollections()
	store := credentials.NewSQLiteStore(db)
	out := &bytes.Buffer{}

	a := assemble(cfg, logging.Nop(), deps{identity: id, collections: coll, store: store}, strings.NewReader(input), out)
	return &testApp{App: a, out: out, id: id, coll: coll, store: store}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) (string, error) { return pw, nil }
	t.Cleanup(func() { getPassword = orig })
}

// signIn logs the registered user in through the Login command.
func (ta *testApp) signIn(t *testing.T, email string) {
	t.Helper()
	ta.reader.Reset(strings.NewReader(email + "\n"))
	require.NoError(t, ta.Login(context.Background()))
	ta.out.Reset()
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
