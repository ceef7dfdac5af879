package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
	"github.com/arshmeetsingh/lego-collection/internal/services"
	"github.com/arshmeetsingh/lego-collection/web"
)

type fakeCatalog struct {
	sets   []models.Set
	themes []models.Theme
	err    error

	limit, offset int
	theme         string
	added         *models.SetInput
	edited        *models.SetInput
	editedNum     string
	deleted       string
}

func (f *fakeCatalog) GetAllSets(_ context.Context, limit, offset int) ([]models.Set, error) {
	f.limit, f.offset = limit, offset
	return f.sets, f.err
}

func (f *fakeCatalog) GetSetsByTheme(_ context.Context, theme string) ([]models.Set, error) {
	f.theme = theme
	return f.sets, f.err
}

func (f *fakeCatalog) GetSetByNum(_ context.Context, setNum string) (*models.Set, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.sets {
		if f.sets[i].SetNum == setNum {
			return &f.sets[i], nil
		}
	}
	return nil, &apperr.NotFoundError{Message: "Unable to find requested set"}
}

func (f *fakeCatalog) AddSet(_ context.Context, in models.SetInput) (*models.Set, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = &in
	return &models.Set{SetNum: in.SetNum, Name: in.Name}, nil
}

func (f *fakeCatalog) EditSet(_ context.Context, setNum string, in models.SetInput) (*models.Set, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.editedNum = setNum
	f.edited = &in
	return &models.Set{SetNum: setNum, Name: in.Name}, nil
}

func (f *fakeCatalog) DeleteSet(_ context.Context, setNum string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = setNum
	return nil
}

func (f *fakeCatalog) GetAllThemes(_ context.Context) ([]models.Theme, error) {
	return f.themes, f.err
}

type fakeCredentials struct {
	user *models.User
	err  error

	registered *services.RegisterInput
	userName   string
	password   string
	userAgent  string
}

func (f *fakeCredentials) Register(_ context.Context, in services.RegisterInput) error {
	f.registered = &in
	return f.err
}

func (f *fakeCredentials) Authenticate(_ context.Context, userName, password, userAgent string) (*models.User, error) {
	f.userName, f.password, f.userAgent = userName, password, userAgent
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeSessions struct {
	users     map[string]models.SessionUser
	err       error
	touched   []string
	destroyed []string
	next      int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{users: make(map[string]models.SessionUser)}
}

func (f *fakeSessions) Create(_ context.Context, user models.SessionUser) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	token := fmt.Sprintf("token-%d", f.next)
	f.users[token] = user
	return token, nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*models.SessionUser, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, false, nil
	}
	return &user, true, nil
}

func (f *fakeSessions) Touch(_ context.Context, token string) error {
	f.touched = append(f.touched, token)
	return nil
}

func (f *fakeSessions) Destroy(_ context.Context, token string) error {
	f.destroyed = append(f.destroyed, token)
	delete(f.users, token)
	return nil
}

type fakeImages struct {
	url     string
	err     error
	calls   int
	setNum  string
	fileLen int64
}

func (f *fakeImages) UploadSetImage(_ context.Context, fh *multipart.FileHeader, setNum string) (string, error) {
	f.calls++
	f.setNum = setNum
	f.fileLen = fh.Size
	return f.url, f.err
}

type testEnv struct {
	handler  *Handler
	catalog  *fakeCatalog
	creds    *fakeCredentials
	sessions *fakeSessions
}

func newTestEnv(t *testing.T, images ImageUploader) *testEnv {
	t.Helper()

	views, err := web.NewViews()
	require.NoError(t, err)

	env := &testEnv{
		catalog:  &fakeCatalog{},
		creds:    &fakeCredentials{},
		sessions: newFakeSessions(),
	}
	env.handler = New(Deps{
		Credentials: env.creds,
		Catalog:     env.catalog,
		Sessions:    env.sessions,
		Images:      images,
		Views:       views,
		Logger:      zap.NewNop(),
		Cookie:      CookieConfig{Name: "session"},
	})
	return env
}

var errDatabaseDown = errors.New("connection refused")

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withSession(r *http.Request, user *models.SessionUser) *http.Request {
	return r.WithContext(WithSessionUser(r.Context(), user))
}

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func testSessionUser() *models.SessionUser {
	return &models.SessionUser{
		UserName: "alice",
		Email:    "alice@example.com",
		LoginHistory: []models.LoginEvent{
			{DateTime: "Tue Mar 05 2024 14:30:00 GMT+0000 (UTC)", UserAgent: "TestAgent/1.0"},
		},
	}
}
