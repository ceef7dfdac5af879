package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
	"github.com/arshmeetsingh/lego-collection/internal/services"
	"github.com/arshmeetsingh/lego-collection/web"
)

// CredentialService registers and authenticates accounts.
type CredentialService interface {
	Register(ctx context.Context, in services.RegisterInput) error
	Authenticate(ctx context.Context, userName, password, userAgent string) (*models.User, error)
}

// CatalogStore reads and writes LEGO sets and themes.
type CatalogStore interface {
	GetAllSets(ctx context.Context, limit, offset int) ([]models.Set, error)
	GetSetsByTheme(ctx context.Context, theme string) ([]models.Set, error)
	GetSetByNum(ctx context.Context, setNum string) (*models.Set, error)
	AddSet(ctx context.Context, in models.SetInput) (*models.Set, error)
	EditSet(ctx context.Context, setNum string, in models.SetInput) (*models.Set, error)
	DeleteSet(ctx context.Context, setNum string) error
	GetAllThemes(ctx context.Context) ([]models.Theme, error)
}

// SessionStore keeps logged-in users keyed by cookie token.
type SessionStore interface {
	Create(ctx context.Context, user models.SessionUser) (string, error)
	Get(ctx context.Context, token string) (*models.SessionUser, bool, error)
	Touch(ctx context.Context, token string) error
	Destroy(ctx context.Context, token string) error
}

// ImageUploader stores an uploaded set image and returns its public URL.
type ImageUploader interface {
	UploadSetImage(ctx context.Context, fileHeader *multipart.FileHeader, setNum string) (string, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

// Deps are the collaborators of a Handler. Images may be nil, in which case
// set forms only accept an image URL.
type Deps struct {
	Credentials CredentialService
	Catalog     CatalogStore
	Sessions    SessionStore
	Images      ImageUploader
	Views       *web.Views
	Logger      *zap.Logger
	Cookie      CookieConfig
}

type Handler struct {
	creds    CredentialService
	catalog  CatalogStore
	sessions SessionStore
	images   ImageUploader
	views    *web.Views
	log      *zap.Logger
	cookie   CookieConfig
}

func New(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cookie := deps.Cookie
	if cookie.Name == "" {
		cookie.Name = "session"
	}

	return &Handler{
		creds:    deps.Credentials,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		images:   deps.Images,
		views:    deps.Views,
		log:      log,
		cookie:   cookie,
	}
}

const (
	notFoundMessage = "I'm sorry, we're unable to find what you're looking for."
	errorPrefix     = "I'm sorry, but we have encountered the following error: "
)

// render writes page with status. The session user, if any, is always
// available to templates as .Session.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data web.Data) {
	if data == nil {
		data = web.Data{}
	}
	data["Session"] = SessionUser(r.Context())

	var buf bytes.Buffer
	if err := h.views.Render(&buf, page, data); err != nil {
		h.log.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError renders the 404 page for status 404 and the error page for
// everything else.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := "500"
	if status == http.StatusNotFound {
		page = "404"
	}
	h.render(w, r, status, page, web.Data{"Message": message})
}

// renderStoreError translates a store error into an error page.
func (h *Handler) renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		h.renderError(w, r, status, err.Error())
		return
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	h.renderError(w, r, status, errorPrefix+err.Error())
}

func statusFor(err error) int {
	var (
		verr *apperr.ValidationError
		cerr *apperr.ConflictError
		nerr *apperr.NotFoundError
		aerr *apperr.AuthError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &cerr):
		return http.StatusConflict
	case errors.As(err, &nerr):
		return http.StatusNotFound
	case errors.As(err, &aerr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
