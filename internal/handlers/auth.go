package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/services"
	"github.com/arshmeetsingh/lego-collection/web"
)

const registerSuccessMessage = "User created"

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", web.Data{
		"ErrorMessage": "",
		"UserName":     "",
	})
}

// Login authenticates the form credentials, records the login against the
// request's User-Agent and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	userName := strings.TrimSpace(r.FormValue("userName"))
	password := r.FormValue("password")

	user, err := h.creds.Authenticate(r.Context(), userName, password, r.UserAgent())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			status = http.StatusUnauthorized
		}
		if status == http.StatusInternalServerError {
			h.log.Error("login failed", zap.String("userName", userName), zap.Error(err))
		}
		h.render(w, r, status, "login", web.Data{
			"ErrorMessage": err.Error(),
			"UserName":     userName,
		})
		return
	}

	token, err := h.sessions.Create(r.Context(), user.Session())
	if err != nil {
		h.log.Error("creating session", zap.String("userName", userName), zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, errorPrefix+"unable to start session")
		return
	}

	http.SetCookie(w, h.sessionCookie(token))
	http.Redirect(w, r, "/lego/sets", http.StatusSeeOther)
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", web.Data{
		"ErrorMessage":   "",
		"SuccessMessage": "",
		"UserName":       "",
		"Email":          "",
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in := services.RegisterInput{
		UserName:  strings.TrimSpace(r.FormValue("userName")),
		Password:  r.FormValue("password"),
		Password2: r.FormValue("password2"),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}

	if err := h.creds.Register(r.Context(), in); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("registration failed", zap.String("userName", in.UserName), zap.Error(err))
		}
		h.render(w, r, status, "register", web.Data{
			"ErrorMessage":   err.Error(),
			"SuccessMessage": "",
			"UserName":       in.UserName,
			"Email":          in.Email,
		})
		return
	}

	h.render(w, r, http.StatusOK, "register", web.Data{
		"ErrorMessage":   "",
		"SuccessMessage": registerSuccessMessage,
		"UserName":       "",
		"Email":          "",
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.log.Warn("destroying session", zap.Error(err))
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// UserHistory shows the login history captured when the session started.
func (h *Handler) UserHistory(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "userHistory", nil)
}
