package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
	"github.com/arshmeetsingh/lego-collection/web"
)

// ListSets shows all sets, or the sets whose theme matches ?theme=.
func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	theme := strings.TrimSpace(r.URL.Query().Get("theme"))

	var (
		sets []models.Set
		err  error
	)
	if theme != "" {
		sets, err = h.catalog.GetSetsByTheme(r.Context(), theme)
	} else {
		sets, err = h.catalog.GetAllSets(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	}
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "sets", web.Data{
		"Sets":  sets,
		"Theme": theme,
	})
}

func (h *Handler) GetSet(w http.ResponseWriter, r *http.Request) {
	set, err := h.catalog.GetSetByNum(r.Context(), chi.URLParam(r, "setNum"))
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "set", web.Data{"Set": set})
}

func (h *Handler) AddSetForm(w http.ResponseWriter, r *http.Request) {
	themes, err := h.catalog.GetAllThemes(r.Context())
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "addSet", web.Data{
		"Themes":  themes,
		"Uploads": h.images != nil,
	})
}

func (h *Handler) AddSet(w http.ResponseWriter, r *http.Request) {
	in, err := h.setInputFromForm(r, newSet)
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	if _, err := h.catalog.AddSet(r.Context(), in); err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.log.Info("set added", zap.String("set_num", in.SetNum), zap.String("by", sessionUserName(r)))
	http.Redirect(w, r, "/lego/sets", http.StatusSeeOther)
}

func (h *Handler) EditSetForm(w http.ResponseWriter, r *http.Request) {
	set, err := h.catalog.GetSetByNum(r.Context(), chi.URLParam(r, "setNum"))
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	themes, err := h.catalog.GetAllThemes(r.Context())
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "editSet", web.Data{
		"Set":     set,
		"Themes":  themes,
		"Uploads": h.images != nil,
	})
}

// EditSet updates the set named by the set_num form field.
func (h *Handler) EditSet(w http.ResponseWriter, r *http.Request) {
	in, err := h.setInputFromForm(r, existingSet)
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	if _, err := h.catalog.EditSet(r.Context(), in.SetNum, in); err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.log.Info("set updated", zap.String("set_num", in.SetNum), zap.String("by", sessionUserName(r)))
	http.Redirect(w, r, "/lego/sets", http.StatusSeeOther)
}

func (h *Handler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	setNum := chi.URLParam(r, "setNum")
	if err := h.catalog.DeleteSet(r.Context(), setNum); err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	h.log.Info("set deleted", zap.String("set_num", setNum), zap.String("by", sessionUserName(r)))
	http.Redirect(w, r, "/lego/sets", http.StatusSeeOther)
}

// setTarget says whether the form creates a set or updates an existing one.
type setTarget int

const (
	newSet setTarget = iota
	existingSet
)

// setInputFromForm reads and validates the add/edit set form. An uploaded
// img_file takes precedence over img_url when uploads are enabled.
func (h *Handler) setInputFromForm(r *http.Request, target setTarget) (models.SetInput, error) {
	in := models.SetInput{
		SetNum: strings.TrimSpace(r.FormValue("set_num")),
		Name:   strings.TrimSpace(r.FormValue("name")),
		ImgURL: strings.TrimSpace(r.FormValue("img_url")),
	}

	// Validate required fields
	if in.SetNum == "" {
		return in, &apperr.ValidationError{Field: "set_num", Message: "Set number is required"}
	}
	if in.Name == "" {
		return in, &apperr.ValidationError{Field: "name", Message: "Name is required"}
	}

	var err error
	if in.Year, err = formInt(r, "year"); err != nil {
		return in, err
	}
	if in.NumParts, err = formInt(r, "num_parts"); err != nil {
		return in, err
	}
	if in.ThemeID, err = formInt(r, "theme_id"); err != nil {
		return in, err
	}

	if h.images != nil {
		url, err := h.uploadSetImage(r, in.SetNum, target)
		if err != nil {
			return in, err
		}
		if url != "" {
			in.ImgURL = url
		}
	}
	if in.ImgURL == "" {
		return in, &apperr.ValidationError{Field: "img_url", Message: "Image URL is required"}
	}

	return in, nil
}

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, &apperr.ValidationError{Field: field, Message: field + " is required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperr.ValidationError{Field: field, Message: field + " must be a whole number"}
	}
	return n, nil
}

// queryInt returns 0 for a missing or malformed parameter.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func sessionUserName(r *http.Request) string {
	if user := SessionUser(r.Context()); user != nil {
		return user.UserName
	}
	return ""
}

// isMissingFile reports whether err only means no file was sent.
func isMissingFile(err error) bool {
	return errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
}
