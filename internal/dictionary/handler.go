package dictionary

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/view"
)

// Config parametrizes the generic dictionary screen for one entity.
type Config struct {
	Title      string // page heading, e.g. "Units of measure"
	Singular   string // notice wording, e.g. "Unit"
	BasePath   string // mount point, e.g. "/units"
	HasAddress bool   // clients carry an optional address column
}

// Handler serves the shared list/create/edit/archive/delete screens for
// units, resources and clients.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
	cfg       Config
}

// NewHandler builds a dictionary screen handler.
func NewHandler(logger *slog.Logger, repo Repository, templates *view.Engine, csrf *shared.CSRFManager, cfg Config) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
		cfg:       cfg,
	}
}

// MountRoutes registers the screen's routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.showEditForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/toggle", h.toggleState)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.remove)
}

type listData struct {
	Config Config
	Rows   []Entry
	Query  string
	State  StateFilter
}

type formData struct {
	Config  Config
	Entry   *Entry
	Name    string
	Address string
	Errors  map[string]string
	Query   string
	State   StateFilter
}

type confirmData struct {
	Config Config
	Entry  Entry
	Query  string
	State  StateFilter
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	state := stateFilter(r.URL.Query().Get("state"))

	rows, err := h.repo.List(r.Context(), q, state.APIState())
	if err != nil {
		h.logger.Error("list dictionary", slog.String("entity", h.cfg.Singular), slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
		rows = nil
	}

	h.render(w, r, "pages/dictionary_list.html", listData{
		Config: h.cfg,
		Rows:   rows,
		Query:  q,
		State:  state,
	}, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/dictionary_form.html", formData{
		Config: h.cfg,
		Errors: map[string]string{},
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		State:  stateFilter(r.URL.Query().Get("state")),
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form, payload, ok := h.parsePayload(r)
	if !ok {
		h.notify(r, shared.NoticeWarning, "Name is required")
		form.Errors["Name"] = "Name is required"
		h.render(w, r, "pages/dictionary_form.html", form, http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.repo.Create(r.Context(), payload); err != nil {
		h.logger.Error("create dictionary entry", slog.String("entity", h.cfg.Singular), slog.Any("error", err))
		h.redirectWithNotice(w, r, h.listPath(form.Query, form.State), shared.NoticeError, backend.UserMessage(err))
		return
	}

	h.redirectWithNotice(w, r, h.listPath(form.Query, form.State), shared.NoticeSuccess, h.cfg.Singular+" created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	address := ""
	if entry.Address != nil {
		address = *entry.Address
	}
	h.render(w, r, "pages/dictionary_form.html", formData{
		Config:  h.cfg,
		Entry:   &entry,
		Name:    entry.Name,
		Address: address,
		Errors:  map[string]string{},
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		State:   stateFilter(r.URL.Query().Get("state")),
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form, payload, ok := h.parsePayload(r)
	if !ok {
		h.notify(r, shared.NoticeWarning, "Name is required")
		form.Errors["Name"] = "Name is required"
		entry, loadErr := h.repo.Get(r.Context(), id)
		if loadErr == nil {
			form.Entry = &entry
		}
		h.render(w, r, "pages/dictionary_form.html", form, http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.repo.Update(r.Context(), id, payload); err != nil {
		h.logger.Error("update dictionary entry", slog.String("entity", h.cfg.Singular), slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, h.listPath(form.Query, form.State), shared.NoticeError, backend.UserMessage(err))
		return
	}

	h.redirectWithNotice(w, r, h.listPath(form.Query, form.State), shared.NoticeSuccess, h.cfg.Singular+" updated")
}

// toggleState archives ACTIVE rows and activates ARCHIVED ones, based on
// the state the row showed when the form rendered.
func (h *Handler) toggleState(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	q := strings.TrimSpace(r.PostFormValue("q"))
	state := stateFilter(r.PostFormValue("state"))
	listPath := h.listPath(q, state)

	var verb string
	if EntityState(r.PostFormValue("row_state")) == StateActive {
		verb = "archived"
		_, err = h.repo.Archive(r.Context(), id)
	} else {
		verb = "activated"
		_, err = h.repo.Activate(r.Context(), id)
	}
	if err != nil {
		h.logger.Error("toggle dictionary entry", slog.String("entity", h.cfg.Singular), slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, listPath, shared.NoticeError, backend.UserMessage(err))
		return
	}

	h.redirectWithNotice(w, r, listPath, shared.NoticeSuccess, h.cfg.Singular+" "+verb)
}

// confirmDelete renders the confirmation step. No remove call happens here.
func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/dictionary_confirm_delete.html", confirmData{
		Config: h.cfg,
		Entry:  entry,
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		State:  stateFilter(r.URL.Query().Get("state")),
	}, http.StatusOK)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	listPath := h.listPath(strings.TrimSpace(r.PostFormValue("q")), stateFilter(r.PostFormValue("state")))

	if err := h.repo.Remove(r.Context(), id); err != nil {
		h.logger.Error("remove dictionary entry", slog.String("entity", h.cfg.Singular), slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, listPath, shared.NoticeError, backend.UserMessage(err))
		return
	}

	h.redirectWithNotice(w, r, listPath, shared.NoticeSuccess, h.cfg.Singular+" deleted")
}

func (h *Handler) parsePayload(r *http.Request) (formData, Payload, bool) {
	form := formData{
		Config:  h.cfg,
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Address: strings.TrimSpace(r.PostFormValue("address")),
		Errors:  map[string]string{},
		Query:   strings.TrimSpace(r.PostFormValue("q")),
		State:   stateFilter(r.PostFormValue("state")),
	}

	payload := Payload{Name: form.Name}
	if h.cfg.HasAddress {
		if form.Address != "" {
			addr := form.Address
			payload.Address = &addr
		}
	}

	if err := h.validator.Struct(payload); err != nil {
		return form, Payload{}, false
	}
	return form, payload, true
}

func (h *Handler) loadEntry(w http.ResponseWriter, r *http.Request) (Entry, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return Entry{}, false
	}
	entry, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get dictionary entry", slog.String("entity", h.cfg.Singular), slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, h.cfg.BasePath, shared.NoticeError, backend.UserMessage(err))
		return Entry{}, false
	}
	return entry, true
}

func (h *Handler) listPath(q string, state StateFilter) string {
	values := url.Values{}
	if q != "" {
		values.Set("q", q)
	}
	if state != "" && state != FilterAll {
		values.Set("state", string(state))
	}
	if encoded := values.Encode(); encoded != "" {
		return h.cfg.BasePath + "?" + encoded
	}
	return h.cfg.BasePath
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var notice *shared.Notice
	if sess != nil {
		notice = sess.PopNotice()
	}
	viewData := view.TemplateData{
		Title:       h.cfg.Title,
		CSRFToken:   csrfToken,
		Notice:      notice,
		CurrentPath: h.cfg.BasePath,
		Identity:    shared.IdentityFromContext(r.Context()),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

// notify stamps a notice for the page being rendered in this same response.
func (h *Handler) notify(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetNotice(kind, message)
	}
}

func (h *Handler) redirectWithNotice(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	h.notify(r, kind, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func stateFilter(raw string) StateFilter {
	switch StateFilter(strings.ToUpper(strings.TrimSpace(raw))) {
	case FilterActive:
		return FilterActive
	case FilterArchived:
		return FilterArchived
	default:
		return FilterAll
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
