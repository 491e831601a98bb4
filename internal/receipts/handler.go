package receipts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/dictionary"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/view"
)

const basePath = "/receipts"

// Handler serves the receipt document screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resources dictionary.Repository
	units     dictionary.Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, resources, units dictionary.Repository, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		resources: resources,
		units:     units,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/", h.submitForm)
	r.Get("/{id}/edit", h.showEditForm)
	r.Post("/{id}/edit", h.submitForm)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.remove)
}

type itemRow struct {
	ResourceName string
	UnitName     string
	Quantity     float64
}

type listRow struct {
	Receipt Receipt
	Items   []itemRow
}

type listData struct {
	Rows              []listRow
	NumberOptions     []string
	Resources         []dictionary.Entry
	Units             []dictionary.Entry
	From              string
	To                string
	SelectedNumbers   map[string]bool
	SelectedResources map[int64]bool
	SelectedUnits     map[int64]bool
}

type formPageData struct {
	Form      Form
	Resources []dictionary.Entry
	Units     []dictionary.Entry
	IsEdit    bool
}

type confirmData struct {
	Receipt Receipt
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := Filters{
		Numbers:     nonEmpty(query["numbers"]),
		ResourceIDs: parseIDs(query["resourceIds"]),
		UnitIDs:     parseIDs(query["unitIds"]),
	}
	if d, err := backend.ParseDate(query.Get("from")); err == nil {
		filters.From = d
	}
	if d, err := backend.ParseDate(query.Get("to")); err == nil {
		filters.To = d
	}

	var (
		rows      []Receipt
		numbers   []string
		resources []dictionary.Entry
		units     []dictionary.Entry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		rows, err = h.service.List(ctx, filters)
		return err
	})
	g.Go(func() (err error) {
		numbers, err = h.service.ListNumbers(ctx)
		return err
	})
	g.Go(func() (err error) {
		resources, err = h.resources.List(ctx, "", nil)
		return err
	})
	g.Go(func() (err error) {
		units, err = h.units.List(ctx, "", nil)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load receipts", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
	}

	h.render(w, r, "pages/receipts_list.html", "Receipts", listData{
		Rows:              joinRows(rows, resources, units),
		NumberOptions:     numbers,
		Resources:         resources,
		Units:             units,
		From:              filters.From.String(),
		To:                filters.To.String(),
		SelectedNumbers:   stringSet(filters.Numbers),
		SelectedResources: idSet(filters.ResourceIDs),
		SelectedUnits:     idSet(filters.UnitIDs),
	}, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, NewForm(time.Now()), false, http.StatusOK)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.loadReceipt(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, FormFromReceipt(receipt), true, http.StatusOK)
}

// submitForm dispatches the editor's row actions and save. Add and remove
// re-render the form without touching the backend.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := ParseForm(r)
	isEdit := chi.URLParam(r, "id") != ""
	action := r.PostFormValue("action")

	switch {
	case action == "add_item":
		form.AddItem()
		h.renderForm(w, r, form, isEdit, http.StatusOK)
		return
	case strings.HasPrefix(action, "remove_item:"):
		form.RemoveItem(strings.TrimPrefix(action, "remove_item:"))
		if len(form.Items) == 0 {
			form.AddItem()
		}
		h.renderForm(w, r, form, isEdit, http.StatusOK)
		return
	}

	payload, warnings := form.Payload()
	if len(warnings) > 0 {
		form.Warnings = warnings
		h.notify(r, shared.NoticeWarning, warnings[0])
		h.renderForm(w, r, form, isEdit, http.StatusUnprocessableEntity)
		return
	}

	var err error
	if isEdit {
		var id int64
		if id, err = parseID(r); err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
		_, err = h.service.Update(r.Context(), id, payload)
	} else {
		_, err = h.service.Create(r.Context(), payload)
	}
	if err != nil {
		h.logger.Error("save receipt", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
		h.renderForm(w, r, form, isEdit, http.StatusOK)
		return
	}

	if isEdit {
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Receipt updated")
	} else {
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Receipt created")
	}
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.loadReceipt(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/receipt_confirm_delete.html", "Delete receipt", confirmData{Receipt: receipt}, http.StatusOK)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.logger.Error("remove receipt", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
		return
	}
	h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Receipt deleted")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form Form, isEdit bool, status int) {
	resources, units, err := h.activeOptions(r.Context())
	if err != nil {
		h.logger.Error("load form options", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
	}
	title := "New receipt"
	if isEdit {
		title = "Edit receipt"
	}
	h.render(w, r, "pages/receipt_form.html", title, formPageData{
		Form:      form,
		Resources: resources,
		Units:     units,
		IsEdit:    isEdit,
	}, status)
}

func (h *Handler) activeOptions(ctx context.Context) ([]dictionary.Entry, []dictionary.Entry, error) {
	var resources, units []dictionary.Entry
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resources, err = h.resources.ListActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		units, err = h.units.ListActive(ctx)
		return err
	})
	return resources, units, g.Wait()
}

func (h *Handler) loadReceipt(w http.ResponseWriter, r *http.Request) (Receipt, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return Receipt{}, false
	}
	receipt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get receipt", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
		return Receipt{}, false
	}
	return receipt, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var notice *shared.Notice
	if sess != nil {
		notice = sess.PopNotice()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Notice:      notice,
		CurrentPath: basePath,
		Identity:    shared.IdentityFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) notify(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetNotice(kind, message)
	}
}

func (h *Handler) redirectWithNotice(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	h.notify(r, kind, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func joinRows(rows []Receipt, resources, units []dictionary.Entry) []listRow {
	resourceNames := nameIndex(resources)
	unitNames := nameIndex(units)

	out := make([]listRow, 0, len(rows))
	for _, receipt := range rows {
		row := listRow{Receipt: receipt}
		for _, item := range receipt.Items {
			row.Items = append(row.Items, itemRow{
				ResourceName: lookupName(resourceNames, item.ResourceID),
				UnitName:     lookupName(unitNames, item.UnitID),
				Quantity:     item.Quantity,
			})
		}
		out = append(out, row)
	}
	return out
}

func nameIndex(entries []dictionary.Entry) map[int64]string {
	index := make(map[int64]string, len(entries))
	for _, e := range entries {
		index[e.ID] = e.Name
	}
	return index
}

func lookupName(index map[int64]string, id int64) string {
	if name, ok := index[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseIDs(raw []string) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
