package shipments

import (
	"context"
	"errors"
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

const basePath = "/shipments"

// Handler serves the shipment document screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resources dictionary.Repository
	units     dictionary.Repository
	clients   dictionary.Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, resources, units, clients dictionary.Repository, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		resources: resources,
		units:     units,
		clients:   clients,
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
	r.Post("/{id}/sign", h.sign)
	r.Post("/{id}/revoke", h.revoke)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.remove)
}

type itemRow struct {
	ResourceName string
	UnitName     string
	Quantity     float64
}

type listRow struct {
	Shipment   Shipment
	ClientName string
	Items      []itemRow
}

type listData struct {
	Rows              []listRow
	NumberOptions     []string
	Resources         []dictionary.Entry
	Units             []dictionary.Entry
	Clients           []dictionary.Entry
	DateFrom          string
	DateTo            string
	ClientID          int64
	State             ShipmentState
	SelectedNumbers   map[string]bool
	SelectedResources map[int64]bool
	SelectedUnits     map[int64]bool
}

type formPageData struct {
	Form      Form
	Resources []dictionary.Entry
	Units     []dictionary.Entry
	Clients   []dictionary.Entry
	IsEdit    bool
}

type confirmData struct {
	Shipment   Shipment
	ClientName string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := Filters{
		Numbers:     nonEmpty(query["numbers"]),
		ResourceIDs: parseIDs(query["resourceIds"]),
		UnitIDs:     parseIDs(query["unitIds"]),
	}
	if d, err := backend.ParseDate(query.Get("dateFrom")); err == nil {
		filters.DateFrom = d
	}
	if d, err := backend.ParseDate(query.Get("dateTo")); err == nil {
		filters.DateTo = d
	}
	if id, err := strconv.ParseInt(query.Get("clientId"), 10, 64); err == nil && id > 0 {
		filters.ClientID = id
	}
	switch ShipmentState(query.Get("state")) {
	case StateDraft:
		filters.State = StateDraft
	case StateSigned:
		filters.State = StateSigned
	}

	var (
		rows      []Shipment
		numbers   []string
		resources []dictionary.Entry
		units     []dictionary.Entry
		clients   []dictionary.Entry
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
	g.Go(func() (err error) {
		clients, err = h.clients.List(ctx, "", nil)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load shipments", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
	}

	h.render(w, r, "pages/shipments_list.html", "Shipments", listData{
		Rows:              joinRows(rows, resources, units, clients),
		NumberOptions:     numbers,
		Resources:         resources,
		Units:             units,
		Clients:           clients,
		DateFrom:          filters.DateFrom.String(),
		DateTo:            filters.DateTo.String(),
		ClientID:          filters.ClientID,
		State:             filters.State,
		SelectedNumbers:   stringSet(filters.Numbers),
		SelectedResources: idSet(filters.ResourceIDs),
		SelectedUnits:     idSet(filters.UnitIDs),
	}, http.StatusOK)
}

// showForm renders the create form with today's date and the first active
// client preselected.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	resources, units, clients, err := h.formOptions(r.Context())
	if err != nil {
		h.logger.Error("load form options", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
	}
	var defaultClientID int64
	if len(clients) > 0 {
		defaultClientID = clients[0].ID
	}
	h.renderFormWithOptions(w, r, NewForm(time.Now(), defaultClientID), false, resources, units, clients, http.StatusOK)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadShipment(w, r)
	if !ok {
		return
	}
	if !shipment.State.CanEdit() {
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Signed shipments cannot be edited")
		return
	}
	h.renderForm(w, r, FormFromShipment(shipment), true, http.StatusOK)
}

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
	switch {
	case errors.Is(err, ErrNotDraft):
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Signed shipments cannot be edited")
		return
	case err != nil:
		h.logger.Error("save shipment", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
		h.renderForm(w, r, form, isEdit, http.StatusOK)
		return
	}

	if isEdit {
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Shipment updated")
	} else {
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Shipment created")
	}
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	_, err = h.service.Sign(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotDraft):
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Only draft shipments can be signed")
	case err != nil:
		h.logger.Error("sign shipment", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
	default:
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Shipment signed")
	}
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	_, err = h.service.Revoke(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotSigned):
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Only signed shipments can be revoked")
	case err != nil:
		h.logger.Error("revoke shipment", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
	default:
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Shipment revoked")
	}
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadShipment(w, r)
	if !ok {
		return
	}
	if !shipment.State.CanDelete() {
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Signed shipments cannot be deleted")
		return
	}

	clientName := "#" + strconv.FormatInt(shipment.ClientID, 10)
	if client, err := h.clients.Get(r.Context(), shipment.ClientID); err == nil {
		clientName = client.Name
	}
	h.render(w, r, "pages/shipment_confirm_delete.html", "Delete shipment", confirmData{
		Shipment:   shipment,
		ClientName: clientName,
	}, http.StatusOK)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	err = h.service.Remove(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotDraft):
		h.redirectWithNotice(w, r, basePath, shared.NoticeWarning, "Signed shipments cannot be deleted")
	case err != nil:
		h.logger.Error("remove shipment", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
	default:
		h.redirectWithNotice(w, r, basePath, shared.NoticeSuccess, "Shipment deleted")
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form Form, isEdit bool, status int) {
	resources, units, clients, err := h.formOptions(r.Context())
	if err != nil {
		h.logger.Error("load form options", slog.Any("error", err))
		h.notify(r, shared.NoticeError, backend.UserMessage(err))
	}
	h.renderFormWithOptions(w, r, form, isEdit, resources, units, clients, status)
}

func (h *Handler) renderFormWithOptions(w http.ResponseWriter, r *http.Request, form Form, isEdit bool, resources, units, clients []dictionary.Entry, status int) {
	title := "New shipment"
	if isEdit {
		title = "Edit shipment"
	}
	h.render(w, r, "pages/shipment_form.html", title, formPageData{
		Form:      form,
		Resources: resources,
		Units:     units,
		Clients:   clients,
		IsEdit:    isEdit,
	}, status)
}

func (h *Handler) formOptions(ctx context.Context) ([]dictionary.Entry, []dictionary.Entry, []dictionary.Entry, error) {
	var resources, units, clients []dictionary.Entry
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resources, err = h.resources.ListActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		units, err = h.units.ListActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		clients, err = h.clients.ListActive(ctx)
		return err
	})
	return resources, units, clients, g.Wait()
}

func (h *Handler) loadShipment(w http.ResponseWriter, r *http.Request) (Shipment, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return Shipment{}, false
	}
	shipment, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get shipment", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithNotice(w, r, basePath, shared.NoticeError, backend.UserMessage(err))
		return Shipment{}, false
	}
	return shipment, true
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

func joinRows(rows []Shipment, resources, units, clients []dictionary.Entry) []listRow {
	resourceNames := nameIndex(resources)
	unitNames := nameIndex(units)
	clientNames := nameIndex(clients)

	out := make([]listRow, 0, len(rows))
	for _, shipment := range rows {
		row := listRow{
			Shipment:   shipment,
			ClientName: lookupName(clientNames, shipment.ClientID),
		}
		for _, item := range shipment.Items {
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
