package balances

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/dictionary"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/view"
)

// Handler serves the read-only balances screen.
type Handler struct {
	logger    *slog.Logger
	balances  Repository
	resources dictionary.Repository
	units     dictionary.Repository
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, balances Repository, resources, units dictionary.Repository, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		balances:  balances,
		resources: resources,
		units:     units,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

type listData struct {
	Rows              []Balance
	Resources         []dictionary.Entry
	Units             []dictionary.Entry
	SelectedResources map[int64]bool
	SelectedUnits     map[int64]bool
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := Filters{
		ResourceIDs: parseIDs(r.URL.Query()["resourceIds"]),
		UnitIDs:     parseIDs(r.URL.Query()["unitIds"]),
	}

	var (
		rows      []Balance
		resources []dictionary.Entry
		units     []dictionary.Entry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		rows, err = h.balances.List(ctx, filters)
		return err
	})
	g.Go(func() (err error) {
		resources, err = h.resources.ListActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		units, err = h.units.ListActive(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load balances", slog.Any("error", err))
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.SetNotice(shared.NoticeError, backend.UserMessage(err))
		}
	}

	data := listData{
		Rows:              rows,
		Resources:         resources,
		Units:             units,
		SelectedResources: idSet(filters.ResourceIDs),
		SelectedUnits:     idSet(filters.UnitIDs),
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var notice *shared.Notice
	if sess != nil {
		notice = sess.PopNotice()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "pages/balances.html", view.TemplateData{
		Title:       "Balances",
		CSRFToken:   csrfToken,
		Notice:      notice,
		CurrentPath: "/balances",
		Identity:    shared.IdentityFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", "pages/balances.html"), slog.Any("error", err))
	}
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

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
