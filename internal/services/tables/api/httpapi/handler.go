// Package httpapi exposes table operations as a JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
	"github.com/louisbranch/rolltables/internal/platform/errors/i18n"
	"github.com/louisbranch/rolltables/internal/platform/id"
	"github.com/louisbranch/rolltables/internal/platform/requestctx"
	"github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/feed"
	"github.com/louisbranch/rolltables/internal/services/tables/service"
)

const maxBodyBytes = 1 << 20

// Handler routes the JSON API onto a table service.
type Handler struct {
	svc    *service.Service
	hub    *feed.Hub
	router *mux.Router
}

// NewHandler builds the router. hub may be nil, in which case the feed
// route answers 404.
func NewHandler(svc *service.Service, hub *feed.Hub) *Handler {
	h := &Handler{svc: svc, hub: hub, router: mux.NewRouter()}

	h.router.Use(requestID)
	h.router.HandleFunc("/up", h.handleUp).Methods(http.MethodGet)

	v1 := h.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/tables", h.handleListTables).Methods(http.MethodGet)
	v1.HandleFunc("/tables/{id}", h.handleGetTable).Methods(http.MethodGet)
	v1.HandleFunc("/tables/{id}", h.handlePutTable).Methods(http.MethodPut)
	v1.HandleFunc("/tables/{id}/draw", h.handleDraw).Methods(http.MethodPost)
	v1.HandleFunc("/tables/{id}/reset", h.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/tables/{id}/kind", h.handleSetKind).Methods(http.MethodPost)
	v1.HandleFunc("/tables/{id}/feed", h.handleFeed).Methods(http.MethodGet)
	v1.HandleFunc("/packs", h.handleListPacks).Methods(http.MethodGet)
	v1.HandleFunc("/packs/{pack}/tables", h.handleListPackTables).Methods(http.MethodGet)
	v1.HandleFunc("/packs/{pack}/tables/{id}", h.handleGetTable).Methods(http.MethodGet)
	v1.HandleFunc("/packs/{pack}/tables/{id}/draw", h.handleDraw).Methods(http.MethodPost)
	v1.HandleFunc("/diagnostics", h.handleDiagnostics).Methods(http.MethodGet)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.New(apperrors.CodeNotFound, "route not found"))
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " is not allowed here"})
	})
	return h
}

// requestIDHeader carries the request identifier in both directions.
const requestIDHeader = "X-Request-ID"

// requestID tags the request context with the caller's X-Request-ID or a
// fresh one, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if reqID == "" {
			generated, err := id.NewID()
			if err != nil {
				log.Printf("generate request id: %v", err)
			}
			reqID = generated
		}
		if reqID != "" {
			w.Header().Set(requestIDHeader, reqID)
			r = r.WithContext(requestctx.WithRequestID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleUp(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

type listTablesResponse struct {
	Tables        []tableSummary `json:"tables"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type tableSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Kind        domain.Kind `json:"kind"`
	Formula     string      `json:"formula"`
	Replacement bool        `json:"replacement"`
	Pack        string      `json:"pack,omitempty"`
	Entries     int         `json:"entries"`
	Remaining   int         `json:"remaining"`
}

func summarize(tables []domain.Table) []tableSummary {
	out := make([]tableSummary, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableSummary{
			ID:          t.ID,
			Name:        t.Name,
			Kind:        t.Kind,
			Formula:     t.Formula,
			Replacement: t.Replacement,
			Pack:        t.Pack,
			Entries:     len(t.Entries),
			Remaining:   len(t.Eligible()),
		})
	}
	return out
}

func (h *Handler) handleListTables(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize := 0
	if raw := query.Get("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, badRequest("page_size must be an integer"))
			return
		}
		pageSize = v
	}
	page, err := h.svc.ListTables(r.Context(), service.ListRequest{
		Filter:    query.Get("filter"),
		PageSize:  pageSize,
		PageToken: query.Get("page_token"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listTablesResponse{Tables: summarize(page.Tables), NextPageToken: page.NextPageToken})
}

func (h *Handler) handleGetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.GetTable(r.Context(), tableRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) handlePutTable(w http.ResponseWriter, r *http.Request) {
	var table domain.Table
	if err := decodeBody(r, &table); err != nil {
		writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if table.ID == "" {
		table.ID = id
	}
	if table.ID != id {
		writeError(w, r, badRequest("body id does not match path id"))
		return
	}
	if table.Pack != "" {
		writeError(w, r, badRequest("pack tables are imported, not edited"))
		return
	}
	stored, err := h.svc.PutTable(r.Context(), table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

type drawRequest struct {
	Shallow bool   `json:"shallow"`
	Samples []int  `json:"samples"`
	Seed    *int64 `json:"seed"`
	// Preview resolves without marking entries or announcing.
	Preview bool `json:"preview"`
}

type drawResponse struct {
	Table        domain.Reference   `json:"table"`
	Mode         string             `json:"mode"`
	Hits         []string           `json:"hits"`
	Results      []string           `json:"results"`
	Outcome      any                `json:"outcome"`
	Committed    bool               `json:"committed"`
	Marked       any                `json:"marked,omitempty"`
	Announcement *feed.Announcement `json:"announcement,omitempty"`
}

func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	var body drawRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if raw := r.URL.Query().Get("samples"); raw != "" {
		samples, err := service.ParseSamples(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		body.Samples = samples
	}
	if r.URL.Query().Get("preview") == "true" {
		body.Preview = true
	}

	ref := tableRef(r)
	req := service.DrawRequest{
		Table:   ref,
		Shallow: body.Shallow,
		Samples: body.Samples,
		Seed:    body.Seed,
		Locale:  locale(r),
	}
	draw := h.svc.Draw
	// Pack tables are read-only so a draw against one is always a preview.
	if body.Preview || !ref.InWorld() {
		draw = h.svc.Preview
	}
	result, err := draw(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := drawResponse{
		Table:        result.Table.Ref(),
		Mode:         result.Mode.String(),
		Hits:         entryTexts(result.Hits),
		Results:      result.Outcome.Texts(),
		Outcome:      result.Outcome,
		Committed:    result.Committed,
		Marked:       result.Marked,
		Announcement: result.Announcement,
	}
	writeJSON(w, http.StatusOK, resp)
}

func entryTexts(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.ResetTable(r.Context(), tableRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

type setKindRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleSetKind(w http.ResponseWriter, r *http.Request) {
	var body setKindRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := domain.ParseKind(body.Kind)
	if err != nil {
		writeError(w, r, apperrors.WrapWithMetadata(apperrors.CodeTableKindInvalid, "unknown table kind", map[string]string{"Kind": body.Kind}, err))
		return
	}
	table, err := h.svc.SetKind(r.Context(), tableRef(r), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, r, apperrors.New(apperrors.CodeNotFound, "draw feed is disabled"))
		return
	}
	ref := tableRef(r)
	if _, err := h.svc.GetTable(r.Context(), ref); err != nil {
		writeError(w, r, err)
		return
	}
	h.hub.Handler(ref.String()).ServeHTTP(w, r)
}

func (h *Handler) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.svc.ListPacks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"packs": packs})
}

func (h *Handler) handleListPackTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.ListPackTables(r.Context(), mux.Vars(r)["pack"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listTablesResponse{Tables: summarize(tables)})
}

type diagnosticsResponse struct {
	Diagnostics []diagnosticView `json:"diagnostics"`
}

type diagnosticView struct {
	ID        string            `json:"id"`
	Severity  string            `json:"severity"`
	Condition string            `json:"condition"`
	Table     string            `json:"table"`
	Depth     int               `json:"depth"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, r, badRequest("limit must be a non-negative integer"))
			return
		}
		limit = v
	}
	records, err := h.svc.Diagnostics(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]diagnosticView, 0, len(records))
	for _, rec := range records {
		d := rec.Diagnostic
		views = append(views, diagnosticView{
			ID:        rec.ID,
			Severity:  string(d.Severity),
			Condition: string(d.Condition),
			Table:     d.Table.String(),
			Depth:     d.Depth,
			Message:   d.Message,
			Metadata:  d.Metadata,
			CreatedAt: rec.CreatedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{Diagnostics: views})
}

func tableRef(r *http.Request) domain.Reference {
	vars := mux.Vars(r)
	return domain.Reference{Pack: vars["pack"], TableID: vars["id"]}
}

func locale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return lang
	}
	return i18n.AcceptLanguage(r.Header.Get("Accept-Language"))
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return apperrors.WrapWithMetadata(apperrors.CodeRequestInvalid, "decode request body", map[string]string{"Reason": err.Error()}, err)
	}
	return nil
}

func badRequest(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeRequestInvalid, reason, map[string]string{"Reason": reason})
}

type errorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s request=%s: %v", r.Method, r.URL.Path, requestctx.RequestIDFromContext(r.Context()), err)
	}
	resp := errorResponse{Code: string(code), Message: apperrors.LocalizedMessage(err, locale(r))}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		resp.Metadata = appErr.Metadata
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
