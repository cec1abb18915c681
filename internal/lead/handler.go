package lead

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	StageChanger
	ListLeads(ctx context.Context, filter ListFilter) ([]*Lead, error)
	GetLead(ctx context.Context, id string) (*Lead, error)
	CreateLead(ctx context.Context, dto CreateLeadDTO, actor *auth.Actor) (*Lead, error)
	CapturePublicLead(ctx context.Context, dto PublicLeadDTO) (*Lead, error)
	UpdateLead(ctx context.Context, id string, dto UpdateLeadDTO, actor *auth.Actor) (*Lead, error)
	DeleteLead(ctx context.Context, id string, actor *auth.Actor) error
	PendingFollowUps(ctx context.Context) ([]*Lead, error)
	Stats(ctx context.Context) (Stats, error)
	Reconcile(ctx context.Context, reason string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Drags   *DragRegistry
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Drags:       NewDragRegistry(service),
	}
}

// ListLeads handles GET /leads?stage=&source=&assigned_to=&q=
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	leads, err := h.Service.ListLeads(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeadsResponse{Leads: leads, Total: len(leads)})
}

// Board handles GET /leads/board, the kanban columns.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	leads, err := h.Service.ListLeads(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GroupByStage(leads))
}

func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var dto CreateLeadDTO
	if !h.DecodeBody(w, r, &dto) {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	l, err := h.Service.CreateLead(r.Context(), dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, l)
}

// CapturePublicLead handles POST /public/leads from the website enquiry form.
func (h *Handler) CapturePublicLead(w http.ResponseWriter, r *http.Request) {
	var dto PublicLeadDTO
	if !h.DecodeBody(w, r, &dto) {
		return
	}

	l, err := h.Service.CapturePublicLead(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]string{"id": l.ID, "stage": string(l.Stage)})
}

func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var dto UpdateLeadDTO
	if !h.DecodeBody(w, r, &dto) {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	l, err := h.Service.UpdateLead(r.Context(), chi.URLParam(r, "id"), dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// ChangeStage handles PUT /leads/{id}/stage
func (h *Handler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	var dto StageChangeDTO
	if !h.DecodeBody(w, r, &dto) {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	res, err := h.Service.ChangeStage(r.Context(), chi.URLParam(r, "id"), dto.Stage, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, stageStatus(res), res)
}

// ArmDrag handles POST /leads/{id}/drag when a card is picked up.
func (h *Handler) ArmDrag(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	h.Drags.For(actor).Arm(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Drop handles POST /leads/drop when a card lands on a column. A drop that
// does not match the armed card is acknowledged and ignored.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	var dto DropDTO
	if !h.DecodeBody(w, r, &dto) {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	res, honoured, err := h.Drags.For(actor).Drop(r.Context(), dto.LeadID, dto.Stage, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, stageStatus(res), DropResult{Honoured: honoured, StageChangeResult: res})
}

func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Service.DeleteLead(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PendingFollowUps(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Service.PendingFollowUps(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeadsResponse{Leads: leads, Total: len(leads)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

// Reconcile handles POST /leads/reconcile, a manual full refetch.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reconcile(r.Context(), ReconcileManual); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /leads/export and streams an xlsx workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	leads, err := h.Service.ListLeads(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, leads); err != nil {
		h.Logger.Error("Export: workbook failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	name := fmt.Sprintf("leads-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("Export: write interrupted", "error", err)
	}
}

// stageStatus answers 409 when a stage change was rolled back by reconciling.
func stageStatus(res StageChangeResult) int {
	if res.Reconciled {
		return http.StatusConflict
	}
	return http.StatusOK
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{
		AssignedTo: q.Get("assigned_to"),
		Search:     q.Get("q"),
	}
	if raw := q.Get("stage"); raw != "" {
		s, err := ParseStage(raw)
		if err != nil {
			return ListFilter{}, internal.NewValidationFieldError("stage", err.Error(), internal.ErrCodeInvalidStage)
		}
		f.Stage = s
	}
	if raw := q.Get("source"); raw != "" {
		s, err := ParseSource(raw)
		if err != nil {
			return ListFilter{}, internal.NewValidationFieldError("source", err.Error(), internal.ErrCodeInvalidSource)
		}
		f.Source = s
	}
	return f, nil
}
