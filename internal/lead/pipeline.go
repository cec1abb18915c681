package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/core/common/validation"
	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/a1media/agency-dashboard/internal/metrics"
)

const (
	ReconcileStageChangeFailed = "stage_change_failed"
	ReconcileManual            = "manual"
)

// Pipeline owns the lead board. It keeps a local view of the last fetched
// leads, applies stage changes to that view optimistically and falls back to
// a full refetch (Reconcile) when persisting a stage change fails.
//
// The view lock is never held across store or directory calls.
type Pipeline struct {
	store     Store
	clients   ClientDirectory
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	view       map[string]*Lead
	order      []string
	reconciles int
}

type Option func(*Pipeline)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func NewPipeline(store Store, clients ClientDirectory, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		clients: clients,
		logger:  logger,
		now:     time.Now,
		view:    make(map[string]*Lead),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ListLeads fetches every lead from the store, replaces the local view with
// the result and returns the leads matching filter.
func (p *Pipeline) ListLeads(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	leads, err := p.refresh(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Lead, 0, len(leads))
	for _, l := range leads {
		if filter.Matches(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Leads returns the local view as last fetched or optimistically changed,
// without touching the store.
func (p *Pipeline) Leads() []*Lead {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Lead, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.view[id].Clone())
	}
	return out
}

// GetLead reads one lead from the store and refreshes it in the view.
func (p *Pipeline) GetLead(ctx context.Context, id string) (*Lead, error) {
	l, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, p.storeError("get", id, err)
	}
	p.mu.Lock()
	p.putLocked(l.Clone(), false)
	p.mu.Unlock()
	return l, nil
}

// Reconcile discards the local view and rebuilds it from the store.
func (p *Pipeline) Reconcile(ctx context.Context, reason string) error {
	p.mu.Lock()
	p.reconciles++
	p.mu.Unlock()
	metrics.PipelineReconciliationsTotal.WithLabelValues(reason).Inc()

	if _, err := p.refresh(ctx); err != nil {
		p.logger.Error("pipeline reconcile failed", "reason", reason, "error", err)
		return err
	}
	p.logger.Info("pipeline reconciled", "reason", reason)
	return nil
}

// Reconciliations reports how many times Reconcile has run.
func (p *Pipeline) Reconciliations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reconciles
}

// ChangeStage moves a lead to stage. Moving to the current stage does
// nothing. Otherwise the view changes first, one log entry is appended, and
// the stage plus the new entry are persisted. A not-found lead is returned as
// an error; any other persistence failure is absorbed by reconciling the view
// and reported through the result.
func (p *Pipeline) ChangeStage(ctx context.Context, id string, stage Stage, actor *auth.Actor) (StageChangeResult, error) {
	if !stage.Valid() {
		return StageChangeResult{}, invalidStage(stage)
	}

	current, err := p.viewLead(ctx, id)
	if err != nil {
		return StageChangeResult{}, err
	}

	p.mu.Lock()
	l, ok := p.view[id]
	if !ok {
		// dropped by a concurrent refresh
		p.putLocked(current, false)
		l = current
	}
	if l.Stage == stage {
		unchanged := l.Clone()
		p.mu.Unlock()
		return StageChangeResult{Lead: unchanged}, nil
	}
	from := l.Stage
	entry := applyStageTransition(l, stage, actor, p.now())
	optimistic := l.Clone()
	p.mu.Unlock()

	stored, err := p.store.Update(ctx, id, Changes{
		Stage:      &stage,
		AppendLogs: []LeadLog{entry},
		UpdatedAt:  entry.Timestamp,
	})
	if err != nil {
		p.logger.Warn("stage change not persisted, reconciling",
			"lead_id", id,
			"from", from,
			"to", stage,
			"error", err)

		rerr := p.Reconcile(ctx, ReconcileStageChangeFailed)
		if errors.Is(err, internal.ErrLeadNotFound) {
			if rerr != nil {
				p.dropFromView(id)
			}
			return StageChangeResult{}, internal.ErrLeadNotFound
		}
		if rerr != nil {
			p.dropFromView(id)
			return StageChangeResult{}, internal.NewInternalError("failed to change stage", errors.Join(err, rerr))
		}

		authoritative, found := p.fromView(id)
		if !found {
			return StageChangeResult{}, internal.ErrLeadNotFound
		}
		return StageChangeResult{Lead: authoritative, Reconciled: true}, nil
	}

	if stored == nil {
		stored = optimistic
	}
	p.mu.Lock()
	p.putLocked(stored.Clone(), false)
	p.mu.Unlock()

	p.stageChanged(ctx, id, from, stage, actor)
	return StageChangeResult{Lead: stored, Changed: true}, nil
}

// UpdateLead applies an explicit field update. Contact edits go to the
// client directory first. A differing stage is recorded through the same
// transition as ChangeStage; an equal stage writes nothing. Failures are
// returned to the caller and the view is left as it was.
func (p *Pipeline) UpdateLead(ctx context.Context, id string, dto UpdateLeadDTO, actor *auth.Actor) (*Lead, error) {
	if verr := validateUpdate(dto); verr != nil {
		return nil, verr
	}

	current, err := p.viewLead(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Client != nil && !dto.Client.IsEmpty() {
		if _, err := p.clients.Update(ctx, current.ClientID, *dto.Client); err != nil {
			p.logger.Error("lead update: client update failed", "lead_id", id, "client_id", current.ClientID, "error", err)
			return nil, err
		}
	}

	now := p.now()
	changes := Changes{
		Source:       dto.Source,
		Budget:       dto.Budget,
		Requirements: dto.Requirements,
		Notes:        dto.Notes,
		AssignedTo:   dto.AssignedTo,
		FollowUpDate: dto.FollowUpDate,
		UpdatedAt:    now,
	}

	var from Stage
	if dto.Stage != nil && *dto.Stage != current.Stage {
		from = current.Stage
		working := current.Clone()
		entry := applyStageTransition(working, *dto.Stage, actor, now)
		changes.Stage = dto.Stage
		changes.AppendLogs = []LeadLog{entry}
	}

	if changes.IsEmpty() {
		// contact-only edit; re-read so the hydrated client is current
		return p.GetLead(ctx, id)
	}

	stored, err := p.store.Update(ctx, id, changes)
	if err != nil {
		return nil, p.storeError("update", id, err)
	}

	p.mu.Lock()
	p.putLocked(stored.Clone(), false)
	p.mu.Unlock()

	if changes.Stage != nil {
		p.stageChanged(ctx, id, from, *changes.Stage, actor)
	}
	p.logger.Info("lead updated", "lead_id", id, "actor_id", actorID(actor))
	return stored, nil
}

// CreateLead stores a new lead. Without a client id the client is created
// first. The two writes are not atomic: if storing the lead fails the new
// client is left behind and logged.
func (p *Pipeline) CreateLead(ctx context.Context, dto CreateLeadDTO, actor *auth.Actor) (*Lead, error) {
	if dto.Stage == "" {
		dto.Stage = StageNew
	}
	if verr := validateCreate(dto); verr != nil {
		return nil, verr
	}
	return p.create(ctx, dto, actor, false)
}

// CapturePublicLead records a website enquiry. It always starts in New and
// always creates a fresh client.
func (p *Pipeline) CapturePublicLead(ctx context.Context, dto PublicLeadDTO) (*Lead, error) {
	if dto.Source == "" {
		dto.Source = SourceWebsite
	}
	contact := dto.Client
	req := CreateLeadDTO{
		Client:       &contact,
		Source:       dto.Source,
		Stage:        StageNew,
		Budget:       dto.Budget,
		Requirements: dto.Requirements,
		FollowUpDate: dto.FollowUpDate,
	}
	if verr := validateCreate(req); verr != nil {
		return nil, verr
	}
	return p.create(ctx, req, nil, true)
}

func (p *Pipeline) create(ctx context.Context, dto CreateLeadDTO, actor *auth.Actor, public bool) (*Lead, error) {
	var (
		c         *client.Client
		newClient bool
		err       error
	)
	if dto.ClientID != "" {
		c, err = p.clients.Get(ctx, dto.ClientID)
		if err != nil {
			return nil, err
		}
	} else {
		c, err = p.clients.Create(ctx, *dto.Client)
		if err != nil {
			return nil, err
		}
		newClient = true
	}

	now := p.now()
	l := &Lead{
		ID:           NewLeadID(),
		ClientID:     c.ID,
		Client:       c,
		Source:       dto.Source,
		Stage:        dto.Stage,
		Budget:       dto.Budget,
		Requirements: dto.Requirements,
		Notes:        dto.Notes,
		AssignedTo:   dto.AssignedTo,
		FollowUpDate: dto.FollowUpDate,
		CreatedAt:    now,
		UpdatedAt:    now,
		Logs:         []LeadLog{},
	}

	stored, err := p.store.Create(ctx, l)
	if err != nil {
		if newClient {
			p.logger.Warn("lead not stored after creating its client; client left orphaned",
				"client_id", c.ID,
				"error", err)
		}
		return nil, internal.NewInternalError("failed to create lead", err)
	}
	if stored.Client == nil {
		stored.Client = c
	}

	p.mu.Lock()
	p.putLocked(stored.Clone(), true)
	p.mu.Unlock()

	metrics.LeadsCreatedTotal.WithLabelValues(string(stored.Source)).Inc()
	p.publish(ctx, events.NewLeadCreatedEvent(stored.ID, stored.ClientID, string(stored.Source), public))
	p.logger.Info("lead created",
		"lead_id", stored.ID,
		"client_id", stored.ClientID,
		"source", stored.Source,
		"public", public,
		"actor_id", actorID(actor))
	return stored, nil
}

// DeleteLead removes the lead and its log for good.
func (p *Pipeline) DeleteLead(ctx context.Context, id string, actor *auth.Actor) error {
	if err := p.store.Delete(ctx, id); err != nil {
		return p.storeError("delete", id, err)
	}
	p.dropFromView(id)

	p.publish(ctx, events.NewLeadDeletedEvent(id, actorID(actor)))
	p.logger.Info("lead deleted", "lead_id", id, "actor_id", actorID(actor))
	return nil
}

// PendingFollowUps recomputes, from the store, the leads whose follow-up is
// due and whose stage is still open.
func (p *Pipeline) PendingFollowUps(ctx context.Context) ([]*Lead, error) {
	leads, err := p.refresh(ctx)
	if err != nil {
		return nil, err
	}
	due := pendingAt(leads, p.now())
	metrics.PendingFollowUps.Set(float64(len(due)))
	return due, nil
}

func (p *Pipeline) Stats(ctx context.Context) (Stats, error) {
	leads, err := p.refresh(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalLeads: len(leads)}
	for _, l := range leads {
		if l.Stage.Won() {
			stats.ConvertedLeads++
		}
	}
	stats.PendingFollowUps = len(pendingAt(leads, p.now()))
	return stats, nil
}

func pendingAt(leads []*Lead, now time.Time) []*Lead {
	due := make([]*Lead, 0)
	for _, l := range leads {
		if l.FollowUpDue(now) {
			due = append(due, l)
		}
	}
	return due
}

func (p *Pipeline) refresh(ctx context.Context) ([]*Lead, error) {
	leads, err := p.store.List(ctx)
	if err != nil {
		p.logger.Error("failed to list leads", "error", err)
		return nil, internal.NewInternalError("failed to list leads", err)
	}

	view := make(map[string]*Lead, len(leads))
	order := make([]string, 0, len(leads))
	for _, l := range leads {
		view[l.ID] = l.Clone()
		order = append(order, l.ID)
	}

	p.mu.Lock()
	p.view = view
	p.order = order
	p.mu.Unlock()
	return leads, nil
}

// viewLead returns a copy of the lead from the view, loading it from the
// store when the view has not seen it yet.
func (p *Pipeline) viewLead(ctx context.Context, id string) (*Lead, error) {
	if l, ok := p.fromView(id); ok {
		return l, nil
	}
	return p.GetLead(ctx, id)
}

func (p *Pipeline) fromView(id string) (*Lead, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.view[id]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

// putLocked stores l in the view. New leads go to the front when front is set,
// otherwise to the back.
func (p *Pipeline) putLocked(l *Lead, front bool) {
	if _, exists := p.view[l.ID]; !exists {
		if front {
			p.order = append([]string{l.ID}, p.order...)
		} else {
			p.order = append(p.order, l.ID)
		}
	}
	p.view[l.ID] = l
}

func (p *Pipeline) dropFromView(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.view[id]; !ok {
		return
	}
	delete(p.view, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Pipeline) stageChanged(ctx context.Context, id string, from, to Stage, actor *auth.Actor) {
	metrics.StageTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	p.publish(ctx, events.NewLeadStageChangedEvent(id, string(from), string(to), actorID(actor)))
	p.logger.Info("lead stage changed",
		"lead_id", id,
		"from", from,
		"to", to,
		"actor_id", actorID(actor))
}

func (p *Pipeline) publish(ctx context.Context, e events.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, e); err != nil {
		p.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

func (p *Pipeline) storeError(op, id string, err error) error {
	if errors.Is(err, internal.ErrLeadNotFound) {
		return internal.ErrLeadNotFound
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	p.logger.Error("lead store failed", "op", op, "lead_id", id, "error", err)
	return internal.NewInternalError(fmt.Sprintf("failed to %s lead", op), err)
}

func actorID(a *auth.Actor) string {
	if a == nil {
		return SystemActorID
	}
	return a.ID
}

func invalidStage(s Stage) *internal.AppError {
	return internal.NewValidationFieldError("stage", fmt.Sprintf("unknown stage %q", s), internal.ErrCodeInvalidStage)
}

func stageNames() []string {
	out := make([]string, len(Stages))
	for i, s := range Stages {
		out[i] = string(s)
	}
	return out
}

func sourceNames() []string {
	out := make([]string, len(Sources))
	for i, s := range Sources {
		out[i] = string(s)
	}
	return out
}

func validateCreate(dto CreateLeadDTO) *internal.AppError {
	v := validation.NewValidator()
	v.Field("source", string(dto.Source)).Required().OneOf(sourceNames(), internal.ErrCodeInvalidSource)
	v.Field("stage", string(dto.Stage)).OneOf(stageNames(), internal.ErrCodeInvalidStage)
	if dto.ClientID == "" && dto.Client == nil {
		v.Field("client", nil).Custom(func(interface{}) *internal.AppError {
			return internal.NewValidationFieldError("client", "client_id or client is required", internal.ErrCodeClientRequired)
		})
	}
	return validation.Merge(validation.Struct(dto), v.Validate())
}

func validateUpdate(dto UpdateLeadDTO) *internal.AppError {
	v := validation.NewValidator()
	if dto.Source != nil {
		v.Field("source", string(*dto.Source)).Required().OneOf(sourceNames(), internal.ErrCodeInvalidSource)
	}
	if dto.Stage != nil {
		v.Field("stage", string(*dto.Stage)).Required().OneOf(stageNames(), internal.ErrCodeInvalidStage)
	}
	return validation.Merge(validation.Struct(dto), v.Validate())
}
