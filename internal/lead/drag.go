package lead

import (
	"context"
	"sync"

	"github.com/a1media/agency-dashboard/internal/auth"
)

// StageChanger is the part of the pipeline a board drop needs.
type StageChanger interface {
	ChangeStage(ctx context.Context, id string, stage Stage, actor *auth.Actor) (StageChangeResult, error)
}

// DragSession tracks the single card an actor is dragging. A drop is only
// honoured when it reports the armed id; the armed id is cleared after every
// drop either way.
type DragSession struct {
	mu      sync.Mutex
	armed   string
	changer StageChanger
}

func NewDragSession(changer StageChanger) *DragSession {
	return &DragSession{changer: changer}
}

// Arm marks leadID as the card being dragged, replacing any earlier one.
func (d *DragSession) Arm(leadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = leadID
}

func (d *DragSession) Armed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Drop completes a drag onto stage. It reports false, with no side effect,
// when reportedID is empty or differs from the armed id.
func (d *DragSession) Drop(ctx context.Context, reportedID string, stage Stage, actor *auth.Actor) (StageChangeResult, bool, error) {
	d.mu.Lock()
	armed := d.armed
	d.armed = ""
	d.mu.Unlock()

	if reportedID == "" || reportedID != armed {
		return StageChangeResult{}, false, nil
	}

	res, err := d.changer.ChangeStage(ctx, reportedID, stage, actor)
	return res, true, err
}

// DragRegistry keeps one drag session per actor.
type DragRegistry struct {
	mu       sync.Mutex
	sessions map[string]*DragSession
	changer  StageChanger
}

func NewDragRegistry(changer StageChanger) *DragRegistry {
	return &DragRegistry{
		sessions: make(map[string]*DragSession),
		changer:  changer,
	}
}

func (r *DragRegistry) For(actor *auth.Actor) *DragSession {
	key := actorID(actor)

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		s = NewDragSession(r.changer)
		r.sessions[key] = s
	}
	return s
}
