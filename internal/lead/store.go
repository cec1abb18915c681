package lead

import (
	"context"
	"time"

	"github.com/a1media/agency-dashboard/internal/client"
)

// Store persists leads. Every method returns internal.ErrLeadNotFound for an
// unknown id.
type Store interface {
	// List returns every lead with its client and logs hydrated, newest first.
	List(ctx context.Context) ([]*Lead, error)
	Get(ctx context.Context, id string) (*Lead, error)
	Create(ctx context.Context, l *Lead) (*Lead, error)
	// Update applies changes and appends AppendLogs in one unit and returns
	// the stored lead.
	Update(ctx context.Context, id string, changes Changes) (*Lead, error)
	Delete(ctx context.Context, id string) error
}

// Changes is the explicit set of lead fields an update may write.
type Changes struct {
	Source       *Source
	Stage        *Stage
	Budget       *string
	Requirements *string
	Notes        *string
	AssignedTo   *string
	FollowUpDate *time.Time
	AppendLogs   []LeadLog
	UpdatedAt    time.Time
}

func (c Changes) IsEmpty() bool {
	return c.Source == nil && c.Stage == nil && c.Budget == nil &&
		c.Requirements == nil && c.Notes == nil && c.AssignedTo == nil &&
		c.FollowUpDate == nil && len(c.AppendLogs) == 0
}

// ClientDirectory is the client collaborator a lead refers to.
type ClientDirectory interface {
	Get(ctx context.Context, id string) (*client.Client, error)
	Create(ctx context.Context, dto client.CreateClientDTO) (*client.Client, error)
	Update(ctx context.Context, id string, dto client.UpdateClientDTO) (*client.Client, error)
}
