package lead

import (
	"strings"
	"time"

	"github.com/a1media/agency-dashboard/internal/client"
)

// CreateLeadDTO either references an existing client by id or carries the
// contact details for a new one.
type CreateLeadDTO struct {
	ClientID     string                  `json:"client_id" validate:"max=64"`
	Client       *client.CreateClientDTO `json:"client"`
	Source       Source                  `json:"source" validate:"required"`
	Stage        Stage                   `json:"stage"`
	Budget       string                  `json:"budget" validate:"max=100"`
	Requirements string                  `json:"requirements" validate:"max=4000"`
	Notes        string                  `json:"notes" validate:"max=4000"`
	AssignedTo   string                  `json:"assigned_to" validate:"max=64"`
	FollowUpDate *time.Time              `json:"follow_up_date"`
}

// UpdateLeadDTO lists every field an edit may touch; absent fields are left alone.
// Client carries contact edits, which are applied to the referenced client.
type UpdateLeadDTO struct {
	Source       *Source                 `json:"source"`
	Stage        *Stage                  `json:"stage"`
	Budget       *string                 `json:"budget" validate:"omitempty,max=100"`
	Requirements *string                 `json:"requirements" validate:"omitempty,max=4000"`
	Notes        *string                 `json:"notes" validate:"omitempty,max=4000"`
	AssignedTo   *string                 `json:"assigned_to" validate:"omitempty,max=64"`
	FollowUpDate *time.Time              `json:"follow_up_date"`
	Client       *client.UpdateClientDTO `json:"client"`
}

// PublicLeadDTO is what the website enquiry form submits.
type PublicLeadDTO struct {
	Client       client.CreateClientDTO `json:"client"`
	Source       Source                 `json:"source"`
	Budget       string                 `json:"budget" validate:"max=100"`
	Requirements string                 `json:"requirements" validate:"max=4000"`
	FollowUpDate *time.Time             `json:"follow_up_date"`
}

type StageChangeDTO struct {
	Stage Stage `json:"stage" validate:"required"`
}

// DropDTO reports a card dropped on a board column.
type DropDTO struct {
	LeadID string `json:"lead_id" validate:"required"`
	Stage  Stage  `json:"stage" validate:"required"`
}

type ListFilter struct {
	Stage      Stage
	Source     Source
	AssignedTo string
	Search     string
}

// Matches applies the list view filters. Search looks at the client's name,
// company and email.
func (f ListFilter) Matches(l *Lead) bool {
	if f.Stage != "" && l.Stage != f.Stage {
		return false
	}
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.AssignedTo != "" && l.AssignedTo != f.AssignedTo {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if l.Client == nil {
			return false
		}
		hay := strings.ToLower(l.Client.Name + " " + l.Client.Company + " " + l.Client.Email)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// StageChangeResult describes what a stage change did. Reconciled is set
// when persisting failed and the view was refetched instead.
type StageChangeResult struct {
	Lead       *Lead `json:"lead"`
	Changed    bool  `json:"changed"`
	Reconciled bool  `json:"reconciled"`
}

type DropResult struct {
	Honoured bool `json:"honoured"`
	StageChangeResult
}

type LeadsResponse struct {
	Leads []*Lead `json:"leads"`
	Total int     `json:"total"`
}

type BoardColumn struct {
	Stage Stage   `json:"stage"`
	Leads []*Lead `json:"leads"`
}

type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
}

type Stats struct {
	TotalLeads       int `json:"total_leads"`
	ConvertedLeads   int `json:"converted_leads"`
	PendingFollowUps int `json:"pending_follow_ups"`
}

// GroupByStage builds one column per stage in pipeline order, keeping the
// input order inside each column.
func GroupByStage(leads []*Lead) BoardResponse {
	byStage := make(map[Stage][]*Lead, len(Stages))
	for _, l := range leads {
		byStage[l.Stage] = append(byStage[l.Stage], l)
	}
	board := BoardResponse{Columns: make([]BoardColumn, 0, len(Stages))}
	for _, s := range Stages {
		col := byStage[s]
		if col == nil {
			col = []*Lead{}
		}
		board.Columns = append(board.Columns, BoardColumn{Stage: s, Leads: col})
	}
	return board
}
