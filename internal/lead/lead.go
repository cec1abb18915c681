package lead

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	leadDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/lead"
	"github.com/google/uuid"
)

type Stage string

const (
	StageNew              Stage = "New"
	StageContacted        Stage = "Contacted"
	StageMeetingScheduled Stage = "Meeting Scheduled"
	StageProposalSent     Stage = "Proposal Sent"
	StageConverted        Stage = "Converted"
	StageCompleted        Stage = "Completed"
	StageLost             Stage = "Lost"
)

// Stages lists the board columns in pipeline order. Lost is terminal and sits last.
var Stages = []Stage{
	StageNew,
	StageContacted,
	StageMeetingScheduled,
	StageProposalSent,
	StageConverted,
	StageCompleted,
	StageLost,
}

func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Closed stages never need a follow-up.
func (s Stage) Closed() bool {
	return s == StageCompleted || s == StageLost
}

func (s Stage) Won() bool {
	return s == StageConverted || s == StageCompleted
}

func ParseStage(v string) (Stage, error) {
	for _, known := range Stages {
		if strings.EqualFold(string(known), strings.TrimSpace(v)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", v)
}

type Source string

const (
	SourceInstagram  Source = "Instagram"
	SourceWebsite    Source = "Website"
	SourceReferral   Source = "Referral"
	SourceAds        Source = "Ads"
	SourceDirectCall Source = "Direct Call"
)

var Sources = []Source{
	SourceInstagram,
	SourceWebsite,
	SourceReferral,
	SourceAds,
	SourceDirectCall,
}

func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

func ParseSource(v string) (Source, error) {
	for _, known := range Sources {
		if strings.EqualFold(string(known), strings.TrimSpace(v)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", v)
}

const (
	ActionStageChanged = "Stage Changed"

	// written on log entries when no signed-in actor is available
	SystemActorID   = "sys"
	SystemActorName = "System"
)

type Lead struct {
	ID           string         `json:"id"`
	ClientID     string         `json:"client_id"`
	Client       *client.Client `json:"client,omitempty"`
	Source       Source         `json:"source"`
	Stage        Stage          `json:"stage"`
	Budget       string         `json:"budget"`
	Requirements string         `json:"requirements"`
	Notes        string         `json:"notes"`
	AssignedTo   string         `json:"assigned_to"`
	FollowUpDate *time.Time     `json:"follow_up_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Logs         []LeadLog      `json:"logs"`
}

// LeadLog records one stage transition. Entries are append-only.
type LeadLog struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	PreviousStage Stage     `json:"previous_stage,omitempty"`
	NewStage      Stage     `json:"new_stage,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLeadID() string {
	return "lead-" + uuid.NewString()
}

func newLogID() string {
	return "log-" + uuid.NewString()
}

// FollowUpDue reports whether the lead should show up as a pending follow-up at now.
func (l *Lead) FollowUpDue(now time.Time) bool {
	return l.FollowUpDate != nil && !l.FollowUpDate.After(now) && !l.Stage.Closed()
}

// LogsNewestFirst returns the log for display, most recent entry first.
func (l *Lead) LogsNewestFirst() []LeadLog {
	out := make([]LeadLog, len(l.Logs))
	for i, entry := range l.Logs {
		out[len(l.Logs)-1-i] = entry
	}
	return out
}

// ClientName is the display name used on board cards.
func (l *Lead) ClientName() string {
	if l.Client == nil {
		return ""
	}
	return l.Client.Name
}

// Clone copies the lead deeply enough that edits to the copy never reach the original.
func (l *Lead) Clone() *Lead {
	cp := *l
	if l.Client != nil {
		c := *l.Client
		cp.Client = &c
	}
	if l.FollowUpDate != nil {
		t := *l.FollowUpDate
		cp.FollowUpDate = &t
	}
	cp.Logs = append([]LeadLog(nil), l.Logs...)
	if cp.Logs == nil {
		cp.Logs = []LeadLog{}
	}
	return &cp
}

// applyStageTransition is the only place a stage change is recorded. It moves
// the lead to stage and appends exactly one log entry, returning it. Callers
// must have checked that stage differs from the current one.
func applyStageTransition(l *Lead, stage Stage, actor *auth.Actor, now time.Time) LeadLog {
	entry := LeadLog{
		ID:            newLogID(),
		Action:        ActionStageChanged,
		PreviousStage: l.Stage,
		NewStage:      stage,
		ActorID:       SystemActorID,
		ActorName:     SystemActorName,
		Timestamp:     now,
	}
	if actor != nil {
		entry.ActorID = actor.ID
		entry.ActorName = actor.Name
	}

	l.Stage = stage
	l.Logs = append(l.Logs, entry)
	l.UpdatedAt = now
	return entry
}

func ToDataModel(l *Lead) *leadDatamodel.Lead {
	row := &leadDatamodel.Lead{
		ID:           l.ID,
		ClientID:     l.ClientID,
		Source:       string(l.Source),
		Stage:        string(l.Stage),
		Budget:       l.Budget,
		Requirements: l.Requirements,
		Notes:        l.Notes,
		AssignedTo:   l.AssignedTo,
		FollowUpDate: l.FollowUpDate,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	for i, entry := range l.Logs {
		row.Logs = append(row.Logs, LogToDataModel(l.ID, i+1, entry))
	}
	return row
}

func LogToDataModel(leadID string, seq int, entry LeadLog) leadDatamodel.LeadLog {
	return leadDatamodel.LeadLog{
		ID:            entry.ID,
		LeadID:        leadID,
		Seq:           seq,
		Action:        entry.Action,
		PreviousStage: string(entry.PreviousStage),
		NewStage:      string(entry.NewStage),
		ActorID:       entry.ActorID,
		ActorName:     entry.ActorName,
		Timestamp:     entry.Timestamp,
	}
}

// FromDataModel hydrates a lead, including its client when it was preloaded.
// Logs come back in append order regardless of row order.
func FromDataModel(row *leadDatamodel.Lead) *Lead {
	l := &Lead{
		ID:           row.ID,
		ClientID:     row.ClientID,
		Source:       Source(row.Source),
		Stage:        Stage(row.Stage),
		Budget:       row.Budget,
		Requirements: row.Requirements,
		Notes:        row.Notes,
		AssignedTo:   row.AssignedTo,
		FollowUpDate: row.FollowUpDate,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		Logs:         make([]LeadLog, 0, len(row.Logs)),
	}
	if row.Client != nil && row.Client.ID != "" {
		l.Client = client.FromDataModel(row.Client)
	}

	logs := append([]leadDatamodel.LeadLog(nil), row.Logs...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Seq < logs[j].Seq })
	for _, entry := range logs {
		l.Logs = append(l.Logs, LeadLog{
			ID:            entry.ID,
			Action:        entry.Action,
			PreviousStage: Stage(entry.PreviousStage),
			NewStage:      Stage(entry.NewStage),
			ActorID:       entry.ActorID,
			ActorName:     entry.ActorName,
			Timestamp:     entry.Timestamp,
		})
	}
	return l
}
