package lead_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/a1media/agency-dashboard/internal/lead"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		now       time.Time
		store     *memStore
		clients   *memClients
		publisher *recordingPublisher
		pipeline  *lead.Pipeline
		manager   *auth.Actor
	)

	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
		manager = &auth.Actor{ID: "2", Name: "Sarah Manager", Role: auth.RoleManager}

		sarah := &client.Client{ID: "client-1", Name: "Sarah Jenkins", Company: "TechStart", Email: "sarah.j@techstart.io"}
		michael := &client.Client{ID: "client-2", Name: "Michael Chang", Company: "Design Co"}
		clients = newMemClients(sarah, michael)

		store = newMemStore(
			&lead.Lead{ID: "lead-1", ClientID: "client-1", Client: sarah, Source: lead.SourceWebsite, Stage: lead.StageNew,
				Budget: "$5,000 - $10,000", AssignedTo: "2", FollowUpDate: at(24 * time.Hour), CreatedAt: now.Add(-48 * time.Hour)},
			&lead.Lead{ID: "lead-2", ClientID: "client-2", Client: michael, Source: lead.SourceInstagram, Stage: lead.StageContacted,
				Budget: "$2,000", AssignedTo: "3", FollowUpDate: at(0), CreatedAt: now.Add(-72 * time.Hour)},
		)
		publisher = &recordingPublisher{}
		pipeline = lead.NewPipeline(store, clients, discardLogger(),
			lead.WithClock(func() time.Time { return now }),
			lead.WithPublisher(publisher))
	})

	Describe("ListLeads", func() {
		It("returns hydrated leads and replaces the view", func() {
			leads, err := pipeline.ListLeads(ctx, lead.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(leads).To(HaveLen(2))
			Expect(leads[0].ID).To(Equal("lead-1"))
			Expect(leads[0].Client.Name).To(Equal("Sarah Jenkins"))
			Expect(pipeline.Leads()).To(HaveLen(2))
		})

		It("filters by stage and search text", func() {
			leads, err := pipeline.ListLeads(ctx, lead.ListFilter{Search: "design"})
			Expect(err).NotTo(HaveOccurred())
			Expect(leads).To(HaveLen(1))
			Expect(leads[0].ID).To(Equal("lead-2"))

			leads, err = pipeline.ListLeads(ctx, lead.ListFilter{Stage: lead.StageNew})
			Expect(err).NotTo(HaveOccurred())
			Expect(leads).To(HaveLen(1))
			Expect(leads[0].ID).To(Equal("lead-1"))
		})
	})

	Describe("ChangeStage", func() {
		BeforeEach(func() {
			_, err := pipeline.ListLeads(ctx, lead.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("logs each real transition exactly once", func() {
			res, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changed).To(BeTrue())
			Expect(res.Lead.Stage).To(Equal(lead.StageContacted))
			Expect(res.Lead.Logs).To(HaveLen(1))
			entry := res.Lead.Logs[0]
			Expect(entry.PreviousStage).To(Equal(lead.StageNew))
			Expect(entry.NewStage).To(Equal(lead.StageContacted))
			Expect(entry.Action).To(Equal(lead.ActionStageChanged))
			Expect(entry.ActorID).To(Equal("2"))
			Expect(entry.ActorName).To(Equal("Sarah Manager"))
			Expect(entry.Timestamp).To(Equal(now))

			res, err = pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changed).To(BeFalse())
			Expect(res.Lead.Logs).To(HaveLen(1))
			Expect(store.updates).To(Equal(1))

			res, err = pipeline.ChangeStage(ctx, "lead-1", lead.StageLost, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Lead.Stage).To(Equal(lead.StageLost))
			Expect(res.Lead.Logs).To(HaveLen(2))

			persisted := store.stored("lead-1")
			Expect(persisted.Stage).To(Equal(lead.StageLost))
			Expect(persisted.Logs).To(HaveLen(2))
			Expect(persisted.LogsNewestFirst()[0].NewStage).To(Equal(lead.StageLost))
		})

		It("records the system actor when nobody is signed in", func() {
			res, err := pipeline.ChangeStage(ctx, "lead-2", lead.StageMeetingScheduled, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Lead.Logs[0].ActorID).To(Equal(lead.SystemActorID))
			Expect(res.Lead.Logs[0].ActorName).To(Equal(lead.SystemActorName))
		})

		It("reconciles from the store when persisting fails", func() {
			store.updateErr = errStoreDown

			res, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageProposalSent, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changed).To(BeFalse())
			Expect(res.Reconciled).To(BeTrue())
			Expect(res.Lead.Stage).To(Equal(lead.StageNew))
			Expect(pipeline.Reconciliations()).To(Equal(1))

			for _, l := range pipeline.Leads() {
				if l.ID == "lead-1" {
					Expect(l.Stage).To(Equal(lead.StageNew))
					Expect(l.Logs).To(BeEmpty())
				}
			}

			leads, err := pipeline.ListLeads(ctx, lead.ListFilter{Stage: lead.StageNew})
			Expect(err).NotTo(HaveOccurred())
			Expect(leads).To(HaveLen(1))
			Expect(leads[0].Logs).To(BeEmpty())
		})

		It("surfaces a failed reconcile as an error", func() {
			store.updateErr = errStoreDown
			store.listErr = errStoreDown

			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageProposalSent, manager)
			Expect(err).To(HaveOccurred())
			Expect(pipeline.Reconciliations()).To(Equal(1))
		})

		It("fails hard on an unknown lead", func() {
			_, err := pipeline.ChangeStage(ctx, "lead-404", lead.StageContacted, manager)
			Expect(errors.Is(err, internal.ErrLeadNotFound)).To(BeTrue())
			Expect(store.updates).To(BeZero())
		})

		It("reports a lead deleted underneath the view as not found", func() {
			Expect(store.Delete(ctx, "lead-1")).To(Succeed())

			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(errors.Is(err, internal.ErrLeadNotFound)).To(BeTrue())
			Expect(pipeline.Leads()).To(HaveLen(1))
		})

		It("still reports not found when the reconcile after it fails", func() {
			Expect(store.Delete(ctx, "lead-1")).To(Succeed())
			store.listErr = errStoreDown

			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(errors.Is(err, internal.ErrLeadNotFound)).To(BeTrue())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeNotFound))
			Expect(pipeline.Reconciliations()).To(Equal(1))
			for _, l := range pipeline.Leads() {
				Expect(l.ID).NotTo(Equal("lead-1"))
			}
		})

		It("rejects unknown stages", func() {
			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.Stage("Negotiating"), manager)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("works before any list has been fetched", func() {
			fresh := lead.NewPipeline(store, clients, discardLogger())
			res, err := fresh.ChangeStage(ctx, "lead-2", lead.StageProposalSent, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changed).To(BeTrue())
		})

		It("publishes the transition", func() {
			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(ContainElement(events.EventTypeLeadStageChanged))
		})
	})

	Describe("UpdateLead", func() {
		str := func(s string) *string { return &s }
		stage := func(s lead.Stage) *lead.Stage { return &s }

		It("logs a stage change made through the edit form", func() {
			l, err := pipeline.UpdateLead(ctx, "lead-1", lead.UpdateLeadDTO{Stage: stage(lead.StageContacted), Notes: str("call after 3pm")}, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Stage).To(Equal(lead.StageContacted))
			Expect(l.Notes).To(Equal("call after 3pm"))
			Expect(l.Logs).To(HaveLen(1))
		})

		It("never double-logs a transition already made by ChangeStage", func() {
			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageContacted, manager)
			Expect(err).NotTo(HaveOccurred())

			l, err := pipeline.UpdateLead(ctx, "lead-1", lead.UpdateLeadDTO{Stage: stage(lead.StageContacted), Budget: str("$12,000")}, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Logs).To(HaveLen(1))
			Expect(l.Budget).To(Equal("$12,000"))
		})

		It("sends contact edits to the client directory", func() {
			phone := "+1 555-0000"
			l, err := pipeline.UpdateLead(ctx, "lead-1", lead.UpdateLeadDTO{Client: &client.UpdateClientDTO{Phone: &phone}}, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(Equal("lead-1"))

			c, err := clients.Get(ctx, "client-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Phone).To(Equal(phone))
			Expect(store.updates).To(BeZero())
		})

		It("rejects an unknown source", func() {
			src := lead.Source("Billboard")
			_, err := pipeline.UpdateLead(ctx, "lead-1", lead.UpdateLeadDTO{Source: &src}, manager)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("returns store failures without touching the view", func() {
			_, err := pipeline.ListLeads(ctx, lead.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			store.updateErr = errStoreDown

			_, err = pipeline.UpdateLead(ctx, "lead-1", lead.UpdateLeadDTO{Stage: stage(lead.StageConverted)}, manager)
			Expect(err).To(HaveOccurred())
			Expect(pipeline.Reconciliations()).To(BeZero())
			for _, l := range pipeline.Leads() {
				if l.ID == "lead-1" {
					Expect(l.Stage).To(Equal(lead.StageNew))
				}
			}
		})
	})

	Describe("CreateLead", func() {
		It("creates the client first when none is referenced", func() {
			l, err := pipeline.CreateLead(ctx, lead.CreateLeadDTO{
				Client: &client.CreateClientDTO{Name: "Emma Watson", Company: "Bloom Floral"},
				Source: lead.SourceReferral,
				Budget: "$15,000",
			}, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(HavePrefix("lead-"))
			Expect(l.Stage).To(Equal(lead.StageNew))
			Expect(l.Logs).To(BeEmpty())
			Expect(clients.created).To(ConsistOf(l.ClientID))
			Expect(l.CreatedAt).To(Equal(now))
			Expect(publisher.types()).To(ContainElement(events.EventTypeLeadCreated))
		})

		It("uses an existing client by id", func() {
			l, err := pipeline.CreateLead(ctx, lead.CreateLeadDTO{ClientID: "client-2", Source: lead.SourceAds, Stage: lead.StageContacted}, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ClientID).To(Equal("client-2"))
			Expect(l.Stage).To(Equal(lead.StageContacted))
			Expect(clients.created).To(BeEmpty())
		})

		It("requires a client reference or contact details", func() {
			_, err := pipeline.CreateLead(ctx, lead.CreateLeadDTO{Source: lead.SourceAds}, manager)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("reports an unknown client id", func() {
			_, err := pipeline.CreateLead(ctx, lead.CreateLeadDTO{ClientID: "client-9", Source: lead.SourceAds}, manager)
			Expect(errors.Is(err, internal.ErrClientNotFound)).To(BeTrue())
		})

		It("leaves the new client behind when the lead cannot be stored", func() {
			store.createErr = errStoreDown
			_, err := pipeline.CreateLead(ctx, lead.CreateLeadDTO{
				Client: &client.CreateClientDTO{Name: "Orphan Co"},
				Source: lead.SourceDirectCall,
			}, manager)
			Expect(err).To(HaveOccurred())
			Expect(clients.created).To(HaveLen(1))
		})
	})

	Describe("CapturePublicLead", func() {
		It("always starts in New with a fresh client", func() {
			l, err := pipeline.CapturePublicLead(ctx, lead.PublicLeadDTO{
				Client:       client.CreateClientDTO{Name: "Web Visitor", Email: "visitor@example.com"},
				Requirements: "Wedding shoot",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Stage).To(Equal(lead.StageNew))
			Expect(l.Source).To(Equal(lead.SourceWebsite))
			Expect(clients.created).To(HaveLen(1))
			Expect(pipeline.Leads()[0].ID).To(Equal(l.ID))
		})

		It("validates the contact", func() {
			_, err := pipeline.CapturePublicLead(ctx, lead.PublicLeadDTO{Client: client.CreateClientDTO{Email: "bad"}})
			Expect(err).To(HaveOccurred())
			Expect(clients.created).To(BeEmpty())
		})
	})

	Describe("DeleteLead", func() {
		It("removes the lead for good", func() {
			Expect(pipeline.DeleteLead(ctx, "lead-2", manager)).To(Succeed())
			_, err := store.Get(ctx, "lead-2")
			Expect(errors.Is(err, internal.ErrLeadNotFound)).To(BeTrue())
		})

		It("fails on an unknown lead", func() {
			err := pipeline.DeleteLead(ctx, "lead-404", manager)
			Expect(errors.Is(err, internal.ErrLeadNotFound)).To(BeTrue())
		})
	})

	Describe("PendingFollowUps", func() {
		BeforeEach(func() {
			for _, l := range []*lead.Lead{
				{ID: "lead-lost", ClientID: "client-1", Source: lead.SourceAds, Stage: lead.StageLost, FollowUpDate: at(-time.Hour)},
				{ID: "lead-done", ClientID: "client-1", Source: lead.SourceAds, Stage: lead.StageCompleted, FollowUpDate: at(-time.Hour)},
				{ID: "lead-none", ClientID: "client-1", Source: lead.SourceAds, Stage: lead.StageNew},
				{ID: "lead-late", ClientID: "client-1", Source: lead.SourceAds, Stage: lead.StageProposalSent, FollowUpDate: at(-96 * time.Hour)},
			} {
				_, err := store.Create(ctx, l)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns only open leads due at or before now", func() {
			due, err := pipeline.PendingFollowUps(ctx)
			Expect(err).NotTo(HaveOccurred())
			ids := []string{}
			for _, l := range due {
				ids = append(ids, l.ID)
				Expect(l.Stage.Closed()).To(BeFalse())
				Expect(l.FollowUpDate.After(now)).To(BeFalse())
			}
			Expect(ids).To(ConsistOf("lead-2", "lead-late"))
		})

		It("recomputes on every call", func() {
			_, err := pipeline.PendingFollowUps(ctx)
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(25 * time.Hour)
			due, err := pipeline.PendingFollowUps(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(3))
			Expect(store.lists).To(Equal(2))
		})
	})

	Describe("Stats", func() {
		It("counts converted and completed as won", func() {
			_, err := pipeline.ChangeStage(ctx, "lead-1", lead.StageConverted, manager)
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Create(ctx, &lead.Lead{ID: "lead-3", ClientID: "client-1", Source: lead.SourceReferral, Stage: lead.StageCompleted})
			Expect(err).NotTo(HaveOccurred())

			stats, err := pipeline.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(lead.Stats{TotalLeads: 3, ConvertedLeads: 2, PendingFollowUps: 1}))
		})
	})
})
