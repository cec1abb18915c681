package lead_test

import (
	"context"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/lead"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DragSession", func() {
	var (
		ctx      context.Context
		store    *memStore
		pipeline *lead.Pipeline
		session  *lead.DragSession
		admin    *auth.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		admin = &auth.Actor{ID: "1", Name: "Alex Admin", Role: auth.RoleAdmin}
		c := &client.Client{ID: "client-1", Name: "Sarah Jenkins"}
		store = newMemStore(
			&lead.Lead{ID: "lead-1", ClientID: c.ID, Client: c, Source: lead.SourceWebsite, Stage: lead.StageNew, CreatedAt: time.Now()},
			&lead.Lead{ID: "lead-2", ClientID: c.ID, Client: c, Source: lead.SourceAds, Stage: lead.StageNew, CreatedAt: time.Now()},
		)
		pipeline = lead.NewPipeline(store, newMemClients(c), discardLogger())
		session = lead.NewDragSession(pipeline)
	})

	It("changes the stage when the drop reports the armed card", func() {
		session.Arm("lead-1")
		Expect(session.Armed()).To(Equal("lead-1"))

		res, honoured, err := session.Drop(ctx, "lead-1", lead.StageMeetingScheduled, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(honoured).To(BeTrue())
		Expect(res.Changed).To(BeTrue())
		Expect(store.stored("lead-1").Stage).To(Equal(lead.StageMeetingScheduled))
		Expect(session.Armed()).To(BeEmpty())
	})

	It("ignores a drop for a different card", func() {
		session.Arm("lead-1")

		_, honoured, err := session.Drop(ctx, "lead-2", lead.StageLost, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(honoured).To(BeFalse())
		Expect(store.updates).To(BeZero())
		Expect(store.stored("lead-2").Stage).To(Equal(lead.StageNew))
		Expect(session.Armed()).To(BeEmpty())
	})

	It("ignores a drop when nothing is armed", func() {
		_, honoured, err := session.Drop(ctx, "lead-1", lead.StageLost, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(honoured).To(BeFalse())
		Expect(store.updates).To(BeZero())
	})

	It("ignores an empty reported id", func() {
		session.Arm("lead-1")
		_, honoured, _ := session.Drop(ctx, "", lead.StageLost, admin)
		Expect(honoured).To(BeFalse())
		Expect(store.updates).To(BeZero())
	})

	It("does not log a drop on the current column", func() {
		session.Arm("lead-1")
		res, honoured, err := session.Drop(ctx, "lead-1", lead.StageNew, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(honoured).To(BeTrue())
		Expect(res.Changed).To(BeFalse())
		Expect(store.stored("lead-1").Logs).To(BeEmpty())
	})

	It("keeps one session per actor", func() {
		registry := lead.NewDragRegistry(pipeline)
		other := &auth.Actor{ID: "2", Role: auth.RoleManager}

		registry.For(admin).Arm("lead-1")
		Expect(registry.For(other).Armed()).To(BeEmpty())
		Expect(registry.For(admin).Armed()).To(Equal("lead-1"))
		Expect(registry.For(nil)).To(BeIdenticalTo(registry.For(nil)))
	})
})
