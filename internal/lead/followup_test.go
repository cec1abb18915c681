package lead_test

import (
	"context"
	"errors"
	"time"

	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/a1media/agency-dashboard/internal/lead"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/robfig/cron/v3"
)

type stubFollowUps struct {
	leads []*lead.Lead
	err   error
}

func (s stubFollowUps) PendingFollowUps(context.Context) ([]*lead.Lead, error) {
	return s.leads, s.err
}

var _ = Describe("FollowUpNotifier", func() {
	var (
		ctx       context.Context
		publisher *recordingPublisher
		due       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		publisher = &recordingPublisher{}
		due = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	})

	It("publishes one event per pending lead", func() {
		source := stubFollowUps{leads: []*lead.Lead{
			{ID: "lead-2", Client: &client.Client{Name: "Michael Chang"}, AssignedTo: "3", Stage: lead.StageContacted, FollowUpDate: &due},
			{ID: "lead-9", Stage: lead.StageNew, FollowUpDate: &due},
		}}
		n := lead.NewFollowUpNotifier(source, publisher, discardLogger(), time.Second)

		sent, err := n.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sent).To(Equal(2))
		Expect(publisher.types()).To(Equal([]string{events.EventTypeFollowUpDue, events.EventTypeFollowUpDue}))

		first, ok := publisher.events[0].(*events.FollowUpDueEvent)
		Expect(ok).To(BeTrue())
		Expect(first.LeadID).To(Equal("lead-2"))
		Expect(first.ClientName).To(Equal("Michael Chang"))
		Expect(first.Stage).To(Equal("Contacted"))
		Expect(first.FollowUpDate).To(Equal(due))
	})

	It("returns the scan error", func() {
		n := lead.NewFollowUpNotifier(stubFollowUps{err: errors.New("down")}, publisher, discardLogger(), 0)
		_, err := n.Run(ctx)
		Expect(err).To(HaveOccurred())
		Expect(publisher.types()).To(BeEmpty())
	})

	It("rejects an invalid schedule", func() {
		n := lead.NewFollowUpNotifier(stubFollowUps{}, publisher, discardLogger(), 0)
		scheduler := cron.New()

		_, err := n.Schedule(ctx, scheduler, "every now and then")
		Expect(err).To(HaveOccurred())

		id, err := n.Schedule(ctx, scheduler, "*/15 * * * *")
		Expect(err).NotTo(HaveOccurred())
		Expect(scheduler.Entry(id).ID).To(Equal(id))
	})
})
