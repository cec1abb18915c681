package lead_test

import (
	"bytes"
	"time"

	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/lead"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("WriteWorkbook", func() {
	It("writes one row per lead and one row per log entry", func() {
		ts := time.Date(2026, 10, 1, 10, 30, 0, 0, time.UTC)
		leads := []*lead.Lead{
			{
				ID:     "lead-1",
				Client: &client.Client{Name: "Sarah Jenkins", Company: "TechStart", Email: "sarah.j@techstart.io"},
				Source: lead.SourceWebsite, Stage: lead.StageContacted, Budget: "$5,000",
				CreatedAt: ts, UpdatedAt: ts,
				Logs: []lead.LeadLog{{
					Action: lead.ActionStageChanged, PreviousStage: lead.StageNew, NewStage: lead.StageContacted,
					ActorName: "Alex Admin", Timestamp: ts,
				}},
			},
			{ID: "lead-2", Source: lead.SourceAds, Stage: lead.StageNew, CreatedAt: ts, UpdatedAt: ts},
		}

		var buf bytes.Buffer
		Expect(lead.WriteWorkbook(&buf, leads)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		Expect(f.GetSheetList()).To(Equal([]string{lead.LeadsSheet, lead.ActivitySheet}))

		rows, err := f.GetRows(lead.LeadsSheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0][0]).To(Equal("ID"))
		Expect(rows[1][:3]).To(Equal([]string{"lead-1", "Sarah Jenkins", "TechStart"}))
		Expect(rows[1][6]).To(Equal("Contacted"))
		Expect(rows[2][0]).To(Equal("lead-2"))

		activity, err := f.GetRows(lead.ActivitySheet)
		Expect(err).NotTo(HaveOccurred())
		Expect(activity).To(HaveLen(2))
		Expect(activity[1]).To(Equal([]string{"lead-1", "Sarah Jenkins", "Stage Changed", "New", "Contacted", "Alex Admin", "2026-10-01 10:30:00"}))
	})
})
