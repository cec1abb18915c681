package lead_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/client"
	"github.com/a1media/agency-dashboard/internal/lead"
	"github.com/a1media/agency-dashboard/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lead Handler", func() {
	var (
		store  *memStore
		router chi.Router
	)

	BeforeEach(func() {
		sarah := &client.Client{ID: "client-1", Name: "Sarah Jenkins", Company: "TechStart"}
		created := time.Now().Add(-time.Hour)
		store = newMemStore(
			&lead.Lead{ID: "lead-1", ClientID: sarah.ID, Client: sarah, Source: lead.SourceWebsite, Stage: lead.StageNew, CreatedAt: created},
			&lead.Lead{ID: "lead-2", ClientID: sarah.ID, Client: sarah, Source: lead.SourceAds, Stage: lead.StageProposalSent, CreatedAt: created.Add(-time.Hour)},
		)
		pipeline := lead.NewPipeline(store, newMemClients(sarah), discardLogger())
		handler := lead.NewHandler(&transport.BaseHandler{Logger: discardLogger()}, pipeline)

		actor := &auth.Actor{ID: "2", Name: "Sarah Manager", Role: auth.RoleManager}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := auth.ContextWithSession(r.Context(), auth.Session{Settled: true, Actor: actor})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/leads", handler.ListLeads)
		router.Get("/leads/board", handler.Board)
		router.Get("/leads/stats", handler.Stats)
		router.Get("/leads/follow-ups", handler.PendingFollowUps)
		router.Get("/leads/export", handler.Export)
		router.Post("/leads", handler.CreateLead)
		router.Post("/leads/reconcile", handler.Reconcile)
		router.Post("/leads/drop", handler.Drop)
		router.Post("/public/leads", handler.CapturePublicLead)
		router.Get("/leads/{id}", handler.GetLead)
		router.Patch("/leads/{id}", handler.UpdateLead)
		router.Delete("/leads/{id}", handler.DeleteLead)
		router.Put("/leads/{id}/stage", handler.ChangeStage)
		router.Post("/leads/{id}/drag", handler.ArmDrag)
	})

	send := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("lists leads with filters", func() {
		rec := send(http.MethodGet, "/leads?stage=proposal%20sent", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp lead.LeadsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Total).To(Equal(1))
		Expect(resp.Leads[0].ID).To(Equal("lead-2"))
	})

	It("rejects an unknown stage filter", func() {
		rec := send(http.MethodGet, "/leads?stage=Negotiating", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("builds the board in pipeline order", func() {
		rec := send(http.MethodGet, "/leads/board", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var board lead.BoardResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &board)).To(Succeed())
		Expect(board.Columns).To(HaveLen(len(lead.Stages)))
		Expect(board.Columns[0].Stage).To(Equal(lead.StageNew))
		Expect(board.Columns[0].Leads).To(HaveLen(1))
		Expect(board.Columns[3].Stage).To(Equal(lead.StageProposalSent))
		Expect(board.Columns[3].Leads).To(HaveLen(1))
		Expect(board.Columns[6].Leads).To(BeEmpty())
	})

	It("changes the stage and records the actor", func() {
		rec := send(http.MethodPut, "/leads/lead-1/stage", `{"stage":"Contacted"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var res lead.StageChangeResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Changed).To(BeTrue())
		Expect(res.Lead.Logs).To(HaveLen(1))
		Expect(res.Lead.Logs[0].ActorName).To(Equal("Sarah Manager"))
	})

	It("answers 409 with the reconciled lead when the store fails", func() {
		store.updateErr = errStoreDown
		rec := send(http.MethodPut, "/leads/lead-1/stage", `{"stage":"Converted"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))

		var res lead.StageChangeResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Reconciled).To(BeTrue())
		Expect(res.Lead.Stage).To(Equal(lead.StageNew))
	})

	It("answers 404 for an unknown lead", func() {
		Expect(send(http.MethodPut, "/leads/lead-404/stage", `{"stage":"Contacted"}`).Code).To(Equal(http.StatusNotFound))
		Expect(send(http.MethodGet, "/leads/lead-404", "").Code).To(Equal(http.StatusNotFound))
	})

	It("honours only the armed drop", func() {
		Expect(send(http.MethodPost, "/leads/lead-1/drag", "").Code).To(Equal(http.StatusNoContent))

		rec := send(http.MethodPost, "/leads/drop", `{"lead_id":"lead-2","stage":"Lost"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var ignored lead.DropResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &ignored)).To(Succeed())
		Expect(ignored.Honoured).To(BeFalse())
		Expect(store.updates).To(BeZero())

		Expect(send(http.MethodPost, "/leads/lead-1/drag", "").Code).To(Equal(http.StatusNoContent))
		rec = send(http.MethodPost, "/leads/drop", `{"lead_id":"lead-1","stage":"Meeting Scheduled"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var honoured lead.DropResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &honoured)).To(Succeed())
		Expect(honoured.Honoured).To(BeTrue())
		Expect(honoured.Lead.Stage).To(Equal(lead.StageMeetingScheduled))
	})

	It("creates a lead with a new client", func() {
		rec := send(http.MethodPost, "/leads", `{"client":{"name":"Emma Watson"},"source":"Referral","budget":"$15,000"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var l lead.Lead
		Expect(json.Unmarshal(rec.Body.Bytes(), &l)).To(Succeed())
		Expect(l.Stage).To(Equal(lead.StageNew))
		Expect(l.Client.Name).To(Equal("Emma Watson"))
	})

	It("rejects a lead without a client", func() {
		rec := send(http.MethodPost, "/leads", `{"source":"Referral"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("captures a public enquiry in New", func() {
		rec := send(http.MethodPost, "/public/leads", `{"client":{"name":"Web Visitor","email":"v@example.com"},"requirements":"Product shoot"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["stage"]).To(Equal("New"))
		Expect(body["id"]).To(HavePrefix("lead-"))
	})

	It("patches fields", func() {
		rec := send(http.MethodPatch, "/leads/lead-2", `{"notes":"sent v2 proposal"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(store.stored("lead-2").Notes).To(Equal("sent v2 proposal"))
	})

	It("deletes a lead", func() {
		Expect(send(http.MethodDelete, "/leads/lead-2", "").Code).To(Equal(http.StatusNoContent))
		Expect(send(http.MethodDelete, "/leads/lead-2", "").Code).To(Equal(http.StatusNotFound))
	})

	It("reports stats", func() {
		rec := send(http.MethodGet, "/leads/stats", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"total_leads":2`))
	})

	It("reconciles on request", func() {
		Expect(send(http.MethodPost, "/leads/reconcile", "").Code).To(Equal(http.StatusNoContent))
		Expect(store.lists).To(Equal(1))
	})

	It("streams an xlsx export", func() {
		rec := send(http.MethodGet, "/leads/export", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(".xlsx"))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})
})
