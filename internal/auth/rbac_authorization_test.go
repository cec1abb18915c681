package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubResolver struct {
	sessions map[string]auth.Session
}

func (s stubResolver) ResolveSession(_ context.Context, token string) auth.Session {
	if sess, ok := s.sessions[token]; ok {
		return sess
	}
	return auth.Session{Settled: true}
}

var _ = Describe("RBACAuthorization", func() {
	var (
		table  *auth.PermissionTable
		router chi.Router
	)

	BeforeEach(func() {
		table = auth.NewDefaultPermissionTable()
		resolver := stubResolver{sessions: map[string]auth.Session{
			"photo":   {Actor: &auth.Actor{ID: "3", Role: auth.RolePhotographer}, Settled: true},
			"account": {Actor: &auth.Actor{ID: "5", Role: auth.RoleAccountant}, Settled: true},
			"flaky":   {Settled: false},
		}}
		rbac := auth.NewRBACAuthorization(resolver, table, discardLogger())

		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		router = chi.NewRouter()
		router.Use(rbac.Session)
		router.With(rbac.RequireModule(auth.ModuleFinance)).Get("/finance", ok)
		router.With(rbac.RequireModule(auth.ModulePhotos)).Get("/photos", ok)
		router.With(rbac.RequireAuthenticated()).Get("/me", ok)
		router.With(rbac.RequireRole(auth.RoleAdmin)).Get("/admin", ok)
	})

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]string {
		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	It("answers 401 with the original location for anonymous callers", func() {
		rec := do("/finance?month=3", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		body := decode(rec)
		Expect(body["outcome"]).To(Equal("redirect_login"))
		Expect(body["from"]).To(Equal("/finance?month=3"))
	})

	It("answers 403 pointing home for a role outside the module", func() {
		rec := do("/finance", "photo")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decode(rec)["redirect_to"]).To(Equal("/"))
	})

	It("passes a role inside the module", func() {
		Expect(do("/photos", "photo").Code).To(Equal(http.StatusOK))
		Expect(do("/finance", "account").Code).To(Equal(http.StatusOK))
	})

	It("answers 503 while the session is unresolved", func() {
		rec := do("/photos", "flaky")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Header().Get("Retry-After")).ToNot(BeEmpty())
	})

	It("reads the table per request", func() {
		table.Grant(auth.RolePhotographer, auth.ModuleFinance)
		Expect(do("/finance", "photo").Code).To(Equal(http.StatusOK))
	})

	It("admits any signed-in actor to open routes", func() {
		Expect(do("/me", "photo").Code).To(Equal(http.StatusOK))
		Expect(do("/me", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("enforces fixed role lists", func() {
		Expect(do("/admin", "photo").Code).To(Equal(http.StatusForbidden))
	})
})

var _ = Describe("Handler", func() {
	var (
		repo    *mockRepository
		service *auth.Service
		router  chi.Router
	)

	BeforeEach(func() {
		repo = newMockRepository()
		tokens := auth.NewJWTTokenGenerator("a", "r", time.Minute, time.Hour)
		service = auth.NewService(repo, tokens, nil, nil, discardLogger())
		rbac := auth.NewRBACAuthorization(service, service.PermissionTable(), discardLogger())
		h := auth.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/login", h.Login)
		router.Group(func(r chi.Router) {
			r.Use(rbac.Session)
			r.Get("/navigation/authorize", h.Authorize)
			r.With(rbac.RequireAuthenticated()).Get("/navigation/modules", h.AllowedModules)
			r.With(rbac.RequireRole(auth.RoleAdmin)).Post("/roles/{role}/modules/{module}/toggle", h.TogglePermission)
		})
	})

	login := func(email string) string {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`","password":"password"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp auth.LoginResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp.AccessToken
	}

	call := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("rejects bad credentials with 401", func() {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"admin@a1media.com","password":"x"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("reports navigation decisions for the caller", func() {
		token := login("photo@a1media.com")
		rec := call(http.MethodGet, "/navigation/authorize?path=/finance", token)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"redirect_home"`))
	})

	It("lists the caller's modules", func() {
		token := login("photo@a1media.com")
		rec := call(http.MethodGet, "/navigation/modules", token)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"role":"Photographer","modules":["photos","projects"]}`))
	})

	It("lets an admin toggle a grant", func() {
		token := login("admin@a1media.com")
		rec := call(http.MethodPost, "/roles/photographer/modules/finance/toggle", token)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"role":"Photographer","module":"finance","granted":true}`))
		Expect(repo.stored[auth.RolePhotographer]).To(ContainElement(auth.ModuleFinance))
	})

	It("keeps non-admins out of the role table", func() {
		token := login("manager@a1media.com")
		Expect(call(http.MethodPost, "/roles/client/modules/leads/toggle", token).Code).To(Equal(http.StatusForbidden))
	})
})
