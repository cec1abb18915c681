package auth_test

import (
	"sync"

	"github.com/a1media/agency-dashboard/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PermissionTable", func() {
	var table *auth.PermissionTable

	BeforeEach(func() {
		table = auth.NewDefaultPermissionTable()
	})

	It("has an entry for every role", func() {
		snap := table.Snapshot()
		for _, r := range auth.AllRoles {
			Expect(snap).To(HaveKey(r))
		}
	})

	It("gives admin and manager every module", func() {
		Expect(table.ModulesFor(auth.RoleAdmin)).To(Equal(auth.AllModules))
		Expect(table.ModulesFor(auth.RoleManager)).To(Equal(auth.AllModules))
	})

	It("derives finance roles from the table", func() {
		Expect(table.RolesFor(auth.ModuleFinance)).To(ConsistOf(auth.RoleAdmin, auth.RoleManager, auth.RoleAccountant))
	})

	It("returns an empty, non-nil allow-list for a module nobody holds", func() {
		for _, r := range auth.AllRoles {
			table.Revoke(r, auth.ModuleSocial)
		}
		roles := table.RolesFor(auth.ModuleSocial)
		Expect(roles).ToNot(BeNil())
		Expect(roles).To(BeEmpty())
	})

	It("toggles a grant on and off", func() {
		Expect(table.Allows(auth.RoleClient, auth.ModuleProjects)).To(BeFalse())
		Expect(table.Toggle(auth.RoleClient, auth.ModuleProjects)).To(BeTrue())
		Expect(table.Allows(auth.RoleClient, auth.ModuleProjects)).To(BeTrue())
		Expect(table.Toggle(auth.RoleClient, auth.ModuleProjects)).To(BeFalse())
		Expect(table.Allows(auth.RoleClient, auth.ModuleProjects)).To(BeFalse())
	})

	It("ignores unknown roles and modules", func() {
		table.Grant(auth.Role("Intern"), auth.ModuleLeads)
		table.Grant(auth.RoleClient, auth.Module("payroll"))
		Expect(table.Snapshot()).ToNot(HaveKey(auth.Role("Intern")))
		Expect(table.ModulesFor(auth.RoleClient)).To(Equal([]auth.Module{auth.ModulePhotos, auth.ModuleVideos}))
	})

	It("replaces a role's set wholesale", func() {
		table.Replace(auth.RoleEditor, []auth.Module{auth.ModuleSocial})
		Expect(table.ModulesFor(auth.RoleEditor)).To(Equal([]auth.Module{auth.ModuleSocial}))
	})

	It("is safe for concurrent toggles and reads", func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				table.Toggle(auth.RoleEditor, auth.ModuleFinance)
			}()
			go func() {
				defer wg.Done()
				_ = table.RolesFor(auth.ModuleFinance)
			}()
		}
		wg.Wait()
		// an even number of toggles lands back where it started
		Expect(table.Allows(auth.RoleEditor, auth.ModuleFinance)).To(BeFalse())
	})
})

var _ = Describe("ParseRole", func() {
	It("accepts any casing", func() {
		r, err := auth.ParseRole("photographer")
		Expect(err).ToNot(HaveOccurred())
		Expect(r).To(Equal(auth.RolePhotographer))
	})

	It("rejects unknown roles", func() {
		_, err := auth.ParseRole("intern")
		Expect(err).To(HaveOccurred())
	})
})
