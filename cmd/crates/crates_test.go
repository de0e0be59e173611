package cratescmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	cratescmder "github.com/papercomputeco/crates/cmd/crates"
)

var _ = Describe("NewCratesCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := cratescmder.NewCratesCmd()
		Expect(cmd.Use).To(Equal("crates"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("has a persistent --debug flag with shorthand d", func() {
		cmd := cratescmder.NewCratesCmd()
		flag := cmd.PersistentFlags().Lookup("debug")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("d"))
	})

	It("has a persistent --config-dir flag", func() {
		cmd := cratescmder.NewCratesCmd()
		flag := cmd.PersistentFlags().Lookup("config-dir")
		Expect(flag).NotTo(BeNil())
	})

	It("registers every subcommand", func() {
		cmd := cratescmder.NewCratesCmd()

		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}

		Expect(names).To(ContainElements(
			"register", "login", "logout", "token", "repos", "select",
			"index", "search", "clear", "show", "tree", "status",
			"config", "init", "serve", "version",
		))
	})
})
