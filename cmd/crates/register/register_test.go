package registercmder_test

import (
	"bytes"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	registercmder "github.com/papercomputeco/crates/cmd/crates/register"
	"github.com/papercomputeco/crates/pkg/auth"
)

var _ = Describe("Register Command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "register-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	newCmd := func(input string) *cobra.Command {
		cmd := registercmder.NewRegisterCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .crates/ config directory")
		cmd.SetIn(bytes.NewBufferString(input))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config-dir", tmpDir})
		return cmd
	}

	Describe("NewRegisterCmd", func() {
		It("creates a command with the correct use string", func() {
			cmd := registercmder.NewRegisterCmd()
			Expect(cmd.Use).To(Equal("register"))
			Expect(cmd.Short).NotTo(BeEmpty())
		})

		It("rejects arguments", func() {
			cmd := registercmder.NewRegisterCmd()
			err := cmd.Args(cmd, []string{"extra"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("registering", func() {
		It("creates an account from prompted input", func() {
			cmd := newCmd("ada\nhunter2\nhunter2\n")
			Expect(cmd.Execute()).To(Succeed())

			mgr, err := auth.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.Login("ada", "hunter2")).To(Succeed())
		})

		It("rejects a duplicate username", func() {
			mgr, err := auth.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.Register("ada", "hunter2")).To(Succeed())

			cmd := newCmd("ada\nother\nother\n")
			err = cmd.Execute()
			Expect(err).To(MatchError(auth.ErrUserExists))
		})

		It("rejects an empty username", func() {
			cmd := newCmd("\nhunter2\nhunter2\n")
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("username cannot be empty"))
		})

		It("rejects mismatched passwords", func() {
			cmd := newCmd("ada\nhunter2\nhunter3\n")
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("passwords do not match"))

			mgr, err := auth.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.Login("ada", "hunter2")).To(MatchError(auth.ErrInvalidCredentials))
		})
	})
})
