package showcmder_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	showcmder "github.com/papercomputeco/crates/cmd/crates/show"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/dotdir"
)

var _ = Describe("Show Command", func() {
	var (
		tmpDir string
		mgr    *auth.Manager
	)

	newCmd := func(args ...string) *cobra.Command {
		cmd := showcmder.NewShowCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .crates/ config directory")
		cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd
	}

	login := func() {
		Expect(mgr.Register("ada", "hunter2")).To(Succeed())
		Expect(mgr.Login("ada", "hunter2")).To(Succeed())
	}

	selectRepo := func(repo string) {
		Expect(dotdir.NewManager().SaveSelection(&dotdir.SelectionState{
			Username:   "ada",
			Repo:       repo,
			SelectedAt: time.Now().UTC(),
		}, tmpDir)).To(Succeed())
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = auth.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("has the expected use line", func() {
		cmd := showcmder.NewShowCmd()
		Expect(cmd.Use).To(Equal("show <path>"))
	})

	It("requires a login first", func() {
		err := newCmd("README.md").Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not logged in"))
	})

	It("requires a stored token", func() {
		login()

		err := newCmd("README.md").Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no GitHub token stored"))
	})

	It("requires a selected repository", func() {
		login()
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())

		err := newCmd("README.md").Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no repository selected"))
	})

	It("fetches and prints a file from the selected repository", func() {
		login()
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())
		selectRepo("ada/engine")

		encoded := base64.StdEncoding.EncodeToString([]byte("# Hello\n"))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/repos/ada/engine/contents/README.md"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content": "` + encoded + `", "encoding": "base64"}`))
		}))
		defer server.Close()

		Expect(newCmd("README.md", "--github-target", server.URL).Execute()).To(Succeed())
	})

	It("prints raw bytes for non-markdown files", func() {
		login()
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())
		selectRepo("ada/engine")

		encoded := base64.StdEncoding.EncodeToString([]byte("build:\n\tgo build ./...\n"))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content": "` + encoded + `", "encoding": "base64"}`))
		}))
		defer server.Close()

		Expect(newCmd("Makefile", "--github-target", server.URL).Execute()).To(Succeed())
	})

	It("surfaces a missing file as an error", func() {
		login()
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())
		selectRepo("ada/engine")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		err := newCmd("missing.md", "--github-target", server.URL).Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("fetching missing.md"))
	})
})
