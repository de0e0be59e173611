package treecmder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	treecmder "github.com/papercomputeco/crates/cmd/crates/tree"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/dotdir"
)

var _ = Describe("Tree Command", func() {
	var (
		tmpDir string
		mgr    *auth.Manager
	)

	newCmd := func(args ...string) *cobra.Command {
		cmd := treecmder.NewTreeCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .crates/ config directory")
		cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd
	}

	setup := func() {
		Expect(mgr.Register("ada", "hunter2")).To(Succeed())
		Expect(mgr.Login("ada", "hunter2")).To(Succeed())
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())
		Expect(dotdir.NewManager().SaveSelection(&dotdir.SelectionState{
			Username:   "ada",
			Repo:       "ada/engine",
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
		cmd := treecmder.NewTreeCmd()
		Expect(cmd.Use).To(Equal("tree"))
	})

	It("requires a login first", func() {
		err := newCmd().Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not logged in"))
	})

	It("requires a selected repository", func() {
		Expect(mgr.Register("ada", "hunter2")).To(Succeed())
		Expect(mgr.Login("ada", "hunter2")).To(Succeed())
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())

		err := newCmd().Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no repository selected"))
	})

	It("lists the repository tree at the default branch", func() {
		setup()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch {
			case r.URL.Path == "/repos/ada/engine":
				_, _ = w.Write([]byte(`{"full_name": "ada/engine", "default_branch": "main"}`))
			case strings.HasPrefix(r.URL.Path, "/repos/ada/engine/git/trees/main"):
				_, _ = w.Write([]byte(`{"tree": [
					{"path": "cmd/main.go", "type": "blob", "size": 120, "sha": "aaa"},
					{"path": "README.md", "type": "blob", "size": 2048, "sha": "bbb"},
					{"path": "cmd", "type": "tree", "sha": "ccc"}
				]}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		Expect(newCmd("--github-target", server.URL).Execute()).To(Succeed())
	})

	It("passes an explicit ref straight to the tree endpoint", func() {
		setup()

		var sawRef bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if strings.HasPrefix(r.URL.Path, "/repos/ada/engine/git/trees/v2.1.0") {
				sawRef = true
				_, _ = w.Write([]byte(`{"tree": []}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		Expect(newCmd("--github-target", server.URL, "--ref", "v2.1.0").Execute()).To(Succeed())
		Expect(sawRef).To(BeTrue())
	})
})
