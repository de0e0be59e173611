package statuscmder_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	statuscmder "github.com/papercomputeco/crates/cmd/crates/status"
	"github.com/papercomputeco/crates/pkg/auth"
	"github.com/papercomputeco/crates/pkg/dotdir"
	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/vector"
	"github.com/papercomputeco/crates/pkg/vector/sqlitevec"
)

var _ = Describe("Status Command", func() {
	var (
		tmpDir string
		dbPath string
		mgr    *auth.Manager
	)

	newCmd := func(args ...string) *cobra.Command {
		cmd := statuscmder.NewStatusCmd()
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

	seed := func(repo string, n int) {
		store, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     dbPath,
			Dimensions: 4,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = store.Close() }()

		docs := make([]vector.Document, 0, n)
		for i := range n {
			docs = append(docs, vector.Document{
				ID:        "22222222-2222-2222-2222-22222222222" + string(rune('a'+i)),
				Repo:      repo,
				Path:      "file" + string(rune('a'+i)) + ".go",
				Content:   "package main",
				Embedding: []float32{0.1, 0.2, 0.3, float32(i)},
			})
		}
		Expect(store.Upsert(context.Background(), docs)).To(Succeed())
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(GinkgoT().TempDir(), "status.db")

		var err error
		mgr, err = auth.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("has the expected use line", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Use).To(Equal("status"))
	})

	It("succeeds with no session state at all", func() {
		Expect(newCmd().Execute()).To(Succeed())
	})

	It("reports a full session with a seeded store", func() {
		login()
		Expect(mgr.SetToken("ada", "ghp_testtoken")).To(Succeed())
		selectRepo("ada/engine")
		seed("ada/engine", 2)

		Expect(newCmd(
			"--vector-store-provider", "sqlite",
			"--vector-store-target", dbPath,
			"--embedding-dimensions", "4",
		).Execute()).To(Succeed())
	})

	It("succeeds when the selected repository has no store yet", func() {
		login()
		selectRepo("ada/engine")

		Expect(newCmd(
			"--vector-store-provider", "sqlite",
			"--vector-store-target", dbPath,
		).Execute()).To(Succeed())
	})

	It("succeeds when the store is unreachable", func() {
		login()
		selectRepo("ada/engine")

		Expect(newCmd(
			"--vector-store-provider", "qdrant",
			"--vector-store-target", "localhost:1",
		).Execute()).To(Succeed())
	})

	It("rejects positional arguments", func() {
		Expect(newCmd("extra").Execute()).To(HaveOccurred())
	})
})
