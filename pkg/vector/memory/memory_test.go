package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/vector"
	"github.com/papercomputeco/crates/pkg/vector/memory"
)

var _ = Describe("Driver", func() {
	var driver *memory.Driver

	BeforeEach(func() {
		driver = memory.NewDriver(logger.Nop())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("Interface compliance", func() {
		It("implements vector.Driver", func() {
			var _ vector.Driver = (*memory.Driver)(nil)
		})
	})

	Describe("Upsert", func() {
		It("does nothing when given no documents", func() {
			Expect(driver.Upsert(context.Background(), nil)).To(Succeed())

			count, err := driver.CountScope(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("stores documents retrievable by ID", func() {
			docs := []vector.Document{
				{ID: "id-1", Repo: "demo", Path: "a.txt", Content: "hello", Embedding: []float32{1, 0, 0}},
				{ID: "id-2", Repo: "demo", Path: "b.txt", Content: "bye", Embedding: []float32{0, 1, 0}},
			}
			Expect(driver.Upsert(context.Background(), docs)).To(Succeed())

			got, err := driver.Get(context.Background(), []string{"id-1", "id-2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
		})

		It("replaces an existing document with the same ID", func() {
			first := vector.Document{ID: "id-1", Repo: "demo", Path: "a.txt", Content: "old", Embedding: []float32{1, 0, 0}}
			Expect(driver.Upsert(context.Background(), []vector.Document{first})).To(Succeed())

			second := first
			second.Content = "new"
			Expect(driver.Upsert(context.Background(), []vector.Document{second})).To(Succeed())

			got, err := driver.Get(context.Background(), []string{"id-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Content).To(Equal("new"))

			count, err := driver.CountScope(context.Background(), "demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			docs := []vector.Document{
				{ID: "near", Repo: "demo", Path: "near.txt", Embedding: []float32{1, 0, 0}},
				{ID: "mid", Repo: "demo", Path: "mid.txt", Embedding: []float32{0.7, 0.7, 0}},
				{ID: "far", Repo: "demo", Path: "far.txt", Embedding: []float32{0, 1, 0}},
				{ID: "other", Repo: "other", Path: "near.txt", Embedding: []float32{1, 0, 0}},
			}
			Expect(driver.Upsert(context.Background(), docs)).To(Succeed())
		})

		It("orders results by ascending distance", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 10, "demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Path).To(Equal("near.txt"))
			Expect(results[1].Path).To(Equal("mid.txt"))
			Expect(results[2].Path).To(Equal("far.txt"))

			Expect(results[0].Distance).To(BeNumerically("<=", results[1].Distance))
			Expect(results[1].Distance).To(BeNumerically("<=", results[2].Distance))
		})

		It("caps results at the limit", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 2, "demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("never returns documents from another scope", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 10, "demo")
			Expect(err).NotTo(HaveOccurred())

			for _, r := range results {
				Expect(r.Repo).To(Equal("demo"))
			}
		})

		It("ranks across all repos when unscoped", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 10, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("returns empty results for an absent scope", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 10, "ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("exposes similarity as 1 minus distance", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0}, 1, "demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Similarity()).To(BeNumerically("~", 1-results[0].Distance, 1e-6))
		})
	})

	Describe("DeleteScope", func() {
		It("removes every document in the scope and nothing else", func() {
			docs := []vector.Document{
				{ID: "a", Repo: "demo", Path: "a.txt", Embedding: []float32{1, 0}},
				{ID: "b", Repo: "demo", Path: "b.txt", Embedding: []float32{0, 1}},
				{ID: "c", Repo: "keep", Path: "c.txt", Embedding: []float32{1, 1}},
			}
			Expect(driver.Upsert(context.Background(), docs)).To(Succeed())

			Expect(driver.DeleteScope(context.Background(), "demo")).To(Succeed())

			results, err := driver.Query(context.Background(), []float32{1, 0}, 10, "demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())

			count, err := driver.CountScope(context.Background(), "keep")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("is a no-op for an absent scope", func() {
			Expect(driver.DeleteScope(context.Background(), "ghost")).To(Succeed())
		})
	})
})
