package qdrant_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	crateslogger "github.com/papercomputeco/crates/pkg/logger"
	"github.com/papercomputeco/crates/pkg/vector"
	"github.com/papercomputeco/crates/pkg/vector/qdrant"
)

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = crateslogger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when target is empty", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{
				Dimensions: 768,
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("qdrant target is required"))
		})

		It("should return an error when dimensions are not configured", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{
				Target: "localhost:6334",
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("dimensions"))
		})

		It("should upsert and query documents", func() {
			// This test would require a running Qdrant instance
			// Skipping for unit tests - should be covered in integration tests
			Skip("Requires running Qdrant instance")
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			// Compile-time check that Driver implements vector.Driver
			var _ vector.Driver = (*qdrant.Driver)(nil)
		})
	})
})
