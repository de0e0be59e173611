package selectcmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/crates/pkg/github"
)

func testRepos() []*github.Repository {
	return []*github.Repository{
		{FullName: "ada/engine", DefaultBranch: "main", Description: "Analytical engine"},
		{FullName: "ada/notes", DefaultBranch: "master", Private: true},
		{FullName: "babbage/difference", DefaultBranch: "main"},
	}
}

func keyRunes(s string) bubbletea.KeyMsg {
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune(s)}
}

func update(m pickerModel, msg bubbletea.Msg) pickerModel {
	next, _ := m.Update(msg)
	return next.(pickerModel)
}

var _ = Describe("Picker model", func() {
	It("starts with every repository visible and the input focused", func() {
		model := newPickerModel(testRepos())
		Expect(model.filtered).To(HaveLen(3))
		Expect(model.cursor).To(Equal(0))
		Expect(model.input.Focused()).To(BeTrue())
	})

	It("moves the cursor with arrow keys and clamps at the edges", func() {
		model := newPickerModel(testRepos())

		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyUp})
		Expect(model.cursor).To(Equal(0))

		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		Expect(model.cursor).To(Equal(2))
	})

	It("selects the repository under the cursor on enter", func() {
		model := newPickerModel(testRepos())
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
		Expect(model.choice).To(Equal("ada/notes"))
	})

	It("quits without a choice on escape", func() {
		model := newPickerModel(testRepos())
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyEsc})
		Expect(model.choice).To(BeEmpty())
	})

	It("filters the list as the user types", func() {
		model := newPickerModel(testRepos())
		model = update(model, keyRunes("b"))
		model = update(model, keyRunes("a"))
		model = update(model, keyRunes("b"))

		Expect(model.filtered).To(HaveLen(1))
		Expect(model.filtered[0].FullName).To(Equal("babbage/difference"))

		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
		Expect(model.choice).To(Equal("babbage/difference"))
	})

	It("clamps the cursor when the filter shrinks the list", func() {
		model := newPickerModel(testRepos())
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		model = update(model, bubbletea.KeyMsg{Type: bubbletea.KeyDown})
		Expect(model.cursor).To(Equal(2))

		model = update(model, keyRunes("n"))
		model = update(model, keyRunes("o"))
		Expect(model.filtered).To(HaveLen(1))
		Expect(model.cursor).To(Equal(0))
	})

	It("renders the title, filter input, and repositories", func() {
		model := newPickerModel(testRepos())
		view := model.View()
		Expect(view).To(ContainSubstring("crates select"))
		Expect(view).To(ContainSubstring("3/3 repositories"))
		Expect(view).To(ContainSubstring("ada/engine"))
	})

	It("says so when nothing matches", func() {
		model := newPickerModel(testRepos())
		model = update(model, keyRunes("z"))
		model = update(model, keyRunes("z"))
		Expect(model.View()).To(ContainSubstring("no repositories match"))
	})
})

var _ = Describe("Picker helpers", func() {
	Describe("filterRepos", func() {
		It("returns everything for an empty filter", func() {
			Expect(filterRepos(testRepos(), "")).To(HaveLen(3))
			Expect(filterRepos(testRepos(), "   ")).To(HaveLen(3))
		})

		It("matches case-insensitively on the full name", func() {
			filtered := filterRepos(testRepos(), "ADA")
			Expect(filtered).To(HaveLen(2))
		})

		It("returns an empty list when nothing matches", func() {
			Expect(filterRepos(testRepos(), "zz")).To(BeEmpty())
		})
	})

	Describe("visibleRange", func() {
		It("shows everything when it fits", func() {
			start, end := visibleRange(3, 0, 10)
			Expect(start).To(Equal(0))
			Expect(end).To(Equal(3))
		})

		It("centers the window on the cursor", func() {
			start, end := visibleRange(20, 10, 5)
			Expect(start).To(Equal(8))
			Expect(end).To(Equal(13))
		})

		It("clamps the window at the end", func() {
			start, end := visibleRange(20, 19, 5)
			Expect(start).To(Equal(15))
			Expect(end).To(Equal(20))
		})
	})
})
