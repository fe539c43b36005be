package extract

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractDate", func() {
	var (
		text string
		date time.Time
		ok   bool
	)

	JustBeforeEach(func() {
		date, ok = ExtractDate(text)
	})

	When("the text contains an ISO-style date", func() {
		BeforeEach(func() {
			text = "Invoice issued 2024-05-01 thanks"
		})

		It("finds the date", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the text contains slashes instead of dashes", func() {
		BeforeEach(func() {
			text = "2024/05/01"
		})

		It("finds the date", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the text contains both date shapes", func() {
		BeforeEach(func() {
			text = "01-05-24 some noise 2024-05-01"
		})

		It("prefers the ISO-style pattern", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the text contains only a short date with a two-digit year", func() {
		BeforeEach(func() {
			text = "date 15-03-24"
		})

		It("interprets the year as 2000+YY", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the text contains a short date with a four-digit year", func() {
		BeforeEach(func() {
			text = "15/03/2024"
		})

		It("parses it as DD/MM/YYYY", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the year has three digits", func() {
		BeforeEach(func() {
			text = "15-03-024"
		})

		It("returns absent instead of half-matching the year", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the date has an invalid month and day", func() {
		BeforeEach(func() {
			text = "2024-13-40"
		})

		It("returns absent without panicking", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the text has no date at all", func() {
		BeforeEach(func() {
			text = "no digits that look like dates, only 42"
		})

		It("returns absent", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("returns absent", func() {
			Expect(ok).To(BeFalse())
		})
	})
})
