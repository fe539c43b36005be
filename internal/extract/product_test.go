package extract

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractProduct", func() {
	var (
		text    string
		product string
	)

	JustBeforeEach(func() {
		product = ExtractProduct(text)
	})

	When("a keyword line is followed by a label line", func() {
		BeforeEach(func() {
			text = "Invoice\nProduct\nOlive Oil 1L\n2024-05-01"
		})

		It("returns the following line", func() {
			Expect(product).To(Equal("Olive Oil 1L"))
		})
	})

	When("the following line starts with a colon", func() {
		BeforeEach(func() {
			text = "Item\n: Green Tea Box\n100"
		})

		It("strips the leading colon", func() {
			Expect(product).To(Equal("Green Tea Box"))
		})
	})

	When("the keyword is an Arabic product label", func() {
		BeforeEach(func() {
			text = "فاتورة\nالمنتج\nزيت زيتون\n١٥٠"
		})

		It("returns the following line", func() {
			Expect(product).To(Equal("زيت زيتون"))
		})
	})

	When("the line after the keyword is purely numeric", func() {
		BeforeEach(func() {
			text = "Product\n123.45\nActual Fancy Widget Name\nx"
		})

		It("falls back to the longest non-numeric line", func() {
			Expect(product).To(Equal("Actual Fancy Widget Name"))
		})
	})

	When("no keyword line exists", func() {
		BeforeEach(func() {
			text = "short\na much longer descriptive line\n42"
		})

		It("returns the longest non-numeric line", func() {
			Expect(product).To(Equal("a much longer descriptive line"))
		})
	})

	When("a shorter Arabic line competes with a longer Latin line", func() {
		BeforeEach(func() {
			text = "منتج مميز\nWidget Deluxe\n42"
		})

		It("compares line length in characters, not bytes", func() {
			Expect(product).To(Equal("Widget Deluxe"))
		})
	})

	When("two lines tie in length", func() {
		BeforeEach(func() {
			text = "first label\nother title\n99"
		})

		It("keeps the first occurrence", func() {
			Expect(product).To(Equal("first label"))
		})
	})

	When("the label exceeds sixty characters", func() {
		BeforeEach(func() {
			text = "Product\n" + strings.Repeat("ab", 40)
		})

		It("truncates to sixty characters", func() {
			Expect(product).To(HaveLen(60))
		})
	})

	When("every line is purely numeric", func() {
		BeforeEach(func() {
			text = "123\n45.6\n7,890"
		})

		It("returns an absent product", func() {
			Expect(product).To(BeEmpty())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("returns an absent product", func() {
			Expect(product).To(BeEmpty())
		})
	})
})

var _ = Describe("BuildCandidate", func() {
	When("the text contains all four fields", func() {
		var c Candidate

		BeforeEach(func() {
			raw := "فاتورة ٢٠٢٤-٠٥-٠١\nالمنتج\nزيت زيتون\nالسعر ١٢\nالمجموع ١٥٠"
			c = BuildCandidate(raw)
		})

		It("extracts the date from Arabic digits", func() {
			Expect(c.Date).NotTo(BeNil())
			Expect(c.Date.Format("2006-01-02")).To(Equal("2024-05-01"))
		})

		It("extracts the amount", func() {
			Expect(c.Amount).NotTo(BeNil())
			Expect(*c.Amount).To(Equal(150.0))
		})

		It("extracts the price", func() {
			Expect(c.Price).NotTo(BeNil())
			Expect(*c.Price).To(Equal(12.0))
		})

		It("extracts the product", func() {
			Expect(c.Product).To(Equal("زيت زيتون"))
		})
	})

	When("the text is garbled beyond recognition", func() {
		It("yields a candidate with absent numeric fields", func() {
			c := BuildCandidate("?!@ noise")
			Expect(c.Date).To(BeNil())
			Expect(c.Amount).To(BeNil())
			Expect(c.Price).To(BeNil())
		})
	})
})
