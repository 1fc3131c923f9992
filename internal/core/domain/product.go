package domain

type (
	Category  string
	Intensity string
)

type (
	Product struct {
		ID           string
		Name         string
		Description  string
		Price        float64
		Category     Category
		Origin       string
		Intensity    Intensity
		FlavorNotes  []string
		Image        string
		Stock        int
		Discount     float64
		IsNew        bool
		IsBestSeller bool
	}

	// A Theme is a catalog skin: the same storefront template filled
	// with a different product line.
	Theme struct {
		Name           string
		CurrencySymbol string
		Categories     []Category
		Products       []Product
		QuoteLines     map[Category][]QuoteLine
	}
)

// EffectivePrice returns the unit price after the percent discount.
func (p Product) EffectivePrice() float64 {
	if p.Discount > 0 {
		return p.Price * (1 - p.Discount/100)
	}
	return p.Price
}

func (t Theme) HasCategory(c Category) bool {
	for _, v := range t.Categories {
		if v == c {
			return true
		}
	}
	return false
}

type ProductSort string

const (
	SortFeatured  ProductSort = "featured"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortName      ProductSort = "name"
)

type ProductFilter struct {
	Category  Category
	Intensity Intensity
	Origin    string
}

func (f ProductFilter) Match(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Intensity != "" && p.Intensity != f.Intensity {
		return false
	}
	if f.Origin != "" && p.Origin != f.Origin {
		return false
	}
	return true
}
