package domain

// Vendor is one configured quotation source: which page variant it
// publishes, under which company name its rows are stored, and where.
type Vendor struct {
	Site    Site
	Company string
	URL     string
}
