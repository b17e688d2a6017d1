package domain

// DefaultCoverImage is shown for books whose cover image was never uploaded.
const DefaultCoverImage = "https://images.unsplash.com/photo-1544947950-fa07a98d237f?auto=format&fit=crop&q=80&w=800"

// Book is a catalog item as held in client state. Price is already parsed
// to a number and the category is flattened to both its display name and id.
type Book struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Price         float64 `json:"price"`
	Image         string  `json:"image"`
	Category      string  `json:"category"`
	CategoryID    string  `json:"category_id"`
	StockQuantity int     `json:"stock_quantity"`
	IsActive      bool    `json:"is_active"`
	Description   string  `json:"description"`
	ISBN          string  `json:"isbn"`
	Publisher     string  `json:"publisher"`
}

// CoverImage returns the book's image URL, falling back to the default
// placeholder when none was set.
func (b Book) CoverImage() string {
	if b.Image == "" {
		return DefaultCoverImage
	}
	return b.Image
}

// Category groups books. Categories are created but never updated or
// deleted by the client.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
