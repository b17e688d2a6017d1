package catalog

import (
	"strconv"

	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/logging"
)

// categoryRecord is a category as serialized by the API.
type categoryRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// bookRecord is a book as serialized by the API. Price arrives as a decimal
// string and the category arrives nested.
type bookRecord struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Price         string         `json:"price"`
	CoverImage    string         `json:"cover_image"`
	Category      categoryRecord `json:"category"`
	StockQuantity int            `json:"stock_quantity"`
	IsActive      bool           `json:"is_active"`
	Description   string         `json:"description"`
	ISBN          string         `json:"isbn"`
	Publisher     string         `json:"publisher"`
}

// mapBook flattens a wire record into client state: price parsed to a
// number, category split into display name and id reference.
func mapBook(r bookRecord) domain.Book {
	price, err := strconv.ParseFloat(r.Price, 64)
	if err != nil {
		logging.Warn("catalog", "parse_price", map[string]any{"book_id": r.ID, "price": r.Price})
		price = 0
	}
	isbn := r.ISBN
	if isbn == "" {
		isbn = "N/A"
	}
	publisher := r.Publisher
	if publisher == "" {
		publisher = "UNN Press"
	}
	return domain.Book{
		ID:            r.ID,
		Title:         r.Title,
		Author:        r.Author,
		Price:         price,
		Image:         r.CoverImage,
		Category:      r.Category.Name,
		CategoryID:    r.Category.ID,
		StockQuantity: r.StockQuantity,
		IsActive:      r.IsActive,
		Description:   r.Description,
		ISBN:          isbn,
		Publisher:     publisher,
	}
}

func mapCategory(r categoryRecord) domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, Slug: r.Slug}
}
