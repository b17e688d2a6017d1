package domain

// CartItem is one distinct book in the cart. Title, author, price and image
// are snapshots taken at add time, not live links to the catalog record.
type CartItem struct {
	ID       string  `json:"id"` // book id
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the line total for this item.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
