package domain

import "time"

// User is the authenticated profile returned by the accounts API.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
	IsAdmin   bool   `json:"is_admin"`
}

// Order is a past purchase as returned by the order history endpoint.
type Order struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	TotalAmount      float64     `json:"total_amount"`
	PaymentStatus    string      `json:"payment_status"`
	PaymentReference string      `json:"payment_reference"`
	PaymentMethod    string      `json:"payment_method"`
	CreatedAt        time.Time   `json:"created_at"`
	Items            []OrderItem `json:"items"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID       string  `json:"id"`
	BookID   string  `json:"book_id"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}
