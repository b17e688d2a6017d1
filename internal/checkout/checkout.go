package checkout

import (
	"context"
	"fmt"

	"github.com/example/bookshop-client/internal/cart"
	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/logging"
)

// Service initiates payment for the current cart. The payment gateway is an
// opaque external endpoint: this side only supplies the cart lines and an
// email, receives a redirect URL, and clears the cart once initiation is
// accepted.
type Service struct {
	client *clients.Client
	cart   *cart.Store
}

func NewService(client *clients.Client, cart *cart.Store) *Service {
	return &Service{client: client, cart: cart}
}

// Receipt is the server's answer to a successful initiation.
type Receipt struct {
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
	OrderID    string `json:"order_id"`
}

// Status is the confirmation state of a payment reference.
type Status struct {
	Reference     string `json:"reference"`
	PaymentStatus string `json:"payment_status"`
	OrderID       string `json:"order_id"`
}

type lineItem struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Initiate posts the cart contents and clears the cart only when the server
// accepts. An empty cart is rejected locally.
func (s *Service) Initiate(ctx context.Context, email, provider string) (*Receipt, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	lines := make([]lineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, lineItem{BookID: item.ID, Quantity: item.Quantity})
	}
	payload := map[string]any{
		"items":    lines,
		"email":    email,
		"provider": provider,
	}

	var receipt Receipt
	if err := s.client.PostJSON(ctx, "/checkout/initiate/", payload, &receipt); err != nil {
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}

	s.cart.Clear()
	logging.Info("checkout", "initiated", map[string]any{"reference": receipt.Reference})
	return &receipt, nil
}

// Confirm looks up the payment state for a reference.
func (s *Service) Confirm(ctx context.Context, reference string) (*Status, error) {
	var status Status
	if err := s.client.GetJSON(ctx, "/checkout/confirm/?reference="+reference, &status); err != nil {
		return nil, fmt.Errorf("confirm checkout: %w", err)
	}
	return &status, nil
}
