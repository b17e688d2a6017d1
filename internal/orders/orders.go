package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/logging"
)

// Service reads the order history. Orders are never mutated from the client.
type Service struct {
	client *clients.Client
}

func NewService(client *clients.Client) *Service {
	return &Service{client: client}
}

type orderItemRecord struct {
	ID          string `json:"id"`
	Book        string `json:"book"`
	BookDetails struct {
		Title string `json:"title"`
	} `json:"book_details"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

type orderRecord struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	TotalAmount      string            `json:"total_amount"`
	PaymentStatus    string            `json:"payment_status"`
	PaymentReference string            `json:"payment_reference"`
	PaymentMethod    string            `json:"payment_method"`
	CreatedAt        time.Time         `json:"created_at"`
	Items            []orderItemRecord `json:"items"`
}

// List fetches and maps the caller's orders, newest first as the server
// returns them.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	var recs []orderRecord
	if err := s.client.GetJSON(ctx, "/orders/", &recs); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	out := make([]domain.Order, 0, len(recs))
	for _, r := range recs {
		items := make([]domain.OrderItem, 0, len(r.Items))
		for _, ir := range r.Items {
			items = append(items, domain.OrderItem{
				ID:       ir.ID,
				BookID:   ir.Book,
				Title:    ir.BookDetails.Title,
				Quantity: ir.Quantity,
				Price:    parseAmount(ir.Price, r.ID),
				Subtotal: parseAmount(ir.Subtotal, r.ID),
			})
		}
		out = append(out, domain.Order{
			ID:               r.ID,
			Email:            r.Email,
			TotalAmount:      parseAmount(r.TotalAmount, r.ID),
			PaymentStatus:    r.PaymentStatus,
			PaymentReference: r.PaymentReference,
			PaymentMethod:    r.PaymentMethod,
			CreatedAt:        r.CreatedAt,
			Items:            items,
		})
	}
	return out, nil
}

func parseAmount(raw, orderID string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("orders", "parse_amount", map[string]any{"order_id": orderID, "value": raw})
		return 0
	}
	return v
}
