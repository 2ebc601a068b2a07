package checkout

import (
	"context"
	"log/slog"

	"github.com/cozanostra7/shopstore/internal/order"
)

// Hook runs after a checkout has committed. Hooks are best-effort: an error
// is logged and never unwinds the committed order.
type Hook func(ctx context.Context, o *order.Order) error

// Service orchestrates order placement: the repository does the transactional
// work, the service fans out to post-commit listeners.
type Service struct {
	orders order.Repository
	hooks  []Hook
	logger *slog.Logger
}

func NewService(orders order.Repository, logger *slog.Logger) *Service {
	return &Service{orders: orders, logger: logger}
}

// OnOrderPlaced registers a post-commit listener. Not safe to call after the
// service starts taking requests.
func (s *Service) OnOrderPlaced(h Hook) {
	s.hooks = append(s.hooks, h)
}

func (s *Service) PlaceOrder(ctx context.Context, cartID, userID string) (*order.Order, error) {
	o, err := s.orders.PlaceOrder(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}

	// The transaction is committed; no lock is held while listeners run.
	for _, h := range s.hooks {
		if err := h(ctx, o); err != nil {
			s.logger.Error("order placed hook failed", "orderId", o.ID, "error", err)
		}
	}

	return o, nil
}
