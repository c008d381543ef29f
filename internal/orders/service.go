package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/cart"
	"github.com/swiftcart/backend/internal/payments"
)

// Store is the order ledger. Place and Transition are atomic units of work:
// either every listed effect is visible afterwards or none is.
type Store interface {
	// Place persists the order, decrements stock per line (conditionally,
	// failing ErrInsufficientStock instead of going negative), appends the
	// order to the user's history and clears the user's cart. A payment id
	// already on file surfaces ErrDuplicatePayment.
	Place(ctx context.Context, o *Order) error

	// Transition moves the order from one status to the next, guarded on the
	// current status, restocking the given lines when to is Cancelled.
	Transition(ctx context.Context, storageID string, from, to Status, restock []Line) error

	ByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	ByOrderID(ctx context.Context, orderID string) (*Order, error)
	ByUser(ctx context.Context, userID string) ([]Order, error)
	All(ctx context.Context) ([]Order, error)
}

// CartReader supplies the user's cart joined with live price and stock.
type CartReader interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
}

// AddressChecker verifies an address reference belongs to a user.
type AddressChecker interface {
	AddressOwnedBy(ctx context.Context, addressID, userID string) (bool, error)
}

// Service coordinates payment verification, the atomic order commit and the
// status lifecycle. All collaborators are injected.
type Service struct {
	Gateway   payments.Gateway
	Store     Store
	Cart      CartReader
	Addresses AddressChecker
	Currency  string
	Log       *zap.Logger
}

// PaymentPrep is what the client needs to confirm the charge.
type PaymentPrep struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	TotalCents      int64  `json:"totalCents"`
}

// PreparePaymentIntent prices the cart and requests a gateway charge. It
// writes nothing: stock is validated again at commit.
func (s *Service) PreparePaymentIntent(ctx context.Context, userID, addressID, paymentMethodID string) (*PaymentPrep, error) {
	ok, err := s.Addresses.AddressOwnedBy(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAddressNotFound
	}

	lines, err := s.Cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var total int64
	for _, l := range lines {
		if l.Stock < l.Quantity {
			return nil, ErrInsufficientStock
		}
		total += l.SubtotalCents()
	}

	intent, err := s.Gateway.CreateIntent(ctx, total, s.Currency, paymentMethodID, map[string]string{
		"userId":    userID,
		"addressId": addressID,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentPrep{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		TotalCents:      total,
	}, nil
}

// PlaceOrder is the order commit. Preconditions run in order and
// short-circuit; then the whole commit is delegated to the store as one
// atomic unit.
func (s *Service) PlaceOrder(ctx context.Context, userID, paymentIntentID, addressID string) (*Order, error) {
	intent, err := s.Gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, ErrPaymentNotSuccessful
	}

	// Application-level duplicate check for the common replay; the unique
	// index on payment_id catches concurrent racers inside Place.
	if _, err := s.Store.ByPaymentID(ctx, paymentIntentID); err == nil {
		return nil, ErrDuplicatePayment
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ok, err := s.Addresses.AddressOwnedBy(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAddressNotFound
	}

	lines, err := s.Cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:            uuid.NewString(),
		OrderID:       NewOrderID(),
		UserID:        userID,
		PaymentID:     paymentIntentID,
		PaymentStatus: PaymentCompleted,
		DeliveryAddr:  addressID,
		Status:        StatusProcessing,
	}
	for _, l := range lines {
		o.Lines = append(o.Lines, Line{ProductID: l.ProductID, Quantity: l.Quantity, PriceCents: l.PriceCents})
		o.TotalCents += l.SubtotalCents()
	}

	if err := s.Store.Place(ctx, o); err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePayment), errors.Is(err, ErrInsufficientStock):
			return nil, err
		default:
			return nil, errors.Join(ErrCommitFailed, err)
		}
	}

	s.Log.Info("order placed",
		zap.String("order_id", o.OrderID),
		zap.String("user_id", userID),
		zap.Int64("total_cents", o.TotalCents),
	)
	return o, nil
}

// AdvanceStatus moves an order one step forward in the lifecycle, or to
// Cancelled when that is the explicit target. Landing on Cancelled restocks
// the order's lines, atomically with the status change. target "" means
// "next in the forward chain". The second return value is the status the
// order held before the transition.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, target Status) (*Order, Status, error) {
	o, err := s.Store.ByOrderID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	from := o.Status

	var next Status
	switch target {
	case "":
		next, err = Next(from)
		if err != nil {
			return nil, from, err
		}
	case StatusCancelled:
		if from.Terminal() {
			return nil, from, ErrInvalidOrFinalStatus
		}
		next = StatusCancelled
	default:
		return nil, from, ErrInvalidOrFinalStatus
	}

	var restock []Line
	if next == StatusCancelled {
		restock = o.Lines
	}
	if err := s.Store.Transition(ctx, o.ID, from, next, restock); err != nil {
		return nil, from, err
	}

	s.Log.Info("order status advanced",
		zap.String("order_id", o.OrderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	o.Status = next
	return o, from, nil
}

func (s *Service) OrderByID(ctx context.Context, orderID string) (*Order, error) {
	return s.Store.ByOrderID(ctx, orderID)
}

func (s *Service) OrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.Store.ByUser(ctx, userID)
}

func (s *Service) AllOrders(ctx context.Context) ([]Order, error) {
	return s.Store.All(ctx)
}
