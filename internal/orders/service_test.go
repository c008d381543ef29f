package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/cart"
	"github.com/swiftcart/backend/internal/payments"
)

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]payments.Intent
	seq     int
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents int64, _, _ string, _ map[string]string) (payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	in := payments.Intent{
		ID:           fmt.Sprintf("pi_%d", g.seq),
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.seq),
		Status:       payments.StatusSucceeded,
		AmountCents:  amountCents,
	}
	if g.intents == nil {
		g.intents = map[string]payments.Intent{}
	}
	g.intents[in.ID] = in
	return in, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return payments.Intent{}, fmt.Errorf("intent not found: %s", id)
	}
	return in, nil
}

// put registers an intent with an explicit status.
func (g *fakeGateway) put(id, status string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.intents == nil {
		g.intents = map[string]payments.Intent{}
	}
	g.intents[id] = payments.Intent{ID: id, Status: status, AmountCents: amount}
}

type fakeCart struct {
	mu    sync.Mutex
	lines map[string][]cart.Line
}

func (c *fakeCart) Lines(_ context.Context, userID string) ([]cart.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cart.Line, len(c.lines[userID]))
	copy(out, c.lines[userID])
	return out, nil
}

func (c *fakeCart) set(userID string, lines ...cart.Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines == nil {
		c.lines = map[string][]cart.Line{}
	}
	c.lines[userID] = lines
}

func (c *fakeCart) clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, userID)
}

func (c *fakeCart) count(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines[userID])
}

type fakeAddresses struct{ owned map[string]string }

func (a *fakeAddresses) AddressOwnedBy(_ context.Context, addressID, userID string) (bool, error) {
	return a.owned[addressID] == userID, nil
}

// fakeStore mimics the pgx store: Place and Transition are atomic, the stock
// decrement is conditional, and a payment id can be used at most once.
type fakeStore struct {
	mu        sync.Mutex
	orders    map[string]*Order
	stock     map[string]int
	history   map[string][]string
	cart      *fakeCart
	failPlace bool // fail after the decrements, before the order is persisted
}

func newFakeStore(c *fakeCart) *fakeStore {
	return &fakeStore{
		orders:  map[string]*Order{},
		stock:   map[string]int{},
		history: map[string][]string{},
		cart:    c,
	}
}

func (s *fakeStore) Place(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.PaymentID == o.PaymentID {
			return ErrDuplicatePayment
		}
	}

	// stage the decrements so a failure leaves nothing applied
	staged := make(map[string]int, len(o.Lines))
	for _, l := range o.Lines {
		cur, ok := staged[l.ProductID]
		if !ok {
			cur = s.stock[l.ProductID]
		}
		if cur < l.Quantity {
			return ErrInsufficientStock
		}
		staged[l.ProductID] = cur - l.Quantity
	}
	if s.failPlace {
		return errors.New("storage failure")
	}

	for pid, v := range staged {
		s.stock[pid] = v
	}
	cp := *o
	s.orders[o.ID] = &cp
	s.history[o.UserID] = append(s.history[o.UserID], o.ID)
	s.cart.clear(o.UserID)
	return nil
}

func (s *fakeStore) Transition(_ context.Context, storageID string, from, to Status, restock []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[storageID]
	if !ok || o.Status != from {
		return ErrInvalidOrFinalStatus
	}
	o.Status = to
	for _, l := range restock {
		s.stock[l.ProductID] += l.Quantity
	}
	return nil
}

func (s *fakeStore) ByPaymentID(_ context.Context, paymentID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ByOrderID(_ context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderID == orderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ByUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeStore) All(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeStore) stockOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[productID]
}

const (
	testUser    = "user-1"
	testAddress = "addr-1"
	productA    = "prod-a"
)

func newTestService() (*Service, *fakeStore, *fakeCart, *fakeGateway) {
	c := &fakeCart{}
	st := newFakeStore(c)
	g := &fakeGateway{}
	svc := &Service{
		Gateway:   g,
		Store:     st,
		Cart:      c,
		Addresses: &fakeAddresses{owned: map[string]string{testAddress: testUser}},
		Currency:  "inr",
		Log:       zap.NewNop(),
	}
	return svc, st, c, g
}

func TestPreparePaymentIntent(t *testing.T) {
	svc, st, c, _ := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Name: "Widget", Quantity: 2, PriceCents: 10000, Stock: 5})

	prep, err := svc.PreparePaymentIntent(context.Background(), testUser, testAddress, "pm_card")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prep.TotalCents != 20000 {
		t.Fatalf("total = %d, want 20000", prep.TotalCents)
	}
	if prep.PaymentIntentID == "" || prep.ClientSecret == "" {
		t.Fatalf("missing intent id or client secret: %+v", prep)
	}
	// preparing must not touch stock or the cart
	if got := st.stockOf(productA); got != 5 {
		t.Fatalf("stock = %d, want 5", got)
	}
	if c.count(testUser) != 1 {
		t.Fatalf("cart was modified")
	}
}

func TestPreparePaymentIntent_EmptyCart(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.PreparePaymentIntent(context.Background(), testUser, testAddress, "pm_card"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestPreparePaymentIntent_InsufficientStock(t *testing.T) {
	svc, _, c, _ := newTestService()
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 3, PriceCents: 100, Stock: 2})
	if _, err := svc.PreparePaymentIntent(context.Background(), testUser, testAddress, "pm_card"); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestPreparePaymentIntent_AddressNotOwned(t *testing.T) {
	svc, _, c, _ := newTestService()
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 1, PriceCents: 100, Stock: 5})
	if _, err := svc.PreparePaymentIntent(context.Background(), testUser, "someone-elses", "pm_card"); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("err = %v, want ErrAddressNotFound", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Name: "Widget", Quantity: 2, PriceCents: 10000, Stock: 5})
	g.put("pi_ok", payments.StatusSucceeded, 20000)

	o, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if o.TotalCents != 20000 {
		t.Errorf("total = %d, want 20000", o.TotalCents)
	}
	if o.Status != StatusProcessing {
		t.Errorf("status = %s, want Processing", o.Status)
	}
	if o.PaymentStatus != PaymentCompleted {
		t.Errorf("payment status = %s, want Completed", o.PaymentStatus)
	}
	if len(o.OrderID) != len("ORD-xxxxxxxx") || o.OrderID[:4] != "ORD-" {
		t.Errorf("order id = %q", o.OrderID)
	}
	if len(o.Lines) != 1 || o.Lines[0].PriceCents != 10000 || o.Lines[0].Quantity != 2 {
		t.Errorf("lines = %+v", o.Lines)
	}
	if got := st.stockOf(productA); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
	if c.count(testUser) != 0 {
		t.Errorf("cart not cleared")
	}
	if len(st.history[testUser]) != 1 {
		t.Errorf("order history = %v", st.history[testUser])
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 1
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 2, PriceCents: 100, Stock: 1})
	g.put("pi_ok", payments.StatusSucceeded, 200)

	_, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := st.stockOf(productA); got != 1 {
		t.Errorf("stock = %d, want 1", got)
	}
	if len(st.orders) != 0 {
		t.Errorf("order was created")
	}
	if c.count(testUser) != 1 {
		t.Errorf("cart was cleared on failure")
	}
}

func TestPlaceOrder_PaymentNotSuccessful(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 1, PriceCents: 100, Stock: 5})
	g.put("pi_pending", "requires_payment_method", 100)

	if _, err := svc.PlaceOrder(context.Background(), testUser, "pi_pending", testAddress); !errors.Is(err, ErrPaymentNotSuccessful) {
		t.Fatalf("err = %v, want ErrPaymentNotSuccessful", err)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _, _, g := newTestService()
	g.put("pi_ok", payments.StatusSucceeded, 100)
	if _, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestPlaceOrder_Idempotency(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 2, PriceCents: 100, Stock: 5})
	g.put("pi_once", payments.StatusSucceeded, 200)

	if _, err := svc.PlaceOrder(context.Background(), testUser, "pi_once", testAddress); err != nil {
		t.Fatalf("first place: %v", err)
	}

	// a replayed request with the same intent must not create a second order,
	// decrement more stock, or clear the refilled cart
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 1, PriceCents: 100, Stock: 3})
	_, err := svc.PlaceOrder(context.Background(), testUser, "pi_once", testAddress)
	if !errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("err = %v, want ErrDuplicatePayment", err)
	}
	if len(st.orders) != 1 {
		t.Errorf("orders = %d, want 1", len(st.orders))
	}
	if got := st.stockOf(productA); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
	if c.count(testUser) != 1 {
		t.Errorf("cart cleared by the duplicate attempt")
	}
}

func TestPlaceOrder_AtomicRollback(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 2, PriceCents: 100, Stock: 5})
	g.put("pi_ok", payments.StatusSucceeded, 200)
	st.failPlace = true

	_, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress)
	if !errors.Is(err, ErrCommitFailed) {
		t.Fatalf("err = %v, want ErrCommitFailed", err)
	}
	if got := st.stockOf(productA); got != 5 {
		t.Errorf("stock = %d, want 5 after rollback", got)
	}
	if c.count(testUser) != 1 {
		t.Errorf("cart cleared despite rollback")
	}
	if len(st.orders) != 0 {
		t.Errorf("order persisted despite rollback")
	}
}

func TestPlaceOrder_ConcurrentSameProduct(t *testing.T) {
	svc, st, _, g := newTestService()
	st.stock[productA] = 1
	g.put("pi_1", payments.StatusSucceeded, 100)
	g.put("pi_2", payments.StatusSucceeded, 100)

	// two users, distinct intents, both want the last unit
	users := []string{"user-1", "user-2"}
	addrs := svc.Addresses.(*fakeAddresses)
	carts := svc.Cart.(*fakeCart)
	for _, u := range users {
		addrs.owned["addr-"+u] = u
		carts.set(u, cart.Line{ProductID: productA, Quantity: 1, PriceCents: 100, Stock: 1})
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(u, intent string) {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), u, intent, "addr-"+u)
			errs <- err
		}(u, fmt.Sprintf("pi_%d", i+1))
	}
	wg.Wait()
	close(errs)

	var okCount, shortCount int
	for err := range errs {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, ErrInsufficientStock):
			shortCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || shortCount != 1 {
		t.Fatalf("ok=%d short=%d, want exactly one of each", okCount, shortCount)
	}
	if got := st.stockOf(productA); got != 0 {
		t.Fatalf("stock = %d, want 0 (never negative)", got)
	}
}

func TestAdvanceStatus_ForwardChain(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 2, PriceCents: 100, Stock: 5})
	g.put("pi_ok", payments.StatusSucceeded, 200)

	o, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	prev := o.Status
	for _, want := range []Status{StatusShipped, StatusDelivered} {
		var from Status
		o, from, err = svc.AdvanceStatus(context.Background(), o.OrderID, "")
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if o.Status != want {
			t.Fatalf("status = %s, want %s", o.Status, want)
		}
		if from != prev {
			t.Fatalf("from = %s, want %s", from, prev)
		}
		prev = want
	}

	// Delivered is terminal
	if _, _, err := svc.AdvanceStatus(context.Background(), o.OrderID, ""); !errors.Is(err, ErrInvalidOrFinalStatus) {
		t.Fatalf("err = %v, want ErrInvalidOrFinalStatus", err)
	}
	if _, _, err := svc.AdvanceStatus(context.Background(), o.OrderID, StatusCancelled); !errors.Is(err, ErrInvalidOrFinalStatus) {
		t.Fatalf("cancel after Delivered: err = %v, want ErrInvalidOrFinalStatus", err)
	}
	if got := st.stockOf(productA); got != 3 {
		t.Fatalf("stock = %d, want 3 (no restock on forward transitions)", got)
	}
}

func TestAdvanceStatus_CancelRestocksOnce(t *testing.T) {
	svc, st, c, g := newTestService()
	st.stock[productA] = 5
	c.set(testUser, cart.Line{ProductID: productA, Quantity: 2, PriceCents: 100, Stock: 5})
	g.put("pi_ok", payments.StatusSucceeded, 200)

	o, err := svc.PlaceOrder(context.Background(), testUser, "pi_ok", testAddress)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	// ship first, then cancel: restock must return exactly the purchased qty
	if o, _, err = svc.AdvanceStatus(context.Background(), o.OrderID, ""); err != nil {
		t.Fatalf("ship: %v", err)
	}
	var from Status
	if o, from, err = svc.AdvanceStatus(context.Background(), o.OrderID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != StatusCancelled || from != StatusShipped {
		t.Fatalf("status = %s from %s, want Cancelled from Shipped", o.Status, from)
	}
	if got := st.stockOf(productA); got != 5 {
		t.Fatalf("stock = %d, want 5 after restock", got)
	}

	// a second cancel must fail and must not restock again
	if _, _, err := svc.AdvanceStatus(context.Background(), o.OrderID, StatusCancelled); !errors.Is(err, ErrInvalidOrFinalStatus) {
		t.Fatalf("err = %v, want ErrInvalidOrFinalStatus", err)
	}
	if got := st.stockOf(productA); got != 5 {
		t.Fatalf("stock = %d, want 5 (restock happened twice)", got)
	}
}

// Conservation: initial - Σcommitted + Σcancelled == current, never negative.
func TestStockConservation(t *testing.T) {
	svc, st, c, g := newTestService()
	const initial = 10
	st.stock[productA] = initial

	var committed, cancelled int
	var placed []string
	for i := 0; i < 4; i++ {
		qty := i + 1 // 1,2,3,4
		intent := fmt.Sprintf("pi_c%d", i)
		g.put(intent, payments.StatusSucceeded, int64(qty*100))
		c.set(testUser, cart.Line{ProductID: productA, Quantity: qty, PriceCents: 100, Stock: st.stockOf(productA)})
		o, err := svc.PlaceOrder(context.Background(), testUser, intent, testAddress)
		if err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				continue
			}
			t.Fatalf("place %d: %v", i, err)
		}
		committed += qty
		placed = append(placed, o.OrderID)
	}

	if len(placed) > 0 {
		if _, _, err := svc.AdvanceStatus(context.Background(), placed[0], StatusCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		cancelled = 1 // first order bought qty 1
	}

	want := initial - committed + cancelled
	if got := st.stockOf(productA); got != want {
		t.Fatalf("stock = %d, want %d", got, want)
	}
	if st.stockOf(productA) < 0 {
		t.Fatalf("stock went negative")
	}
}
