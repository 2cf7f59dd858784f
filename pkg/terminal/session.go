// Package terminal runs the point-of-sale session: the catalog the operator
// browses, the cart being rung up, the cash tendered, and the receipt issued
// when the order is submitted to the fulfillment service.
//
// A Session is the single owner of that state. Every operation runs under
// one mutex and ends by recomputing the derived values (total, change,
// submitability, state) and publishing a Snapshot to subscribers. Network
// and store calls are made with the lock released.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"posterminal/pkg/audio"
	"posterminal/pkg/cart"
	"posterminal/pkg/catalog"
	"posterminal/pkg/errs"
	"posterminal/pkg/logger"
	"posterminal/pkg/metrics"
	"posterminal/pkg/order"
	"posterminal/pkg/payment"
	"posterminal/pkg/printer"
	"posterminal/pkg/receipt"
	"posterminal/pkg/sale"
	"posterminal/pkg/store"
)

// CatalogSource loads the product catalog from upstream.
type CatalogSource interface {
	ItemTypes(ctx context.Context) ([]catalog.Product, error)
}

// OrderLister lists the orders known to the fulfillment service.
type OrderLister interface {
	FulfillmentOrders(ctx context.Context) ([]order.Order, error)
}

// Config wires a Session to its collaborators. Catalog, Orders and
// Fulfillment are required for the operations that use them; the rest
// fall back to silent defaults.
type Config struct {
	Catalog     CatalogSource
	Orders      order.Dispatcher
	Fulfillment OrderLister
	Products    *store.Products
	Sales       *store.Sales
	Player      audio.Player
	Printer     printer.Printer
	Log         *logger.Logger
	Receipts    receipt.Generator
	Router      order.Router
	// LoyaltyMemberID is sent with every order. Empty means anonymous.
	LoyaltyMemberID string
	Denominations   []float64
	Now             func() time.Time
}

// pendingSale is the frozen transaction between Submit and PrintAndProceed.
type pendingSale struct {
	receipt receipt.Receipt
	items   []cart.LineItem
	pay     payment.State
	order   order.Order
}

// Session is safe for concurrent use.
type Session struct {
	cfg Config
	log *logger.Logger

	mu             sync.Mutex
	products       []catalog.Product
	epoch          uint64
	keyword        string
	cart           *cart.Cart
	calc           payment.Calculator
	pay            payment.State
	submitable     bool
	state          State
	receipt        *receipt.Receipt
	receiptVisible bool
	pending        *pendingSale
	printing       bool
	lastCue        audio.Cue
	firstTime      bool
	seeding        bool
	version        uint64
	observers      map[int]func(Snapshot)
	nextObserver   int
}

// New returns an idle session with an empty catalog.
func New(cfg Config) *Session {
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}
	if cfg.Player == nil {
		cfg.Player = audio.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Denominations) == 0 {
		cfg.Denominations = payment.DefaultDenominations
	}
	return &Session{
		cfg:       cfg,
		log:       cfg.Log,
		cart:      cart.New(),
		state:     StateIdle,
		firstTime: true,
		observers: make(map[int]func(Snapshot)),
	}
}

// Init loads the locally stored products. A terminal with no stored
// products is on its first run until StartWithSampleData or StartBlank.
func (s *Session) Init(ctx context.Context) error {
	if s.cfg.Products == nil {
		return nil
	}
	products, err := s.cfg.Products.List(ctx)
	if err != nil {
		return fmt.Errorf("load stored products: %w", err)
	}
	return s.update(ctx, func() (audio.Cue, error) {
		if len(products) > 0 {
			s.epoch++
			s.products = products
			s.firstTime = false
		}
		return audio.CueNone, nil
	})
}

// FirstTime reports whether the operator still has to choose between sample
// data and a blank catalog.
func (s *Session) FirstTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstTime
}

// StartWithSampleData stores products as the local catalog. With no
// products given the upstream item types are used. It is rejected with
// errs.ErrValidation once the first run is over.
func (s *Session) StartWithSampleData(ctx context.Context, products []catalog.Product) ([]catalog.Product, error) {
	s.mu.Lock()
	if err := s.firstRunLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.seeding = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.seeding = false
		s.mu.Unlock()
	}()

	if len(products) == 0 {
		if s.cfg.Catalog == nil {
			return nil, fmt.Errorf("%w: no catalog source configured", errs.ErrValidation)
		}
		fetched, err := s.cfg.Catalog.ItemTypes(ctx)
		if err != nil {
			return nil, asNetwork(err)
		}
		products = fetched
	}

	saved := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if s.cfg.Products != nil {
			p.ID = 0
			if err := s.cfg.Products.Add(ctx, &p); err != nil {
				return nil, fmt.Errorf("store sample product %q: %w", p.Name, err)
			}
		}
		saved = append(saved, p)
	}

	err := s.update(ctx, func() (audio.Cue, error) {
		s.epoch++
		s.products = saved
		s.firstTime = false
		return audio.CueNone, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "started with sample data", "products", len(saved))
	return saved, nil
}

// StartBlank leaves the first run with an empty catalog.
func (s *Session) StartBlank(ctx context.Context) error {
	return s.update(ctx, func() (audio.Cue, error) {
		if err := s.firstRunLocked(); err != nil {
			return audio.CueNone, err
		}
		s.epoch++
		s.products = nil
		s.firstTime = false
		return audio.CueNone, nil
	})
}

func (s *Session) firstRunLocked() error {
	if !s.firstTime || s.seeding {
		return fmt.Errorf("%w: catalog is already set up", errs.ErrValidation)
	}
	return nil
}

// LoadCatalog fetches the catalog from upstream and applies it unless a
// newer load or SetCatalog happened meanwhile. It reports whether the
// response was applied.
func (s *Session) LoadCatalog(ctx context.Context) (bool, error) {
	if s.cfg.Catalog == nil {
		return false, fmt.Errorf("%w: no catalog source configured", errs.ErrValidation)
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	products, err := s.cfg.Catalog.ItemTypes(ctx)
	if err != nil {
		s.log.Error(ctx, "load catalog", "error", err)
		return false, asNetwork(err)
	}

	applied := false
	err = s.update(ctx, func() (audio.Cue, error) {
		if epoch != s.epoch {
			return audio.CueNone, nil
		}
		s.products = products
		applied = true
		return audio.CueNone, nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		metrics.StaleCatalogResponses.Inc()
		s.log.Warn(ctx, "discarded stale catalog response", "epoch", epoch)
		return false, nil
	}
	s.log.Info(ctx, "catalog loaded", "products", len(products))
	return true, nil
}

// SetCatalog replaces the catalog. Loads still in flight are discarded.
func (s *Session) SetCatalog(ctx context.Context, products []catalog.Product) error {
	products = append([]catalog.Product(nil), products...)
	return s.update(ctx, func() (audio.Cue, error) {
		s.epoch++
		s.products = products
		return audio.CueNone, nil
	})
}

// Catalog returns the full catalog.
func (s *Session) Catalog() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Product(nil), s.products...)
}

// SetKeyword sets the search keyword applied by FilteredCatalog.
func (s *Session) SetKeyword(ctx context.Context, keyword string) error {
	return s.update(ctx, func() (audio.Cue, error) {
		s.keyword = keyword
		return audio.CueNone, nil
	})
}

// FilteredCatalog returns the catalog entries matching the keyword.
func (s *Session) FilteredCatalog() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Product(nil), catalog.Filter(s.products, s.keyword)...)
}

// AddToCart adds one unit of the catalog product of the given type.
func (s *Session) AddToCart(ctx context.Context, productType int) error {
	return s.update(ctx, func() (audio.Cue, error) {
		p, ok := catalog.FindByType(s.products, productType)
		if !ok {
			return audio.CueNone, fmt.Errorf("%w: product type %d not in catalog", errs.ErrNotFound, productType)
		}
		return s.addLocked(p)
	})
}

// AddProduct adds one unit of p, which need not be in the catalog.
func (s *Session) AddProduct(ctx context.Context, p catalog.Product) error {
	if err := catalog.Validate(p); err != nil {
		return err
	}
	return s.update(ctx, func() (audio.Cue, error) {
		return s.addLocked(p)
	})
}

func (s *Session) addLocked(p catalog.Product) (audio.Cue, error) {
	if err := s.editableLocked(); err != nil {
		return audio.CueNone, err
	}
	metrics.CartMutations.WithLabelValues("add").Inc()
	return s.cart.Add(p), nil
}

// AdjustQuantity changes the quantity of a cart line by delta. A product
// type that is not in the cart is logged and reported as errs.ErrNotFound
// without changing anything.
func (s *Session) AdjustQuantity(ctx context.Context, productType, delta int) error {
	err := s.update(ctx, func() (audio.Cue, error) {
		if err := s.editableLocked(); err != nil {
			return audio.CueNone, err
		}
		cue, err := s.cart.Adjust(productType, delta)
		if err != nil {
			return audio.CueNone, err
		}
		metrics.CartMutations.WithLabelValues("adjust").Inc()
		return cue, nil
	})
	if errors.Is(err, errs.ErrNotFound) {
		s.log.Warn(ctx, "adjust ignored", "product_type", productType, "delta", delta)
	}
	return err
}

// SetCash replaces the tendered cash.
func (s *Session) SetCash(ctx context.Context, amount float64) error {
	return s.update(ctx, func() (audio.Cue, error) {
		if err := s.editableLocked(); err != nil {
			return audio.CueNone, err
		}
		metrics.CartMutations.WithLabelValues("cash").Inc()
		return audio.CueNone, s.calc.SetCash(amount)
	})
}

// SetCashText replaces the tendered cash with the amount typed by the
// operator.
func (s *Session) SetCashText(ctx context.Context, raw string) error {
	amount, err := payment.ParseCash(raw)
	if err != nil {
		return err
	}
	return s.SetCash(ctx, amount)
}

// AddCash adds a quick-tender amount to the cash.
func (s *Session) AddCash(ctx context.Context, amount float64) error {
	return s.update(ctx, func() (audio.Cue, error) {
		if err := s.editableLocked(); err != nil {
			return audio.CueNone, err
		}
		metrics.CartMutations.WithLabelValues("cash").Inc()
		return audio.CueNone, s.calc.AddCash(amount)
	})
}

// Clear empties the cart and resets cash and receipt. It also abandons a
// submitted receipt that was not printed. It is rejected while an order is
// being submitted or its receipt printed.
func (s *Session) Clear(ctx context.Context) error {
	return s.update(ctx, func() (audio.Cue, error) {
		if s.state == StateSubmitting {
			return audio.CueNone, fmt.Errorf("%w: order is being submitted", errs.ErrValidation)
		}
		if s.printing {
			return audio.CueNone, fmt.Errorf("%w: receipt is being printed", errs.ErrValidation)
		}
		s.clearLocked()
		metrics.CartMutations.WithLabelValues("clear").Inc()
		return audio.CueClear, nil
	})
}

func (s *Session) clearLocked() {
	s.cart.Clear()
	s.calc.Reset()
	s.receipt = nil
	s.receiptVisible = false
	s.pending = nil
	s.printing = false
	s.state = StateIdle
}

// Submit stamps a receipt and dispatches the order. It is rejected while the
// cart is not submitable or another receipt is pending. When dispatch fails
// the receipt is dropped and the cart and cash are kept for a retry.
func (s *Session) Submit(ctx context.Context, now time.Time) (Submission, error) {
	if s.cfg.Orders == nil {
		return Submission{}, fmt.Errorf("%w: no order dispatcher configured", errs.ErrValidation)
	}

	var p pendingSale
	err := s.update(ctx, func() (audio.Cue, error) {
		if s.state.Pending() {
			return audio.CueNone, fmt.Errorf("%w: receipt %s is pending", errs.ErrValidation, s.receipt.Number)
		}
		if !s.submitable {
			return audio.CueNone, fmt.Errorf("%w: cart is empty or cash is short", errs.ErrValidation)
		}
		p = pendingSale{
			receipt: s.cfg.Receipts.Generate(now),
			items:   s.cart.Items(),
			pay:     s.pay,
		}
		p.order = s.cfg.Router.Build(p.items, now, s.cfg.LoyaltyMemberID)
		s.state = StateSubmitting
		s.receipt = &p.receipt
		s.receiptVisible = false
		return audio.CueNone, nil
	})
	if err != nil {
		return Submission{}, err
	}

	ack, dispatchErr := s.cfg.Orders.PlaceOrder(order.WithIdempotencyKey(ctx, p.receipt.Number), p.order)

	err = s.update(ctx, func() (audio.Cue, error) {
		if dispatchErr != nil {
			s.receipt = nil
			s.state = StateFilling
			return audio.CueNone, nil
		}
		s.pending = &p
		s.state = StateSubmitted
		s.receiptVisible = true
		return audio.CueNone, nil
	})
	if dispatchErr != nil {
		metrics.OrdersDispatched.WithLabelValues("failed").Inc()
		s.log.Error(ctx, "dispatch order", "receipt", p.receipt.Number, "error", dispatchErr)
		return Submission{}, asNetwork(dispatchErr)
	}
	if err != nil {
		return Submission{}, err
	}

	metrics.OrdersDispatched.WithLabelValues("ok").Inc()
	s.log.Info(ctx, "order dispatched",
		"receipt", p.receipt.Number,
		"barista_items", len(p.order.BaristaItems),
		"kitchen_items", len(p.order.KitchenItems),
	)
	return Submission{Receipt: p.receipt, Order: p.order, Ack: ack}, nil
}

// CloseReceipt hides the receipt. The transaction stays submitted until it
// is printed or cleared.
func (s *Session) CloseReceipt(ctx context.Context) error {
	return s.update(ctx, func() (audio.Cue, error) {
		s.receiptVisible = false
		return audio.CueNone, nil
	})
}

// PrintAndProceed prints the submitted receipt, records the sale and starts
// a new transaction. Clear is rejected until it returns. A failed print
// keeps the receipt so it can be retried; a failed save is only logged.
func (s *Session) PrintAndProceed(ctx context.Context) (sale.Sale, error) {
	s.mu.Lock()
	p := s.pending
	if s.state != StateSubmitted || p == nil {
		s.mu.Unlock()
		return sale.Sale{}, fmt.Errorf("%w: no submitted receipt to print", errs.ErrValidation)
	}
	s.pending = nil
	s.printing = true
	s.mu.Unlock()

	if s.cfg.Printer != nil {
		err := s.cfg.Printer.Print(ctx, printer.Ticket{
			Receipt: p.receipt,
			Items:   p.items,
			Total:   p.pay.Total,
			Cash:    p.pay.Cash,
			Change:  p.pay.Change,
		})
		if err != nil {
			s.mu.Lock()
			s.printing = false
			if s.state == StateSubmitted && s.pending == nil {
				s.pending = p
			}
			s.mu.Unlock()
			s.log.Error(ctx, "print receipt", "receipt", p.receipt.Number, "error", err)
			return sale.Sale{}, fmt.Errorf("print receipt %s: %w", p.receipt.Number, err)
		}
	}

	rec := sale.Sale{
		ReceiptNumber: p.receipt.Number,
		ReceiptDate:   p.receipt.Date,
		Items:         p.items,
		Total:         p.pay.Total,
		Cash:          p.pay.Cash,
		Change:        p.pay.Change,
		Order:         p.order,
		CreatedAt:     s.cfg.Now().UTC(),
	}
	if s.cfg.Sales != nil {
		if err := s.cfg.Sales.Add(ctx, &rec); err != nil {
			s.log.Error(ctx, "save sale", "receipt", rec.ReceiptNumber, "error", err)
		}
	}

	err := s.update(ctx, func() (audio.Cue, error) {
		s.printing = false
		if s.receipt != nil && s.receipt.Number == p.receipt.Number {
			s.clearLocked()
		}
		return audio.CueNone, nil
	})
	return rec, err
}

// Sales lists the recorded sales.
func (s *Session) Sales(ctx context.Context) ([]sale.Sale, error) {
	if s.cfg.Sales == nil {
		return []sale.Sale{}, nil
	}
	return s.cfg.Sales.List(ctx)
}

// FulfillmentOrders lists the orders known to the fulfillment service.
func (s *Session) FulfillmentOrders(ctx context.Context) ([]order.Order, error) {
	if s.cfg.Fulfillment == nil {
		return nil, fmt.Errorf("%w: no fulfillment source configured", errs.ErrValidation)
	}
	orders, err := s.cfg.Fulfillment.FulfillmentOrders(ctx)
	if err != nil {
		return nil, asNetwork(err)
	}
	return orders, nil
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. fn is
// called without the session lock held. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// update runs fn under the lock. When fn succeeds the derived state is
// recomputed, the returned cue is played and observers are notified.
func (s *Session) update(ctx context.Context, fn func() (audio.Cue, error)) error {
	s.mu.Lock()
	cue, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.recomputeLocked()
	if cue != audio.CueNone {
		s.lastCue = cue
	}
	s.version++
	snap := s.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	if cue != audio.CueNone {
		s.cfg.Player.Play(ctx, cue)
	}
	for _, notify := range observers {
		notify(snap)
	}
	return nil
}

func (s *Session) recomputeLocked() {
	s.pay = s.calc.Compute(s.cart.Items())
	s.submitable = payment.Submitable(s.cart.Len(), s.pay.Change)
	if s.state.Pending() {
		return
	}
	switch {
	case s.submitable:
		s.state = StateReadyToSubmit
	case s.cart.Empty() && s.pay.Cash == 0:
		s.state = StateIdle
	default:
		s.state = StateFilling
	}
}

func (s *Session) editableLocked() error {
	if s.state.Pending() {
		return fmt.Errorf("%w: cart is locked while a receipt is pending", errs.ErrValidation)
	}
	return nil
}

func (s *Session) snapshotLocked() Snapshot {
	items := s.cart.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	snap := Snapshot{
		Version:        s.version,
		State:          s.state,
		Keyword:        s.keyword,
		Items:          items,
		Count:          s.cart.Count(),
		Cash:           s.pay.Cash,
		Total:          s.pay.Total,
		Change:         s.pay.Change,
		Submitable:     s.submitable,
		ReceiptVisible: s.receiptVisible,
		LastCue:        s.lastCue,
		Denominations:  append([]float64(nil), s.cfg.Denominations...),
		FirstTime:      s.firstTime,
	}
	if s.receipt != nil {
		r := *s.receipt
		snap.Receipt = &r
	}
	return snap
}

func asNetwork(err error) error {
	if errors.Is(err, errs.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", errs.ErrNetwork, err)
}
