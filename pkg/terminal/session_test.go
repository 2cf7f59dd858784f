package terminal_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterminal/pkg/audio"
	"posterminal/pkg/catalog"
	"posterminal/pkg/errs"
	"posterminal/pkg/order"
	"posterminal/pkg/printer"
	"posterminal/pkg/receipt"
	"posterminal/pkg/store"
	"posterminal/pkg/store/memory"
	"posterminal/pkg/terminal"
)

var (
	espresso   = catalog.Product{Name: "ESPRESSO", Price: 10000, Type: 2}
	latte      = catalog.Product{Name: "LATTE", Price: 5000, Type: 5}
	cakepop    = catalog.Product{Name: "CAKEPOP", Price: 5000, Type: 6}
	croissant  = catalog.Product{Name: "CROISSANT_CHOCOLATE", Price: 5000, Type: 9}
	menu       = []catalog.Product{espresso, latte, cakepop, croissant}
	submitTime = time.Date(2026, 10, 15, 7, 5, 9, 0, time.UTC)
)

type fakeCatalog struct {
	mu       sync.Mutex
	products []catalog.Product
	err      error
	started  chan struct{}
	gate     chan struct{}
}

func (f *fakeCatalog) ItemTypes(context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	started, gate, products, err := f.started, f.gate, f.products, f.err
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	return products, err
}

type fakeDispatcher struct {
	mu     sync.Mutex
	err    error
	orders []order.Order
	keys   []string
}

func (f *fakeDispatcher) PlaceOrder(ctx context.Context, o order.Order) (order.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return order.Ack{}, f.err
	}
	f.orders = append(f.orders, o)
	f.keys = append(f.keys, order.IdempotencyKey(ctx))
	return order.Ack{Body: []byte(`{}`)}, nil
}

type capturePrinter struct {
	err     error
	during  func()
	tickets []printer.Ticket
}

func (p *capturePrinter) Print(_ context.Context, t printer.Ticket) error {
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return p.err
	}
	p.tickets = append(p.tickets, t)
	return nil
}

type fixture struct {
	session    *terminal.Session
	catalog    *fakeCatalog
	dispatcher *fakeDispatcher
	printer    *capturePrinter
	player     *audio.Recorder
	products   *store.Products
	sales      *store.Sales
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := memory.New()
	f := &fixture{
		catalog:    &fakeCatalog{products: menu},
		dispatcher: &fakeDispatcher{},
		printer:    &capturePrinter{},
		player:     &audio.Recorder{},
		products:   store.NewProducts(backend),
		sales:      store.NewSales(backend),
	}
	f.session = terminal.New(terminal.Config{
		Catalog:  f.catalog,
		Orders:   f.dispatcher,
		Products: f.products,
		Sales:    f.sales,
		Player:   f.player,
		Printer:  f.printer,
		Receipts: receipt.Generator{Location: time.UTC},
		Router:   order.NewRouter(),
		Now:      func() time.Time { return submitTime },
	})
	require.NoError(t, f.session.SetCatalog(context.Background(), menu))
	return f
}

func TestStartsIdle(t *testing.T) {
	f := newFixture(t)
	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateIdle, snap.State)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Submitable)
	assert.Nil(t, snap.Receipt)
}

func TestTotalsAndChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.session.AddToCart(ctx, espresso.Type))
	require.NoError(t, f.session.AddToCart(ctx, espresso.Type))
	require.NoError(t, f.session.AddToCart(ctx, cakepop.Type))
	require.NoError(t, f.session.AddToCart(ctx, latte.Type))

	snap := f.session.Snapshot()
	assert.Equal(t, 30000.0, snap.Total)
	assert.Equal(t, terminal.StateFilling, snap.State)
	assert.False(t, snap.Submitable)

	require.NoError(t, f.session.AddToCart(ctx, croissant.Type))
	require.NoError(t, f.session.SetCash(ctx, 40000))

	snap = f.session.Snapshot()
	assert.Equal(t, 35000.0, snap.Total)
	assert.Equal(t, 5000.0, snap.Change)
	assert.True(t, snap.Submitable)
	assert.Equal(t, terminal.StateReadyToSubmit, snap.State)
	assert.Equal(t, 5, snap.Count)
}

func TestExactCashIsSubmitable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.AddToCart(ctx, latte.Type))
	require.NoError(t, f.session.SetCash(ctx, 5000))
	snap := f.session.Snapshot()
	assert.Zero(t, snap.Change)
	assert.True(t, snap.Submitable)
}

func TestCashWithoutItemsIsNotSubmitable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.SetCash(ctx, 100000))
	snap := f.session.Snapshot()
	assert.False(t, snap.Submitable)
	assert.Equal(t, terminal.StateFilling, snap.State)
}

func TestCashText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.SetCashText(ctx, "Rp. 50.000"))
	assert.Equal(t, 50000.0, f.session.Snapshot().Cash)

	err := f.session.SetCashText(ctx, "abc")
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 50000.0, f.session.Snapshot().Cash)

	require.ErrorIs(t, f.session.SetCash(ctx, -1), errs.ErrValidation)
	require.NoError(t, f.session.AddCash(ctx, 20000))
	assert.Equal(t, 70000.0, f.session.Snapshot().Cash)
}

func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.AddToCart(ctx, latte.Type))
	require.NoError(t, f.session.AdjustQuantity(ctx, latte.Type, 2))
	assert.Equal(t, 3, f.session.Snapshot().Items[0].Quantity)

	require.ErrorIs(t, f.session.AdjustQuantity(ctx, latte.Type, -4), errs.ErrValidation)
	require.ErrorIs(t, f.session.AdjustQuantity(ctx, cakepop.Type, 1), errs.ErrNotFound)
	assert.Equal(t, 3, f.session.Snapshot().Items[0].Quantity)

	require.NoError(t, f.session.AdjustQuantity(ctx, latte.Type, -3))
	snap := f.session.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, audio.CueClear, snap.LastCue)
	assert.Equal(t, []audio.Cue{audio.CueConfirm, audio.CueConfirm, audio.CueClear}, f.player.Cues())
}

func TestAddUnknownType(t *testing.T) {
	f := newFixture(t)
	err := f.session.AddToCart(context.Background(), 42)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	water := catalog.Product{Name: "WATER", Price: 3000, Type: 20}

	require.NoError(t, f.session.AddProduct(ctx, water))
	require.NoError(t, f.session.AddProduct(ctx, water))
	snap := f.session.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, 6000.0, snap.Total)

	for _, bad := range []catalog.Product{
		{Name: "FREEBIE", Price: -1000, Type: 21},
		{Name: "BROKEN", Price: math.NaN(), Type: 22},
		{Name: "GOLD", Price: math.Inf(1), Type: 23},
		{Name: "NEGATIVE", Price: 1000, Type: -1},
	} {
		require.ErrorIs(t, f.session.AddProduct(ctx, bad), errs.ErrValidation, bad.Name)
	}
	assert.Equal(t, snap, f.session.Snapshot())
}

func TestAddCashOverflowRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.AddToCart(ctx, latte.Type))
	require.NoError(t, f.session.AddCash(ctx, math.MaxFloat64))

	require.ErrorIs(t, f.session.AddCash(ctx, math.MaxFloat64), errs.ErrValidation)
	snap := f.session.Snapshot()
	assert.Equal(t, math.MaxFloat64, snap.Cash)
	assert.False(t, math.IsInf(snap.Change, 0))
}

func TestKeywordFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.session.SetKeyword(ctx, "latt"))
	assert.Equal(t, []catalog.Product{latte}, f.session.FilteredCatalog())

	require.NoError(t, f.session.SetKeyword(ctx, "  "))
	assert.Equal(t, menu, f.session.FilteredCatalog())
	assert.Equal(t, menu, f.session.Catalog())
}

func readyCart(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	for _, p := range menu {
		require.NoError(t, f.session.AddToCart(ctx, p.Type))
	}
	require.NoError(t, f.session.AdjustQuantity(ctx, espresso.Type, 1))
	require.NoError(t, f.session.SetCash(ctx, 40000))
}

func TestSubmitPrintAndProceed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)

	sub, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)
	assert.Equal(t, "TWPOS-KS-1792047909", sub.Receipt.Number)
	assert.Equal(t, "15/10/26 07.05", sub.Receipt.Date)
	assert.Equal(t, []order.Item{{ItemType: 2}, {ItemType: 5}}, sub.Order.BaristaItems)
	assert.Equal(t, []order.Item{{ItemType: 6}, {ItemType: 9}}, sub.Order.KitchenItems)
	assert.Equal(t, order.AnonymousLoyaltyMemberID, sub.Order.LoyaltyMemberID)
	assert.Equal(t, []string{"TWPOS-KS-1792047909"}, f.dispatcher.keys)

	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateSubmitted, snap.State)
	require.NotNil(t, snap.Receipt)
	assert.True(t, snap.ReceiptVisible)

	require.NoError(t, f.session.CloseReceipt(ctx))
	snap = f.session.Snapshot()
	assert.False(t, snap.ReceiptVisible)
	assert.Equal(t, terminal.StateSubmitted, snap.State)
	assert.Len(t, snap.Items, 4)

	rec, err := f.session.PrintAndProceed(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Receipt.Number, rec.ReceiptNumber)
	require.Len(t, f.printer.tickets, 1)
	assert.Equal(t, 5000.0, f.printer.tickets[0].Change)

	sales, err := f.session.Sales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 35000.0, sales[0].Total)
	assert.NotZero(t, sales[0].ID)

	snap = f.session.Snapshot()
	assert.Equal(t, terminal.StateIdle, snap.State)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Cash)
	assert.Nil(t, snap.Receipt)
}

func TestSubmitRejectedWhenNotSubmitable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.session.Submit(ctx, submitTime)
	require.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, f.session.AddToCart(ctx, espresso.Type))
	require.NoError(t, f.session.SetCash(ctx, 9999))
	_, err = f.session.Submit(ctx, submitTime)
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.dispatcher.orders)
}

func TestDoubleSubmitRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)

	_, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)
	_, err = f.session.Submit(ctx, submitTime.Add(time.Second))
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Len(t, f.dispatcher.orders, 1)
}

func TestCartLockedWhileSubmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	_, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)

	require.ErrorIs(t, f.session.AddToCart(ctx, latte.Type), errs.ErrValidation)
	require.ErrorIs(t, f.session.AdjustQuantity(ctx, latte.Type, 1), errs.ErrValidation)
	require.ErrorIs(t, f.session.SetCash(ctx, 1), errs.ErrValidation)
	assert.Equal(t, 40000.0, f.session.Snapshot().Cash)

	require.NoError(t, f.session.Clear(ctx))
	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateIdle, snap.State)
	assert.Nil(t, snap.Receipt)
	_, err = f.session.PrintAndProceed(ctx)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestDispatchFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	f.dispatcher.err = errors.New("connection refused")

	_, err := f.session.Submit(ctx, submitTime)
	require.ErrorIs(t, err, errs.ErrNetwork)

	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateReadyToSubmit, snap.State)
	assert.Nil(t, snap.Receipt)
	assert.Len(t, snap.Items, 4)
	assert.Equal(t, 40000.0, snap.Cash)

	f.dispatcher.err = nil
	_, err = f.session.Submit(ctx, submitTime)
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.orders, 1)
}

func TestPrintFailureKeepsReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	_, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)

	f.printer.err = errors.New("out of paper")
	_, err = f.session.PrintAndProceed(ctx)
	require.Error(t, err)
	assert.Equal(t, terminal.StateSubmitted, f.session.Snapshot().State)

	f.printer.err = nil
	_, err = f.session.PrintAndProceed(ctx)
	require.NoError(t, err)
	assert.Equal(t, terminal.StateIdle, f.session.Snapshot().State)
}

func TestClearRejectedWhilePrinting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	sub, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)

	var clearErr error
	f.printer.during = func() { clearErr = f.session.Clear(ctx) }
	rec, err := f.session.PrintAndProceed(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, clearErr, errs.ErrValidation)
	assert.Equal(t, sub.Receipt.Number, rec.ReceiptNumber)

	sales, err := f.sales.List(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sub.Receipt.Number, sales[0].ReceiptNumber)

	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateIdle, snap.State)
	assert.Nil(t, snap.Receipt)
	require.NoError(t, f.session.Clear(ctx))
}

func TestClearAllowedAfterFailedPrint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	_, err := f.session.Submit(ctx, submitTime)
	require.NoError(t, err)

	f.printer.err = errors.New("out of paper")
	_, err = f.session.PrintAndProceed(ctx)
	require.Error(t, err)

	require.NoError(t, f.session.Clear(ctx))
	_, err = f.session.PrintAndProceed(ctx)
	require.ErrorIs(t, err, errs.ErrValidation)

	sales, err := f.sales.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestPrintWithoutSubmit(t *testing.T) {
	_, err := newFixture(t).session.PrintAndProceed(context.Background())
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestClearResetsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readyCart(t, f)
	require.NoError(t, f.session.Clear(ctx))
	snap := f.session.Snapshot()
	assert.Equal(t, terminal.StateIdle, snap.State)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Cash)
	assert.Zero(t, snap.Total)
	assert.Equal(t, audio.CueClear, snap.LastCue)
}

func TestLoadCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.catalog.products = []catalog.Product{latte}

	applied, err := f.session.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []catalog.Product{latte}, f.session.Catalog())

	f.catalog.err = errors.New("timeout")
	_, err = f.session.LoadCatalog(ctx)
	require.ErrorIs(t, err, errs.ErrNetwork)
	assert.Equal(t, []catalog.Product{latte}, f.session.Catalog())
}

func TestStaleCatalogDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	started, gate := make(chan struct{}), make(chan struct{})
	f.catalog.mu.Lock()
	f.catalog.started = started
	f.catalog.gate = gate
	f.catalog.products = []catalog.Product{cakepop}
	f.catalog.mu.Unlock()

	type result struct {
		applied bool
		err     error
	}
	done := make(chan result)
	go func() {
		applied, err := f.session.LoadCatalog(ctx)
		done <- result{applied, err}
	}()

	<-started
	require.NoError(t, f.session.SetCatalog(ctx, []catalog.Product{latte}))
	close(gate)

	res := <-done
	require.NoError(t, res.err)
	assert.False(t, res.applied)
	assert.Equal(t, []catalog.Product{latte}, f.session.Catalog())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var got []terminal.Snapshot
	unsubscribe := f.session.Subscribe(func(s terminal.Snapshot) { got = append(got, s) })
	require.NoError(t, f.session.AddToCart(ctx, latte.Type))
	require.NoError(t, f.session.SetCash(ctx, 5000))
	unsubscribe()
	require.NoError(t, f.session.Clear(ctx))

	require.Len(t, got, 2)
	assert.Equal(t, terminal.StateFilling, got[0].State)
	assert.Equal(t, terminal.StateReadyToSubmit, got[1].State)
	assert.Less(t, got[0].Version, got[1].Version)
}

func TestFirstRun(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	products := store.NewProducts(backend)
	src := &fakeCatalog{products: menu}

	s := terminal.New(terminal.Config{Catalog: src, Products: products})
	require.NoError(t, s.Init(ctx))
	assert.True(t, s.FirstTime())

	saved, err := s.StartWithSampleData(ctx, nil)
	require.NoError(t, err)
	require.Len(t, saved, len(menu))
	assert.NotZero(t, saved[0].ID)
	assert.False(t, s.FirstTime())

	again := terminal.New(terminal.Config{Products: products})
	require.NoError(t, again.Init(ctx))
	assert.False(t, again.FirstTime())
	assert.Len(t, again.Catalog(), len(menu))
}

func TestStartBlank(t *testing.T) {
	ctx := context.Background()
	s := terminal.New(terminal.Config{Products: store.NewProducts(memory.New())})
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.StartBlank(ctx))
	assert.False(t, s.FirstTime())
	assert.Empty(t, s.Catalog())
}

func TestSampleDataOnlyOnFirstRun(t *testing.T) {
	ctx := context.Background()
	products := store.NewProducts(memory.New())
	s := terminal.New(terminal.Config{Catalog: &fakeCatalog{products: menu}, Products: products})
	require.NoError(t, s.Init(ctx))

	_, err := s.StartWithSampleData(ctx, nil)
	require.NoError(t, err)
	_, err = s.StartWithSampleData(ctx, nil)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.ErrorIs(t, s.StartBlank(ctx), errs.ErrValidation)
	assert.Len(t, s.Catalog(), len(menu))

	restarted := terminal.New(terminal.Config{Products: products})
	require.NoError(t, restarted.Init(ctx))
	got := restarted.Catalog()
	require.Len(t, got, len(menu))
	for _, p := range menu {
		found, ok := catalog.FindByType(got, p.Type)
		require.True(t, ok, p.Name)
		assert.Equal(t, p.Name, found.Name)
	}
	_, err = restarted.StartWithSampleData(ctx, menu)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestSampleDataAfterStartBlankRejected(t *testing.T) {
	ctx := context.Background()
	s := terminal.New(terminal.Config{Products: store.NewProducts(memory.New())})
	require.NoError(t, s.StartBlank(ctx))
	_, err := s.StartWithSampleData(ctx, menu)
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, s.Catalog())
}
