package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packfolio/concierge/pkg/adapters/memory"
	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/engine"
	"github.com/packfolio/concierge/pkg/ports"
	"github.com/packfolio/concierge/pkg/session"
)

type fakeCatalog struct {
	calls    int
	packages []domain.Package
	err      error
}

func (f *fakeCatalog) FetchActiveCatalog(ctx context.Context, shop ports.ShopIdentity) ([]domain.Package, error) {
	f.calls++
	return f.packages, f.err
}

type fakeOrders struct {
	calls int
	err   error
}

func (f *fakeOrders) CreateOrder(ctx context.Context, shop ports.ShopIdentity, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DraftOrder{OrderID: "900", AdminURL: "https://shop.example/admin/draft_orders/900", InvoiceURL: "https://pay.example/900"}, nil
}

type scriptedOracle struct {
	responses []string
	calls     int
}

func (s *scriptedOracle) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if s.calls >= len(s.responses) {
		return "", errors.New("oracle script exhausted")
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type harness struct {
	engine  *engine.Engine
	store   *memory.Store
	catalog *fakeCatalog
	orders  *fakeOrders
	now     time.Time
}

func newHarness(t *testing.T, oracle ports.Generator) *harness {
	t.Helper()
	store := memory.NewStore()
	h := &harness{
		store: store,
		catalog: &fakeCatalog{packages: []domain.Package{
			{ID: "101", Title: "Mailer Box", Variants: []domain.Variant{
				{ID: "1001", Title: "Small", Price: "12.00"},
				{ID: "1002", Title: "Large", Price: "18.50"},
			}},
		}},
		orders: &fakeOrders{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.engine = engine.New(engine.Config{
		Sessions: session.NewManager(store),
		Cache:    store,
		Catalog:  h.catalog,
		Orders:   h.orders,
		Oracle:   oracle,
		Shop:     ports.ShopIdentity{Domain: "shop.example", Token: "tok"},
		Provider: "test",
		Now:      func() time.Time { return h.now },
	})
	return h
}

func body(t *testing.T, req engine.Request) []byte {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return b
}

func TestHandle_FirstContactCreatesSession(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "direct_sales"}))
	require.NoError(t, err)
	assert.Contains(t, env.Reply, "Welcome")
	assert.Equal(t, "product_details", env.FlowState.Step)
	require.NotNil(t, env.CurrentQuestion)
	assert.Equal(t, "product_description", env.CurrentQuestion.ID)

	mem, err := h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowDirectSales, mem.Flow)
}

func TestHandle_GarbageBodyIsEmptyRequest(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})

	env, err := h.engine.Handle(context.Background(), "sess-1", []byte("{not json"))
	require.NoError(t, err)
	assert.NotEmpty(t, env.Reply)
}

func TestHandle_ResetKeywordClearsMemory(t *testing.T) {
	for _, msg := range []string{"reset", "RESET please", "let's start over", "إعادة", "أريد طلب جديد"} {
		t.Run(msg, func(t *testing.T) {
			h := newHarness(t, &scriptedOracle{})
			ctx := context.Background()

			_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi"}))
			require.NoError(t, err)
			_, err = h.store.Load(ctx, "sess-1")
			require.NoError(t, err)

			env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: msg}))
			require.NoError(t, err)
			assert.Contains(t, env.Reply, "cleared")
			assert.Equal(t, "start", env.FlowState.Step)

			_, err = h.store.Load(ctx, "sess-1")
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		})
	}
}

func TestHandle_ResetWordInsideAnotherWordDoesNotTrigger(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi"}))
	require.NoError(t, err)

	// "presets" contains "reset" but not on a word boundary.
	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "I sell camera presets"}))
	require.NoError(t, err)

	_, err = h.store.Load(ctx, "sess-1")
	assert.NoError(t, err, "session must survive")
}

func TestHandle_ResetFlagClearsMemory(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi"}))
	require.NoError(t, err)

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Reset: true}))
	require.NoError(t, err)
	assert.Contains(t, env.Reply, "cleared")

	_, err = h.store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHandle_StaleSessionBehavesLikeNew(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi"}))
	require.NoError(t, err)
	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "handmade soap"}))
	require.NoError(t, err)

	// Just over the staleness horizon.
	h.now = h.now.Add(domain.Staleness + time.Minute)

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hello again"}))
	require.NoError(t, err)
	assert.Contains(t, env.Reply, "Welcome", "stale session must restart from scratch")
	assert.Equal(t, "product_details", env.FlowState.Step)
	assert.Equal(t, 0, env.FlowState.QuestionIndex)
}

func TestHandle_FlowSwitchDiscardsAnswers(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "direct_sales"}))
	require.NoError(t, err)
	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "handmade soap"}))
	require.NoError(t, err)

	mem, err := h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, mem.Clipboard)

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "package_order"}))
	require.NoError(t, err)
	assert.Equal(t, "select_package", env.FlowState.Step)

	mem, err = h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowPackageOrder, mem.Flow)
	assert.Empty(t, mem.Clipboard)
	assert.Equal(t, 0, mem.QuestionIndex)
}

func TestHandle_UnknownRequestedFlowIsIgnored(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "direct_sales"}))
	require.NoError(t, err)

	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "soap", Flow: "time_travel"}))
	require.NoError(t, err)

	mem, err := h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowDirectSales, mem.Flow)
}

func TestHandle_UnknownStoredFlowStartsFresh(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	corrupt := domain.NewMemory(domain.Flow("legacy_flow"), h.now)
	corrupt.Clipboard["stale"] = "data"
	require.NoError(t, h.store.Save(ctx, "sess-1", corrupt))

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi"}))
	require.NoError(t, err)
	assert.NotEmpty(t, env.Reply)

	mem, err := h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowDirectSales, mem.Flow)
	assert.Empty(t, mem.Clipboard["stale"])
}

func TestHandle_RepairsSpecStepWithoutPackage(t *testing.T) {
	h := newHarness(t, &scriptedOracle{responses: []string{`{"kind":"none"}`}})
	ctx := context.Background()

	broken := domain.NewMemory(domain.FlowPackageOrder, h.now)
	broken.Step = domain.StepPackageSpecs // no package selected
	require.NoError(t, h.store.Save(ctx, "sess-1", broken))

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "boxes"}))
	require.NoError(t, err)
	// Repaired to package selection: the message went through discovery.
	assert.Equal(t, "select_package", env.FlowState.Step)
	assert.False(t, env.FlowState.HasPackage)
}

func TestHandle_RepairsDiscoveryWithoutProductDescription(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	// brand_launch collects a product description before discovery.
	broken := domain.NewMemory(domain.FlowBrandLaunch, h.now)
	broken.Step = domain.StepSelectPackage
	require.NoError(t, h.store.Save(ctx, "sess-1", broken))

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: ""}))
	require.NoError(t, err)
	assert.Equal(t, "product_details", env.FlowState.Step)
	require.NotNil(t, env.CurrentQuestion)
	assert.Equal(t, "product_description", env.CurrentQuestion.ID)
}

func TestHandle_RepairDropsAbandonedShortlist(t *testing.T) {
	h := newHarness(t, &scriptedOracle{})
	ctx := context.Background()

	// A shortlist left over from discovery must not survive a repair:
	// once the session is moved back to product_details, later free text
	// would otherwise be resolved against these stale candidates.
	broken := domain.NewMemory(domain.FlowBrandLaunch, h.now)
	broken.Step = domain.StepSelectPackage
	broken.PendingMatches = []domain.Match{{ID: "1", CatalogID: "999", Name: "Ghost Box"}}
	require.NoError(t, h.store.Save(ctx, "sess-1", broken))

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: ""}))
	require.NoError(t, err)
	assert.Equal(t, "product_details", env.FlowState.Step)

	saved, err := h.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, saved.PendingMatches)
}

func TestHandle_CatalogFetchedOncePerCacheWindow(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"kind":"none"}`, `{"kind":"none"}`}}
	h := newHarness(t, oracle)
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "package_order"}))
	require.NoError(t, err)

	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "boxes"}))
	require.NoError(t, err)
	_, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "pouches"}))
	require.NoError(t, err)

	assert.Equal(t, 1, h.catalog.calls, "second discovery turn must hit the cache")
}

func TestHandle_VariantsExposedOnlyWhileChoosing(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{
		`{"kind":"found","id":"101","reason":"fits"}`,
		`{"match":true,"id":"1001"}`,
	}}
	h := newHarness(t, oracle)
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "hi", Flow: "package_order"}))
	require.NoError(t, err)

	env, err := h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "mailer boxes"}))
	require.NoError(t, err)
	assert.Equal(t, "select_package_variant", env.FlowState.Step)
	assert.Len(t, env.Variants, 2)

	env, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: "the small one"}))
	require.NoError(t, err)
	assert.True(t, env.FlowState.HasVariant)
	assert.Empty(t, env.Variants)
}

func TestHandle_FullPackageOrderEndsWithDraftOrderAndClearedSession(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{
		`{"kind":"found","id":"101","reason":"fits"}`,
		`{"match":true,"id":"1002"}`,
	}}
	h := newHarness(t, oracle)
	ctx := context.Background()

	turns := []string{"hi", "mailer boxes", "the big one", "kraft", "matte", "500"}
	var env engine.Envelope
	var err error
	for _, msg := range turns {
		env, err = h.engine.Handle(ctx, "sess-1", body(t, engine.Request{Message: msg, Flow: "package_order"}))
		require.NoError(t, err, "turn %q", msg)
	}

	require.NotNil(t, env.DraftOrder)
	assert.Equal(t, "900", env.DraftOrder.OrderID)
	assert.Contains(t, env.Reply, "900")
	assert.Equal(t, 1, h.orders.calls)

	// Terminal success clears the session.
	_, err = h.store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
