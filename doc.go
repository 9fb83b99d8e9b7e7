/*
Package concierge is a multi-turn conversational sales assistant for
packaging vendors. It guides a customer through one of four flows (direct
sales, package ordering, brand launch, consultation), matches free-text
requests against the shop's catalog via an interchangeable AI "decision
oracle", and finishes by creating a draft order against the commerce
backend.

# Architecture

The core is a per-session state machine. Each session owns a single
Memory record (pkg/domain) that the engine (pkg/engine) loads, repairs,
mutates through the active flow handler (pkg/flows) and persists on every
turn. Charters (pkg/charter) are immutable per-flow configuration: step
chains, discovery rules and consultation question sets.

All I/O lives behind ports (pkg/ports): session storage (memory or Redis,
optionally AES-GCM encrypted at rest), the catalog/order client for the
commerce backend, and the five oracle providers (pkg/oracle). Transports
are thin adapters: an HTTP API, an MCP stdio server and an interactive
terminal chat, all under cmd/concierge.

# Usage

	gen, err := oracle.New(oracle.Config{Mode: oracle.ModeOllama})
	if err != nil {
		log.Fatal(err)
	}

	store := memory.NewStore()
	client := shop.New()
	eng := engine.New(engine.Config{
		Sessions: session.NewManager(store),
		Cache:    store,
		Catalog:  client,
		Orders:   client,
		Oracle:   gen,
		Shop:     ports.ShopIdentity{Domain: "myshop.example", Token: "..."},
	})

	env, err := eng.Chat(ctx, "session-1", "I need boxes for handmade soap")
*/
package concierge
