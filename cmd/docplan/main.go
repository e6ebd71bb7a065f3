package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aleksaelezovic/docplan/internal/catalog"
	"github.com/aleksaelezovic/docplan/internal/docexec"
	"github.com/aleksaelezovic/docplan/internal/docstore"
	"github.com/aleksaelezovic/docplan/internal/planner"
	"github.com/aleksaelezovic/docplan/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: docplan <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  demo                         - Plan and run a sample projection against a temporary store")
		fmt.Println("  explain <projection.json>    - Plan a projection from a JSON file and print the tree")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo":
		runDemo()
	case "explain":
		if len(os.Args) < 3 {
			fmt.Println("Usage: docplan explain <projection.json>")
			os.Exit(1)
		}
		runExplain(os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func runDemo() {
	fmt.Println("=== docplan Logical Query Planner Demo ===")
	fmt.Println()

	dbPath, err := os.MkdirTemp("", "docplan-demo-")
	if err != nil {
		log.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dbPath)
	fmt.Printf("Opening database at: %s\n", dbPath)

	badgerStorage, err := storage.NewBadgerStorage(dbPath)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer badgerStorage.Close()

	store := docstore.New(badgerStorage)
	fmt.Println("Document store initialized")
	fmt.Println()

	seedDemoData(store)

	idxCatalog := planner.NewIndexCatalog(
		planner.IndexDecl{
			CollectionGroup: "users",
			Scope:           planner.ScopeCollection,
			Fields: []planner.IndexField{
				{Path: []string{"city"}, Direction: planner.Asc},
				{Path: []string{"age"}, Direction: planner.Desc},
			},
		},
		planner.IndexDecl{
			CollectionGroup: "orders",
			Scope:           planner.ScopeCollection,
			Fields: []planner.IndexField{
				{Path: []string{"user_id"}, Direction: planner.Asc},
			},
		},
	)
	pl := planner.NewPlanner(idxCatalog, nil)

	fmt.Println("=== Scenario: users in nyc or sf, joined with their orders, oldest first ===")
	proj := &planner.Projection{
		From: map[string]planner.Collection{
			"u": planner.NewCollection("users"),
			"o": planner.NewCollection("orders"),
		},
		Where: planner.AndPredicate(
			planner.ComparisonPredicate(planner.In,
				planner.NewField("u", "city"),
				planner.NewLiteralList(planner.NewStringLiteral("nyc"), planner.NewStringLiteral("sf"))),
			planner.ComparisonPredicate(planner.Eq,
				planner.NewField("u", "#id"), planner.NewField("o", "user_id")),
		),
		OrderBy: []planner.OrderBySpec{{Field: planner.NewField("u", "age"), Direction: planner.Desc}},
		Select: map[string]planner.Expression{
			"user_id":   planner.NewField("u", "#id"),
			"city":      planner.NewField("u", "city"),
			"order_id":  planner.NewField("o", "#id"),
			"order_tot": planner.NewField("o", "total"),
		},
	}

	node, err := pl.Plan(proj, nil)
	if err != nil {
		log.Fatalf("Failed to plan projection: %v", err)
	}
	fmt.Println(planner.Explain(node))

	rows, err := docexec.NewExecutor(store).Run(node)
	if err != nil {
		log.Fatalf("Failed to execute plan: %v", err)
	}

	fmt.Printf("Results (%d rows):\n", len(rows))
	for _, row := range rows {
		projected := docexec.Project(row, proj.Select)
		fmt.Printf("  %+v\n", projected)
	}

	fmt.Println("\n=== Demo Complete ===")
}

func seedDemoData(store *docstore.Store) {
	users := []docstore.Document{
		{ID: "1", Path: "users/1", Collection: "users", Fields: map[string]any{"name": "Alice", "age": 30.0, "city": "nyc"}},
		{ID: "2", Path: "users/2", Collection: "users", Fields: map[string]any{"name": "Bob", "age": 25.0, "city": "sf"}},
		{ID: "3", Path: "users/3", Collection: "users", Fields: map[string]any{"name": "Carol", "age": 28.0, "city": "chicago"}},
	}
	orders := []docstore.Document{
		{ID: "o1", Path: "orders/o1", Collection: "orders", Fields: map[string]any{"user_id": "1", "total": 99.0}},
		{ID: "o2", Path: "orders/o2", Collection: "orders", Fields: map[string]any{"user_id": "2", "total": 15.0}},
		{ID: "o3", Path: "orders/o3", Collection: "orders", Fields: map[string]any{"user_id": "3", "total": 42.0}},
	}

	fmt.Println("Inserting sample documents...")
	for _, u := range users {
		if err := store.Put(u); err != nil {
			log.Fatalf("Failed to insert user: %v", err)
		}
		fmt.Printf("  + %s\n", u.Path)
	}
	for _, o := range orders {
		if err := store.Put(o); err != nil {
			log.Fatalf("Failed to insert order: %v", err)
		}
		fmt.Printf("  + %s\n", o.Path)
	}
	fmt.Println()
}

func runExplain(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open projection file: %v", err)
	}
	defer f.Close()

	proj, params, err := catalog.LoadProjection(f)
	if err != nil {
		log.Fatalf("Failed to decode projection: %v", err)
	}

	pl := planner.NewPlanner(planner.NewIndexCatalog(), nil)
	node, err := pl.Plan(proj, params)
	if err != nil {
		log.Fatalf("Failed to plan projection: %v", err)
	}

	fmt.Println(planner.Explain(node))
}
