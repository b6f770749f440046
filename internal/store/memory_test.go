package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lrsystem/lrsystem/internal/store"
)

func seedMemory() *store.Memory {
	return store.NewMemory(map[string][]store.Row{
		"Empresa": {
			{"id": 1, "nombre": "Acme SAC", "distrito": "Lima", "estado": true},
			{"id": 2, "nombre": "Minera Sur", "distrito": "Arequipa", "estado": false},
			{"id": 3, "nombre": "Textil Norte", "distrito": "Lima", "estado": true},
		},
		"Reporte_Servicio": {
			{"id": 1, "fecha": "2024-01-10", "costo": 120.5},
			{"id": 2, "fecha": "2024-03-01", "costo": 80.0},
		},
	})
}

func TestMemorySelectPredicates(t *testing.T) {
	m := seedMemory()
	ctx := context.Background()

	tests := []struct {
		name    string
		query   store.Query
		wantIDs []int
	}{
		{"eq", store.Query{Table: "Empresa", Where: []store.Predicate{store.Eq("distrito", "Lima")}}, []int{1, 3}},
		{"neq", store.Query{Table: "Empresa", Where: []store.Predicate{{Column: "distrito", Op: store.OpNeq, Value: "Lima"}}}, []int{2}},
		{"ilike", store.Query{Table: "Empresa", Where: []store.Predicate{{Column: "nombre", Op: store.OpILike, Value: "%NORTE%"}}}, []int{3}},
		{"gt number", store.Query{Table: "Reporte_Servicio", Where: []store.Predicate{{Column: "costo", Op: store.OpGt, Value: 100.0}}}, []int{1}},
		{"gte date", store.Query{Table: "Reporte_Servicio", Where: []store.Predicate{{Column: "fecha", Op: store.OpGte, Value: "2024-02-01T00:00:00.000Z"}}}, []int{2}},
		{"bool", store.Query{Table: "Empresa", Where: []store.Predicate{store.Eq("estado", false)}}, []int{2}},
		{"or group", store.Query{Table: "Empresa", AnyOf: []store.Predicate{
			{Column: "nombre", Op: store.OpILike, Value: "%sur%"},
			{Column: "distrito", Op: store.OpILike, Value: "%sur%"},
		}}, []int{2}},
		{"order desc limit", store.Query{Table: "Empresa", Order: &store.Order{Column: "nombre"}, Limit: 2}, []int{3, 2}},
		{"range", store.Query{Table: "Empresa", Order: &store.Order{Column: "id", Ascending: true}, Offset: 1, Limit: 1}, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := m.Select(ctx, tt.query)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if len(rows) != len(tt.wantIDs) {
				t.Fatalf("Select() returned %d rows, want %d: %v", len(rows), len(tt.wantIDs), rows)
			}
			for i, id := range tt.wantIDs {
				if rows[i]["id"] != id {
					t.Errorf("row %d id = %v, want %d", i, rows[i]["id"], id)
				}
			}
		})
	}
}

func TestMemoryUnknownTable(t *testing.T) {
	m := seedMemory()
	if _, err := m.Select(context.Background(), store.Query{Table: "Nope"}); err == nil {
		t.Error("Select() on unknown table should fail")
	}
}

func TestMemoryWriteCycle(t *testing.T) {
	m := seedMemory()
	ctx := context.Background()

	created, err := m.Insert(ctx, "Empresa", []store.Row{{"nombre": "Nueva", "distrito": "Cusco"}})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if created[0]["id"] != int64(4) {
		t.Errorf("generated id = %v, want 4", created[0]["id"])
	}

	updated, err := m.Update(ctx, "Empresa", store.Row{"estado": false}, []store.Predicate{store.Eq("id", 4)})
	if err != nil || len(updated) != 1 || updated[0]["estado"] != false {
		t.Fatalf("Update() = %v, %v", updated, err)
	}

	deleted, err := m.Delete(ctx, "Empresa", []store.Predicate{store.Eq("id", 4)})
	if err != nil || len(deleted) != 1 {
		t.Fatalf("Delete() = %v, %v", deleted, err)
	}
	rows, _ := m.Select(ctx, store.Query{Table: "Empresa"})
	if len(rows) != 3 {
		t.Errorf("expected 3 rows after delete, got %d", len(rows))
	}

	if _, err := m.Delete(ctx, "Empresa", nil); err == nil {
		t.Error("Delete() without predicates should fail")
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := seedMemory()
	ctx := context.Background()
	rows, _ := m.Select(ctx, store.Query{Table: "Empresa", Where: []store.Predicate{store.Eq("id", 1)}})
	rows[0]["nombre"] = "mutated"

	again, _ := m.Select(ctx, store.Query{Table: "Empresa", Where: []store.Predicate{store.Eq("id", 1)}})
	if again[0]["nombre"] != "Acme SAC" {
		t.Error("callers must not be able to mutate stored rows")
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	body := `{"Empresa": [{"id": 7, "nombre": "Acme", "ratio": 0.5}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	seed, err := store.LoadSeed(path)
	if err != nil {
		t.Fatal(err)
	}
	row := seed["Empresa"][0]
	if _, ok := row["id"].(int64); !ok {
		t.Errorf("id decoded as %T, want int64", row["id"])
	}
	if _, ok := row["ratio"].(float64); !ok {
		t.Errorf("ratio decoded as %T, want float64", row["ratio"])
	}

	m := store.NewMemory(seed)
	out, err := m.Insert(context.Background(), "Empresa", []store.Row{{"nombre": "Nueva"}})
	if err != nil {
		t.Fatal(err)
	}
	if out[0]["id"] != int64(8) {
		t.Errorf("next id = %v, want 8", out[0]["id"])
	}
}

func TestLoadSeedRejectsBadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(`{"bad;table": []}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadSeed(path); err == nil {
		t.Error("expected identifier error")
	}
}
