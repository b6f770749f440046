package schema_test

import (
	"context"
	"testing"
	"time"

	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want schema.ColumnType
	}{
		{"nil", nil, schema.Text},
		{"plain string", "Acme", schema.Text},
		{"iso date", "2024-05-01", schema.Date},
		{"iso datetime", "2024-05-01T10:00:00", schema.Date},
		{"iso datetime zone", "2024-05-01T10:00:00.000Z", schema.Date},
		{"slash date", "01/05/2024", schema.Date},
		{"dash date", "01-05-2024", schema.Date},
		{"long form", "May 1, 2024", schema.Date},
		{"int", 42, schema.Number},
		{"int64", int64(42), schema.Number},
		{"float", 3.5, schema.Number},
		{"bool", true, schema.Text},
		{"time", time.Now(), schema.Date},
		{"numeric string", "20100", schema.Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	m := store.NewMemory(map[string][]store.Row{
		"Reporte_Servicio": {
			{"id": 1, "codigo_reporte": "RS-1", "fecha": "2024-01-10", "observaciones": nil},
		},
		"Vacia": {},
	})
	in := schema.NewIntrospector(m)
	ctx := context.Background()

	ts := in.Inspect(ctx, "Reporte_Servicio")
	want := map[string]schema.ColumnType{
		"id":             schema.Number,
		"codigo_reporte": schema.Text,
		"fecha":          schema.Date,
		"observaciones":  schema.Text,
	}
	if len(ts.Columns) != len(want) {
		t.Fatalf("Inspect() returned %d columns, want %d", len(ts.Columns), len(want))
	}
	for col, typ := range want {
		if got, ok := ts.Lookup(col); !ok || got != typ {
			t.Errorf("column %s = %q (present %v), want %q", col, got, ok, typ)
		}
	}
	if got := ts.OfType(schema.Text); len(got) != 2 || got[0] != "codigo_reporte" || got[1] != "observaciones" {
		t.Errorf("OfType(Text) = %v", got)
	}

	if empty := in.Inspect(ctx, "Vacia"); !empty.Empty() {
		t.Errorf("empty table should give an empty schema, got %+v", empty)
	}
	if missing := in.Inspect(ctx, "NoExiste"); !missing.Empty() {
		t.Errorf("store error should give an empty schema, got %+v", missing)
	}
	if got := (schema.TableSchema{}).TypeOf("anything"); got != schema.Text {
		t.Errorf("unknown column should default to text, got %q", got)
	}
}

// gatedStore holds every Select until gate closes and fails it when its ctx
// is done by then.
type gatedStore struct {
	store.Store
	started chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	<-g.gate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Store.Select(ctx, q)
}

func TestInspectSharedSampleSurvivesCancelledCaller(t *testing.T) {
	g := &gatedStore{
		Store: store.NewMemory(map[string][]store.Row{
			"Planta": {{"id": 1, "nombre": "Norte"}},
		}),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	in := schema.NewIntrospector(g)

	cancelled, cancel := context.WithCancel(context.Background())
	first := make(chan schema.TableSchema, 1)
	go func() { first <- in.Inspect(cancelled, "Planta") }()

	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("sample never reached the store")
	}

	second := make(chan schema.TableSchema, 1)
	go func() { second <- in.Inspect(context.Background(), "Planta") }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case ts := <-first:
		if !ts.Empty() {
			t.Errorf("cancelled caller should get an empty schema, got %+v", ts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(g.gate)
	select {
	case ts := <-second:
		if typ, ok := ts.Lookup("nombre"); !ok || typ != schema.Text {
			t.Errorf("live caller got %+v, want nombre as text", ts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("live caller did not return")
	}
}
