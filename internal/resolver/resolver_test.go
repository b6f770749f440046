package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/filter"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/store"
)

func seed() map[string][]store.Row {
	return map[string][]store.Row{
		"Empresa": {
			{"id": 1, "nombre": "Acme Industrial", "ruc": "20100070970", "distrito": "Lima", "estado": true},
			{"id": 2, "nombre": "Textiles del Sur", "ruc": "20500000001", "distrito": "Arequipa", "estado": true},
		},
		"Planta": {
			{"id": 10, "nombre": "Planta Norte", "direccion": "Av. Argentina 123", "id_empresa": 1},
			{"id": 11, "nombre": "Planta Sur", "direccion": "Calle Mercaderes 4", "id_empresa": 2},
		},
		"Encargado": {
			{"id": 20, "nombre": "Rosa", "apellido": "Quispe", "email": "rosa@acme.pe"},
		},
		"Maquinas": {
			{"id": 100, "marca": "Caterpillar", "anio": 2019, "id_empresa": 1, "id_planta": 10, "fecha_instalacion": "2023-02-01"},
			{"id": 101, "marca": "Komatsu", "anio": 2022, "id_empresa": 2, "id_planta": 11, "fecha_instalacion": "2024-03-15"},
		},
	}
}

func newResolver(s store.Store) *resolver.Resolver {
	return resolver.New(s, schema.NewIntrospector(s), filter.NewNormalizer(nil), resolver.DefaultOptions())
}

func ids(rows []store.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

// ─── Direct columns ──────────────────────────────────────────────────────────

func TestResolveDirectNumber(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	res, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"anio": ">=2020"})
	require.NoError(t, err)
	require.Equal(t, []any{101}, ids(res.Rows))
	require.Equal(t, []store.Predicate{{Column: "anio", Op: store.OpGte, Value: 2020.0}}, res.AppliedFilters)
}

func TestResolveDirectDate(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	res, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"fecha_instalacion": ">2024-01-01"})
	require.NoError(t, err)
	require.Equal(t, []any{101}, ids(res.Rows))
	require.Equal(t, "2024-01-01T00:00:00.000Z", res.AppliedFilters[0].Value)
}

func TestResolveTextCorrection(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantOp store.Operator
		want   any
		rows   []any
	}{
		{"case folded", "ACME INDUSTRIAL", store.OpEq, "Acme Industrial", []any{1}},
		{"typo", "Acme Industriall", store.OpEq, "Acme Industrial", []any{1}},
		{"below threshold kept as typed", "Textiles", store.OpEq, "Textiles", []any{}},
		{"prefix is not widened", "Are", store.OpEq, "Are", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(store.NewMemory(seed()))
			res, err := r.Resolve(context.Background(), "Empresa", map[string]any{"nombre": tt.value})
			require.NoError(t, err)
			require.Len(t, res.AppliedFilters, 1)
			require.Equal(t, tt.wantOp, res.AppliedFilters[0].Op)
			require.Equal(t, tt.want, res.AppliedFilters[0].Value)
			require.Equal(t, tt.rows, ids(res.Rows))
		})
	}
}

func TestDefaultOptionsUseCatalogRelations(t *testing.T) {
	require.Equal(t, catalog.RelatedTables(), resolver.DefaultOptions().RelatedTables)
}

// ─── Related tables ──────────────────────────────────────────────────────────

func TestResolveDottedKey(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	res, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"Empresa.nombre": "acme industrial"})
	require.NoError(t, err)
	require.Equal(t, []store.Predicate{store.Eq("id_empresa", 1)}, res.AppliedFilters)
	require.Equal(t, []any{100}, ids(res.Rows))
}

func TestResolveFoldsDiacritics(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	res, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"Empresa.nombre": "Textíles del Súr"})
	require.NoError(t, err)
	require.Equal(t, []any{101}, ids(res.Rows))
}

func TestResolveUnknownKeySearchesRelatedTables(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	res, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"planta": "planta norte"})
	require.NoError(t, err)
	require.Equal(t, []store.Predicate{store.Eq("id_planta", 10)}, res.AppliedFilters)
	require.Equal(t, []any{100}, ids(res.Rows))
}

func TestResolveNoMatch(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	_, err := r.Resolve(context.Background(), "Maquinas", map[string]any{"cliente": "zzzz qqqq"})
	require.Error(t, err)
	require.ErrorIs(t, err, resolver.ErrNoMatch)

	var me *resolver.MatchError
	require.True(t, errors.As(err, &me))
	require.Equal(t, "cliente", me.Key)
	require.Contains(t, err.Error(), "zzzz qqqq")
}

// ─── Store behaviour ─────────────────────────────────────────────────────────

func TestResolveStoreError(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	_, err := r.Resolve(context.Background(), "NoExiste", map[string]any{"nombre": "x"})

	var qe *resolver.QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, "NoExiste", qe.Table)
}

func TestResolveQueryKeepsBase(t *testing.T) {
	r := newResolver(store.NewMemory(seed()))
	base := store.Query{
		Table: "Planta",
		Where: []store.Predicate{store.Eq("id_empresa", 2)},
		Order: &store.Order{Column: "nombre", Ascending: true},
		Limit: 10,
	}
	res, err := r.ResolveQuery(context.Background(), base, nil)
	require.NoError(t, err)
	require.Empty(t, res.AppliedFilters)
	require.Equal(t, []any{11}, ids(res.Rows))
	require.Len(t, base.Where, 1)
}
