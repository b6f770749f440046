package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/filter"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/security"
	"github.com/lrsystem/lrsystem/internal/service"
	"github.com/lrsystem/lrsystem/internal/store"
)

func seed() map[string][]store.Row {
	return map[string][]store.Row{
		"Usuarios": {
			{"id": 1, "nombres": "Ana Torres", "usuario": "atorres", "pass": "s3cret", "email": "ana@acme.pe", "rol": "admin", "estado": true},
		},
		"Empresa": {
			{"id": 1, "nombre": "Acme Industrial", "ruc": "20100070970", "distrito": "Lima", "direccion": "Av. Colonial 100", "estado": true},
			{"id": 2, "nombre": "Textiles del Sur", "ruc": "20500000001", "distrito": "Arequipa", "direccion": "Calle Mercaderes 4", "estado": true},
		},
		"Planta": {
			{"id": 10, "nombre": "Planta Norte", "direccion": "Av. Argentina 123", "nombreempresa": "Acme Industrial", "id_empresa": 1, "estado": true},
			{"id": 11, "nombre": "Planta Sur", "direccion": "Calle Mercaderes 4", "nombreempresa": "Textiles del Sur", "id_empresa": 2, "estado": true},
		},
		"Maquinas": {
			{"id": 100, "marca": "Caterpillar", "modelo": "C15", "serie": "CAT-001", "linea": "Generadores", "id_empresa": 1, "id_planta": 10, "estado": true},
			{"id": 101, "marca": "Komatsu", "modelo": "PC200", "serie": "KOM-002", "linea": "Excavadoras", "id_empresa": 2, "id_planta": 11, "estado": true},
		},
		"Encargado": {
			{"id": 20, "nombre": "Rosa", "apellido": "Quispe", "email": "rosa@acme.pe", "pass": "clave", "cargo": "Jefa de planta"},
		},
		"Reporte_Servicio": {},
		"Reporte_Visita":   {},
		"Configuracion": {
			{"id": 1, "key": "moneda", "value": "PEN"},
		},
	}
}

func newDispatcher(t *testing.T, s store.Store) *service.Dispatcher {
	t.Helper()
	r := resolver.New(s, schema.NewIntrospector(s), filter.NewNormalizer(nil), resolver.DefaultOptions())
	d, err := service.NewDispatcher(s, r, security.NewDataMasker(nil))
	require.NoError(t, err)
	return d
}

func ids(data any) []any {
	rows, _ := data.([]store.Row)
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

// ─── Registry ─────────────────────────────────────────────────────────────────

func TestDispatcherCoversCatalog(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))
	for _, e := range catalog.Entities() {
		for _, a := range e.ActionNames() {
			require.True(t, d.Supports(e.Category, a), "%s/%s has no handler", e.Category, a)
		}
	}
	require.False(t, d.Supports(catalog.Empresa, catalog.ListUsers))
}

func TestCanAutoExecute(t *testing.T) {
	tests := []struct {
		name    string
		actions []catalog.Action
		want    bool
	}{
		{"read only", []catalog.Action{catalog.ListUsers}, true},
		{"several reads", []catalog.Action{catalog.SearchEmpresas, catalog.GetEmpresaByID}, true},
		{"write", []catalog.Action{catalog.DeleteUser}, false},
		{"mixed", []catalog.Action{catalog.ListUsers, catalog.DeleteUser}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, service.CanAutoExecute(tt.actions))
		})
	}
}

func TestMergeParams(t *testing.T) {
	suggested := service.Params{"distrito": "Lima", "limite": 5}
	caller := service.Params{"distrito": "Arequipa"}

	merged := service.MergeParams(suggested, caller)
	require.Equal(t, service.Params{"distrito": "Arequipa", "limite": 5}, merged)
	require.Equal(t, "Lima", suggested["distrito"])

	require.Empty(t, service.MergeParams(nil, nil))
}

// ─── Execute ──────────────────────────────────────────────────────────────────

func TestExecuteUnknownCategory(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))
	res := d.Execute(context.Background(), "facturas", []catalog.Action{"listFacturas"}, nil)
	require.Len(t, res, 1)
	require.Equal(t, catalog.Action("unknown"), res[0].Action)
	require.Equal(t, http.StatusBadRequest, res[0].Status)
	require.Equal(t, map[string]any{"error": "Servicio 'facturas' no disponible"}, res[0].Data)
}

func TestExecuteIsolatesFailures(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))
	d.Register(catalog.Empresa, "explode", service.HandlerFunc(func(context.Context, service.Params) (service.Outcome, error) {
		panic("boom")
	}))
	d.Register(catalog.Empresa, "broken", service.HandlerFunc(func(context.Context, service.Params) (service.Outcome, error) {
		return service.Outcome{}, errors.New("connection reset")
	}))

	res := d.Execute(context.Background(), catalog.Empresa, []catalog.Action{
		catalog.GetEmpresaByID, // missing id
		"explode",
		"missing",
		"broken",
		catalog.ListEmpresas,
	}, nil)
	require.Len(t, res, 5)

	require.Equal(t, http.StatusBadRequest, res[0].Status)
	require.Equal(t, map[string]any{"error": "Falta el parámetro 'id'"}, res[0].Data)

	require.Equal(t, http.StatusInternalServerError, res[1].Status)
	require.Equal(t, map[string]any{"error": "Error ejecutando explode: boom"}, res[1].Data)

	require.Equal(t, http.StatusBadRequest, res[2].Status)
	require.Equal(t, map[string]any{"error": "Acción 'missing' no disponible en servicio 'empresa'"}, res[2].Data)

	require.Equal(t, http.StatusInternalServerError, res[3].Status)
	require.Equal(t, map[string]any{"error": "Error ejecutando broken: connection reset"}, res[3].Data)

	require.True(t, res[4].OK())
	require.Equal(t, []any{1, 2}, ids(res[4].Data))
}

func TestExecuteCopiesParams(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))
	d.Register(catalog.Empresa, "mutate", service.HandlerFunc(func(_ context.Context, p service.Params) (service.Outcome, error) {
		p["distrito"] = "Cusco"
		return service.Outcome{}, nil
	}))

	params := service.Params{"distrito": "Lima"}
	res := d.Execute(context.Background(), catalog.Empresa, []catalog.Action{"mutate", catalog.SearchEmpresas}, params)
	require.Equal(t, http.StatusOK, res[0].Status)
	require.Equal(t, []any{1}, ids(res[1].Data))
	require.Equal(t, "Lima", params["distrito"])
}
