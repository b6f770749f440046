package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/service"
	"github.com/lrsystem/lrsystem/internal/store"
)

func run(t *testing.T, d *service.Dispatcher, c catalog.Category, a catalog.Action, p service.Params) service.Result {
	t.Helper()
	res := d.Execute(context.Background(), c, []catalog.Action{a}, p)
	require.Len(t, res, 1)
	return res[0]
}

func body(t *testing.T, r service.Result) map[string]any {
	t.Helper()
	m, ok := r.Data.(map[string]any)
	require.True(t, ok, "data is %T", r.Data)
	return m
}

// ─── Reads ────────────────────────────────────────────────────────────────────

func TestSearch(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	tests := []struct {
		name     string
		category catalog.Category
		action   catalog.Action
		params   service.Params
		want     []any
	}{
		{"free text", catalog.Maquina, catalog.SearchMaquinas, service.Params{"search": "kom"}, []any{101}},
		{"default order", catalog.Maquina, catalog.SearchMaquinas, nil, []any{100, 101}},
		{"explicit order", catalog.Maquina, catalog.SearchMaquinas, service.Params{"orden": "desc", "campo_orden": "marca"}, []any{101, 100}},
		{"limit", catalog.Maquina, catalog.SearchMaquinas, service.Params{"limite": float64(1)}, []any{100}},
		{"blank values ignored", catalog.Empresa, catalog.SearchEmpresas, service.Params{"distrito": "", "ruc": nil}, []any{1, 2}},
		{"column filter", catalog.Empresa, catalog.SearchEmpresas, service.Params{"distrito": "arequipa"}, []any{2}},
		{"related filter", catalog.Maquina, catalog.SearchMaquinas, service.Params{"planta": "planta norte"}, []any{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, d, tt.category, tt.action, tt.params)
			require.Equal(t, http.StatusOK, res.Status, "%v", res.Data)
			require.Equal(t, tt.want, ids(res.Data))
		})
	}
}

func TestSearchUnresolvedFilter(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))
	res := run(t, d, catalog.Maquina, catalog.SearchMaquinas, service.Params{"planta": "Zzyzx Qwv"})
	require.Equal(t, http.StatusInternalServerError, res.Status)
	require.Error(t, res.Err)
}

func TestGetByID(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	res := run(t, d, catalog.Empresa, catalog.GetEmpresaByID, service.Params{"id": float64(2)})
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "Textiles del Sur", res.Data.(store.Row)["nombre"])

	res = run(t, d, catalog.Empresa, catalog.GetEmpresaByID, service.Params{"id": 99})
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestByFieldAndPaginate(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	res := run(t, d, catalog.Empresa, catalog.GetEmpresasByRUC, service.Params{"ruc": "20100070970"})
	require.Equal(t, []any{1}, ids(res.Data))

	res = run(t, d, catalog.Empresa, catalog.GetEmpresasByDistrito, nil)
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = run(t, d, catalog.Empresa, catalog.PaginateEmpresas, service.Params{"page": "2", "pageSize": 1})
	page := body(t, res)
	require.Equal(t, 2, page["pagina"])
	require.Equal(t, 1, page["por_pagina"])
	require.Equal(t, []any{2}, ids(page["registros"]))
}

// ─── Writes ───────────────────────────────────────────────────────────────────

func TestCreateDefaultsEstado(t *testing.T) {
	s := store.NewMemory(seed())
	d := newDispatcher(t, s)

	res := run(t, d, catalog.Empresa, catalog.CreateEmpresa, service.Params{"nombre": "Minera Andina", "distrito": "Cusco"})
	require.Equal(t, http.StatusCreated, res.Status)
	b := body(t, res)
	require.Equal(t, "Registro creado", b["message"])
	created := b["data"].(store.Row)
	require.Equal(t, true, created["estado"])
	require.EqualValues(t, 3, created["id"])

	res = run(t, d, catalog.Configuracion, catalog.CreateConfig, service.Params{"key": "igv", "value": "18"})
	require.Equal(t, http.StatusCreated, res.Status)
	require.NotContains(t, body(t, res)["data"].(store.Row), "estado")

	res = run(t, d, catalog.Empresa, catalog.CreateEmpresa, service.Params{})
	require.Equal(t, http.StatusBadRequest, res.Status)
}

func TestUpdate(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	res := run(t, d, catalog.Empresa, catalog.UpdateEmpresa, service.Params{"id": float64(1), "distrito": "Callao"})
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "Callao", body(t, res)["data"].(store.Row)["distrito"])

	res = run(t, d, catalog.Empresa, catalog.UpdateEmpresa, service.Params{"id": 1})
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = run(t, d, catalog.Empresa, catalog.UpdateEmpresa, service.Params{"id": 42, "distrito": "Callao"})
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestDeleteSoftAndHard(t *testing.T) {
	s := store.NewMemory(seed())
	d := newDispatcher(t, s)
	ctx := context.Background()

	res := run(t, d, catalog.Planta, catalog.DeletePlanta, service.Params{"id": 10})
	require.Equal(t, http.StatusOK, res.Status)
	row, err := store.First(ctx, s, store.Query{Table: "Planta", Where: []store.Predicate{store.Eq("id", 10)}})
	require.NoError(t, err)
	require.Equal(t, false, row["estado"])

	res = run(t, d, catalog.Planta, catalog.ActivatePlanta, service.Params{"id": 10})
	require.Equal(t, true, body(t, res)["data"].(store.Row)["estado"])

	res = run(t, d, catalog.Configuracion, catalog.DeleteConfig, service.Params{"id": 1})
	require.Equal(t, http.StatusOK, res.Status)
	_, err = store.First(ctx, s, store.Query{Table: "Configuracion", Where: []store.Predicate{store.Eq("id", 1)}})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleStatus(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	res := run(t, d, catalog.Empresa, catalog.ToggleEmpresaStatus, service.Params{"id": 2, "estado": "false"})
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, false, body(t, res)["data"].(store.Row)["estado"])

	res = run(t, d, catalog.Empresa, catalog.ToggleEmpresaStatus, service.Params{"id": 2, "estado": "quizás"})
	require.Equal(t, http.StatusBadRequest, res.Status)
}

// ─── Credentials ──────────────────────────────────────────────────────────────

func TestValidateLogin(t *testing.T) {
	d := newDispatcher(t, store.NewMemory(seed()))

	res := run(t, d, catalog.User, catalog.ValidateLogin, service.Params{"usuario": "atorres", "pass": "s3cret"})
	require.Equal(t, http.StatusOK, res.Status)
	b := body(t, res)
	require.Equal(t, true, b["valid"])
	require.Equal(t, "***", b["user"].(store.Row)["pass"])

	res = run(t, d, catalog.User, catalog.ValidateLogin, service.Params{"usuario": "atorres", "pass": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.Status)
	require.Equal(t, map[string]any{"valid": false}, res.Data)

	res = run(t, d, catalog.Encargado, catalog.ValidateLoginEncargado, service.Params{"email": "rosa@acme.pe", "pass": "clave"})
	require.Equal(t, http.StatusOK, res.Status)

	res = run(t, d, catalog.Encargado, catalog.ValidateLoginEncargado, service.Params{"usuario": "rosa"})
	require.Equal(t, http.StatusBadRequest, res.Status)
}

func TestResetPassword(t *testing.T) {
	s := store.NewMemory(seed())
	d := newDispatcher(t, s)

	res := run(t, d, catalog.Encargado, catalog.ResetPasswordEncargado, service.Params{"id": 20, "newPass": "nueva"})
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "Contraseña actualizada", body(t, res)["message"])

	res = run(t, d, catalog.Encargado, catalog.ValidateLoginEncargado, service.Params{"email": "rosa@acme.pe", "pass": "nueva"})
	require.Equal(t, http.StatusOK, res.Status)
}
