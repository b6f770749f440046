package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/security"
	"github.com/lrsystem/lrsystem/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// EntityService implements every action kind against one catalog entity.
type EntityService struct {
	entity   catalog.Entity
	store    store.Store
	resolver *resolver.Resolver
	masker   *security.DataMasker
}

func NewEntityService(e catalog.Entity, s store.Store, r *resolver.Resolver, m *security.DataMasker) *EntityService {
	return &EntityService{entity: e, store: s, resolver: r, masker: m}
}

// Handler returns the implementation of spec.
func (s *EntityService) Handler(spec catalog.ActionSpec) (Handler, error) {
	switch spec.Kind {
	case catalog.KindSearch:
		return HandlerFunc(s.search), nil
	case catalog.KindList:
		return HandlerFunc(s.list), nil
	case catalog.KindGetByID:
		return HandlerFunc(s.getByID), nil
	case catalog.KindCreate:
		return HandlerFunc(s.create), nil
	case catalog.KindUpdate:
		return HandlerFunc(s.update), nil
	case catalog.KindDelete:
		return HandlerFunc(s.remove), nil
	case catalog.KindActivate:
		return HandlerFunc(s.activate), nil
	case catalog.KindValidateLogin:
		if s.entity.LoginField == "" {
			return nil, fmt.Errorf("%s: %s has no login field", spec.Name, s.entity.Table)
		}
		return HandlerFunc(s.validateLogin), nil
	case catalog.KindResetPassword:
		return HandlerFunc(s.resetPassword), nil
	case catalog.KindByField:
		if spec.Field == "" {
			return nil, fmt.Errorf("%s: missing field", spec.Name)
		}
		field := spec.Field
		return HandlerFunc(func(ctx context.Context, p Params) (Outcome, error) {
			return s.byField(ctx, field, p)
		}), nil
	case catalog.KindToggleStatus:
		return HandlerFunc(s.toggleStatus), nil
	case catalog.KindPaginate:
		return HandlerFunc(s.paginate), nil
	}
	return nil, fmt.Errorf("%s: unsupported kind %s", spec.Name, spec.Kind)
}

func (s *EntityService) order(column, direction string) *store.Order {
	if column == "" {
		column = s.entity.OrderBy
	}
	if column == "" {
		return nil
	}
	asc := !s.entity.OrderDesc
	switch direction {
	case "asc":
		asc = true
	case "desc":
		asc = false
	}
	return &store.Order{Column: column, Ascending: asc}
}

// tracksStatus reports whether rows carry an "estado" flag managed by the
// service.
func (s *EntityService) tracksStatus() bool {
	if s.entity.SoftDelete {
		return true
	}
	for _, a := range s.entity.Actions {
		if a.Kind == catalog.KindToggleStatus {
			return true
		}
	}
	return false
}

func (s *EntityService) rows(rows []store.Row) []store.Row {
	if rows == nil {
		rows = []store.Row{}
	}
	if s.masker == nil {
		return rows
	}
	return s.masker.MaskRows(rows)
}

func (s *EntityService) row(r store.Row) store.Row {
	if s.masker == nil {
		return r
	}
	return s.masker.MaskRow(r)
}

func requireID(p Params) (any, error) {
	id, ok := present(p, "id")
	if !ok {
		return nil, badRequest("Falta el parámetro 'id'")
	}
	return normalizeID(id), nil
}

// fields returns p without its id and without unusable values.
func fields(p Params) store.Row {
	out := make(store.Row, len(p))
	for k, v := range p {
		if k == "id" || v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// ─── Reads ────────────────────────────────────────────────────────────────────

func (s *EntityService) search(ctx context.Context, p Params) (Outcome, error) {
	filters := make(Params, len(p))
	for k := range p {
		if v, ok := present(p, k); ok {
			filters[k] = v
		}
	}
	// Control keys shape the query; everything else is a filter.
	term := popString(filters, "search")
	direction := popString(filters, "orden")
	column := popString(filters, "campo_orden")
	limit, hasLimit := pop(filters, "limite")

	q := store.Query{Table: s.entity.Table, Order: s.order(column, direction)}
	if term != "" {
		for _, f := range s.entity.SearchFields {
			q.AnyOf = append(q.AnyOf, store.Predicate{Column: f, Op: store.OpILike, Value: "%" + term + "%"})
		}
	}
	if hasLimit {
		if n, ok := toInt(limit); ok && n > 0 {
			q.Limit = n
		}
	}

	res, err := s.resolver.ResolveQuery(ctx, q, filters)
	if err != nil {
		return Outcome{}, err
	}
	return succeed(s.rows(res.Rows)), nil
}

func (s *EntityService) list(ctx context.Context, _ Params) (Outcome, error) {
	rows, err := s.store.Select(ctx, store.Query{Table: s.entity.Table, Order: s.order("", "")})
	if err != nil {
		return Outcome{}, err
	}
	return succeed(s.rows(rows)), nil
}

func (s *EntityService) getByID(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	r, err := store.First(ctx, s.store, store.Query{
		Table: s.entity.Table,
		Where: []store.Predicate{store.Eq("id", id)},
	})
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{}, notFound("Registro no encontrado")
	}
	if err != nil {
		return Outcome{}, err
	}
	return succeed(s.row(r)), nil
}

func (s *EntityService) byField(ctx context.Context, field string, p Params) (Outcome, error) {
	v, found := present(p, field)
	if !found {
		return Outcome{}, badRequest(fmt.Sprintf("Falta el parámetro '%s'", field))
	}
	rows, err := s.store.Select(ctx, store.Query{
		Table: s.entity.Table,
		Where: []store.Predicate{store.Eq(field, v)},
		Order: s.order("", ""),
	})
	if err != nil {
		return Outcome{}, err
	}
	return succeed(s.rows(rows)), nil
}

func (s *EntityService) paginate(ctx context.Context, p Params) (Outcome, error) {
	page := max(intParam(p, 1, "pagina", "page"), 1)
	size := intParam(p, defaultPageSize, "por_pagina", "pageSize")
	if size < 1 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	q := store.Query{Table: s.entity.Table, Order: s.order("", "")}
	from := (page - 1) * size
	q.Range(from, from+size-1)
	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return Outcome{}, err
	}
	return succeed(map[string]any{
		"pagina":     page,
		"por_pagina": size,
		"registros":  s.rows(rows),
	}), nil
}

// ─── Writes ───────────────────────────────────────────────────────────────────

func (s *EntityService) create(ctx context.Context, p Params) (Outcome, error) {
	values := fields(p)
	if len(values) == 0 {
		return Outcome{}, badRequest("No se enviaron datos para crear")
	}
	if _, set := values["estado"]; !set && s.tracksStatus() {
		values["estado"] = true
	}
	rows, err := s.store.Insert(ctx, s.entity.Table, []store.Row{values})
	if err != nil {
		return Outcome{}, err
	}
	var created store.Row
	if len(rows) > 0 {
		created = s.row(rows[0])
	}
	return Outcome{
		Status: http.StatusCreated,
		Data:   map[string]any{"message": "Registro creado", "data": created},
	}, nil
}

func (s *EntityService) update(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	values := fields(p)
	if len(values) == 0 {
		return Outcome{}, badRequest("No se enviaron campos para actualizar")
	}
	return s.apply(ctx, id, values, "Registro actualizado")
}

func (s *EntityService) remove(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	if s.entity.SoftDelete {
		return s.apply(ctx, id, store.Row{"estado": false}, "Registro desactivado")
	}
	rows, err := s.store.Delete(ctx, s.entity.Table, []store.Predicate{store.Eq("id", id)})
	if err != nil {
		return Outcome{}, err
	}
	if len(rows) == 0 {
		return Outcome{}, notFound("Registro no encontrado")
	}
	return succeed(map[string]any{"message": "Registro eliminado", "data": s.row(rows[0])}), nil
}

func (s *EntityService) activate(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	return s.apply(ctx, id, store.Row{"estado": true}, "Registro activado")
}

func (s *EntityService) toggleStatus(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	raw, found := present(p, "estado")
	if !found {
		return Outcome{}, badRequest("Falta el parámetro 'estado'")
	}
	estado, valid := toBool(raw)
	if !valid {
		return Outcome{}, badRequest("El parámetro 'estado' debe ser booleano")
	}
	return s.apply(ctx, id, store.Row{"estado": estado}, "Estado actualizado")
}

func (s *EntityService) resetPassword(ctx context.Context, p Params) (Outcome, error) {
	id, err := requireID(p)
	if err != nil {
		return Outcome{}, err
	}
	pass, found := present(p, "newPass")
	if !found {
		return Outcome{}, badRequest("Falta el parámetro 'newPass'")
	}
	return s.apply(ctx, id, store.Row{"pass": pass}, "Contraseña actualizada")
}

func (s *EntityService) apply(ctx context.Context, id any, values store.Row, message string) (Outcome, error) {
	rows, err := s.store.Update(ctx, s.entity.Table, values, []store.Predicate{store.Eq("id", id)})
	if err != nil {
		return Outcome{}, err
	}
	if len(rows) == 0 {
		return Outcome{}, notFound("Registro no encontrado")
	}
	return succeed(map[string]any{"message": message, "data": s.row(rows[0])}), nil
}

// ─── Credentials ──────────────────────────────────────────────────────────────

func (s *EntityService) validateLogin(ctx context.Context, p Params) (Outcome, error) {
	login, hasLogin := present(p, s.entity.LoginField)
	pass, hasPass := present(p, "pass")
	if !hasLogin || !hasPass {
		return Outcome{}, badRequest(fmt.Sprintf("Se requieren '%s' y 'pass'", s.entity.LoginField))
	}
	r, err := store.First(ctx, s.store, store.Query{
		Table: s.entity.Table,
		Where: []store.Predicate{store.Eq(s.entity.LoginField, login), store.Eq("pass", pass)},
	})
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{Status: http.StatusUnauthorized, Data: map[string]any{"valid": false}}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return succeed(map[string]any{"valid": true, "user": s.row(r)}), nil
}
