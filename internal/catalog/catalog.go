// Package catalog is the static description of the business domain: the
// categories the assistant can act on, their tables and fields, and every
// action identifier with its kind. The classifier prompt and the dispatcher
// registry are both derived from it.
package catalog

import (
	"fmt"
	"slices"
)

// Category is a supported business domain.
type Category string

const (
	User            Category = "user"
	Empresa         Category = "empresa"
	Planta          Category = "planta"
	Maquina         Category = "maquina"
	Encargado       Category = "encargado"
	ReporteServicio Category = "reporte_servicio"
	ReporteVisita   Category = "reporte_visita"
	Configuracion   Category = "configuracion"
)

// Action is an action identifier as emitted by the classifier.
type Action string

const (
	SearchUsers   Action = "searchUsers"
	ListUsers     Action = "listUsers"
	GetUserByID   Action = "getUserById"
	CreateUser    Action = "createUser"
	UpdateUser    Action = "updateUser"
	DeleteUser    Action = "deleteUser"
	ValidateLogin Action = "validateLogin"
	ResetPassword Action = "resetPassword"

	SearchEmpresas        Action = "searchEmpresas"
	ListEmpresas          Action = "listEmpresas"
	GetEmpresaByID        Action = "getEmpresaById"
	CreateEmpresa         Action = "createEmpresa"
	UpdateEmpresa         Action = "updateEmpresa"
	DeleteEmpresa         Action = "deleteEmpresa"
	GetEmpresasByRUC      Action = "getEmpresasByRUC"
	GetEmpresasByDistrito Action = "getEmpresasByDistrito"
	ToggleEmpresaStatus   Action = "toggleEmpresaStatus"
	PaginateEmpresas      Action = "paginateEmpresas"

	SearchPlantas  Action = "searchPlantas"
	ListPlantas    Action = "listPlantas"
	GetPlantaByID  Action = "getPlantaById"
	CreatePlanta   Action = "createPlanta"
	UpdatePlanta   Action = "updatePlanta"
	DeletePlanta   Action = "deletePlanta"
	ActivatePlanta Action = "activatePlanta"

	SearchMaquinas  Action = "searchMaquinas"
	ListMaquinas    Action = "listMaquinas"
	GetMaquinaByID  Action = "getMaquinaById"
	CreateMaquina   Action = "createMaquina"
	UpdateMaquina   Action = "updateMaquina"
	DeleteMaquina   Action = "deleteMaquina"
	ActivateMaquina Action = "activateMaquina"

	SearchEncargados       Action = "searchEncargados"
	ListEncargados         Action = "listEncargados"
	GetEncargadoByID       Action = "getEncargadoById"
	CreateEncargado        Action = "createEncargado"
	UpdateEncargado        Action = "updateEncargado"
	DeleteEncargado        Action = "deleteEncargado"
	ValidateLoginEncargado Action = "validateLoginEncargado"
	ResetPasswordEncargado Action = "resetPasswordEncargado"

	SearchReporteServicio  Action = "searchReporteServicio"
	ListReporteServicio    Action = "listReporteServicio"
	GetReporteServicioByID Action = "getReporteServicioById"
	CreateReporteServicio  Action = "createReporteServicio"
	UpdateReporteServicio  Action = "updateReporteServicio"
	DeleteReporteServicio  Action = "deleteReporteServicio"

	SearchReporteVisita  Action = "searchReporteVisita"
	ListReporteVisita    Action = "listReporteVisita"
	GetReporteVisitaByID Action = "getReporteVisitaById"
	CreateReporteVisita  Action = "createReporteVisita"
	UpdateReporteVisita  Action = "updateReporteVisita"
	DeleteReporteVisita  Action = "deleteReporteVisita"

	GetConfig    Action = "getConfig"
	ListConfigs  Action = "listConfigs"
	CreateConfig Action = "createConfig"
	UpdateConfig Action = "updateConfig"
	DeleteConfig Action = "deleteConfig"
)

// Kind is the behaviour behind an action. Every Kind has exactly one
// implementation in the service package.
type Kind int

const (
	KindSearch Kind = iota
	KindList
	KindGetByID
	KindCreate
	KindUpdate
	KindDelete
	KindActivate
	KindValidateLogin
	KindResetPassword
	KindByField
	KindToggleStatus
	KindPaginate
)

var kindNames = [...]string{
	"search", "list", "getById", "create", "update", "delete",
	"activate", "validateLogin", "resetPassword", "byField", "toggleStatus", "paginate",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every defined Kind.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ActionSpec binds an identifier to its kind. Field is the column used by
// KindByField actions.
type ActionSpec struct {
	Name        Action
	Kind        Kind
	Field       string
	Description string
}

// Field is a displayable column.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Entity describes one category and the table behind it. LoginField is the
// credential column checked together with "pass" by login actions.
type Entity struct {
	Category     Category
	Table        string
	Singular     string
	Plural       string
	Description  string
	Fields       []Field
	SearchFields []string
	OrderBy      string
	OrderDesc    bool
	SoftDelete   bool
	LoginField   string
	Actions      []ActionSpec
}

// Action returns the ActionSpec for a, if the entity supports it.
func (e Entity) Action(a Action) (ActionSpec, bool) {
	for _, s := range e.Actions {
		if s.Name == a {
			return s, true
		}
	}
	return ActionSpec{}, false
}

// ActionNames lists the entity's action identifiers in declaration order.
func (e Entity) ActionNames() []Action {
	out := make([]Action, len(e.Actions))
	for i, s := range e.Actions {
		out[i] = s.Name
	}
	return out
}

func crud(search, list, get, create, update, del Action, filters string) []ActionSpec {
	return []ActionSpec{
		{Name: search, Kind: KindSearch, Description: "búsqueda con filtros: " + filters},
		{Name: list, Kind: KindList, Description: "listar todos sin filtros"},
		{Name: get, Kind: KindGetByID, Description: "obtener registro específico por ID"},
		{Name: create, Kind: KindCreate, Description: "crear nuevo registro"},
		{Name: update, Kind: KindUpdate, Description: "actualizar registro"},
		{Name: del, Kind: KindDelete, Description: "eliminar registro"},
	}
}

var entities = []Entity{
	{
		Category:    User,
		Table:       "Usuarios",
		Singular:    "usuario",
		Plural:      "usuarios",
		Description: "Gestión de usuarios",
		Fields: []Field{
			{"nombres", "Nombre"}, {"email", "Email"}, {"rol", "Rol"},
			{"dni", "DNI"}, {"celular", "Celular"}, {"estado", "Estado"},
		},
		SearchFields: []string{"nombres", "email", "usuario", "dni"},
		OrderBy:      "nombres",
		LoginField:   "usuario",
		Actions: append(crud(SearchUsers, ListUsers, GetUserByID, CreateUser, UpdateUser, DeleteUser,
			"id, nombres, email, rol, estado"),
			ActionSpec{Name: ValidateLogin, Kind: KindValidateLogin, Description: "validar credenciales"},
			ActionSpec{Name: ResetPassword, Kind: KindResetPassword, Description: "resetear contraseña"},
		),
	},
	{
		Category:    Empresa,
		Table:       "Empresa",
		Singular:    "empresa",
		Plural:      "empresas",
		Description: "Gestión de empresas",
		Fields: []Field{
			{"nombre", "Nombre"}, {"ruc", "RUC"}, {"direccion", "Dirección"},
			{"distrito", "Distrito"}, {"estado", "Estado"},
		},
		SearchFields: []string{"nombre", "ruc", "distrito", "direccion"},
		OrderBy:      "nombre",
		Actions: append(crud(SearchEmpresas, ListEmpresas, GetEmpresaByID, CreateEmpresa, UpdateEmpresa, DeleteEmpresa,
			"id, nombre, ruc, distrito, estado"),
			ActionSpec{Name: GetEmpresasByRUC, Kind: KindByField, Field: "ruc", Description: "empresas por RUC"},
			ActionSpec{Name: GetEmpresasByDistrito, Kind: KindByField, Field: "distrito", Description: "empresas por distrito"},
			ActionSpec{Name: ToggleEmpresaStatus, Kind: KindToggleStatus, Description: "activar o desactivar empresa"},
			ActionSpec{Name: PaginateEmpresas, Kind: KindPaginate, Description: "listar empresas por página"},
		),
	},
	{
		Category:    Planta,
		Table:       "Planta",
		Singular:    "planta",
		Plural:      "plantas",
		Description: "Gestión de plantas (instalaciones/ubicaciones de empresas)",
		Fields: []Field{
			{"nombre", "Nombre"}, {"direccion", "Dirección"},
			{"nombreempresa", "Empresa"}, {"estado", "Estado"},
		},
		SearchFields: []string{"nombre", "direccion", "nombreempresa"},
		OrderBy:      "nombre",
		SoftDelete:   true,
		Actions: append(crud(SearchPlantas, ListPlantas, GetPlantaByID, CreatePlanta, UpdatePlanta, DeletePlanta,
			"id, nombre, id_empresa, nombreempresa, dirección, estado"),
			ActionSpec{Name: ActivatePlanta, Kind: KindActivate, Description: "reactivar planta"},
		),
	},
	{
		Category:    Maquina,
		Table:       "Maquinas",
		Singular:    "máquina",
		Plural:      "máquinas",
		Description: "Gestión de máquinas (equipos en plantas)",
		Fields: []Field{
			{"marca", "Marca"}, {"modelo", "Modelo"}, {"serie", "Serie"}, {"linea", "Línea"},
			{"nombreplanta", "Planta"}, {"nombreempresa", "Empresa"}, {"estado", "Estado"},
		},
		SearchFields: []string{"marca", "linea", "serie", "modelo", "nombreplanta", "nombreempresa"},
		OrderBy:      "marca",
		SoftDelete:   true,
		Actions: append(crud(SearchMaquinas, ListMaquinas, GetMaquinaByID, CreateMaquina, UpdateMaquina, DeleteMaquina,
			"id, marca, línea, serie, modelo, id_planta, id_empresa, nombreplanta, nombreempresa, estado"),
			ActionSpec{Name: ActivateMaquina, Kind: KindActivate, Description: "reactivar máquina"},
		),
	},
	{
		Category:    Encargado,
		Table:       "Encargado",
		Singular:    "encargado",
		Plural:      "encargados",
		Description: "Gestión de encargados (personas a cargo de plantas/máquinas)",
		Fields: []Field{
			{"nombre", "Nombre"}, {"apellido", "Apellido"}, {"email", "Email"}, {"celular", "Celular"},
			{"cargo", "Cargo"}, {"nombreEmpresa", "Empresa"}, {"nombrePlanta", "Planta"},
		},
		SearchFields: []string{"nombre", "apellido", "email", "cargo"},
		OrderBy:      "nombre",
		LoginField:   "email",
		Actions: append(crud(SearchEncargados, ListEncargados, GetEncargadoByID, CreateEncargado, UpdateEncargado, DeleteEncargado,
			"id, nombre, apellido, dni, email, cargo, nombreEmpresa, nombrePlanta"),
			ActionSpec{Name: ValidateLoginEncargado, Kind: KindValidateLogin, Description: "validar credenciales encargado"},
			ActionSpec{Name: ResetPasswordEncargado, Kind: KindResetPassword, Description: "resetear contraseña encargado"},
		),
	},
	{
		Category:    ReporteServicio,
		Table:       "Reporte_Servicio",
		Singular:    "reporte de servicio",
		Plural:      "reportes de servicio",
		Description: "Reportes de servicio técnico",
		Fields: []Field{
			{"codigo_reporte", "Código"}, {"fecha", "Fecha"}, {"nombre_empresa", "Empresa"},
			{"nombre_planta", "Planta"}, {"marca_maquina", "Máquina"}, {"estado", "Estado"},
			{"con_garantia", "Con Garantía"},
		},
		SearchFields: []string{"codigo_reporte", "nombre_empresa", "nombre_planta", "marca_maquina", "serie_maquina"},
		OrderBy:      "fecha",
		OrderDesc:    true,
		Actions: crud(SearchReporteServicio, ListReporteServicio, GetReporteServicioByID, CreateReporteServicio, UpdateReporteServicio, DeleteReporteServicio,
			"id, codigo_reporte, nombre_usuario, encargado, empresa, marca_maquina, serie_maquina, modelo_maquina, planta, fechas, estados"),
	},
	{
		Category:    ReporteVisita,
		Table:       "Reporte_Visita",
		Singular:    "reporte de visita",
		Plural:      "reportes de visita",
		Description: "Reportes de visitas técnicas",
		Fields: []Field{
			{"cliente", "Cliente"}, {"planta", "Planta"}, {"fecha", "Fecha"},
			{"nombre_encargado", "Encargado"}, {"operador", "Operador"},
			{"voltaje_establecido", "Voltaje Establecido"},
		},
		SearchFields: []string{"cliente", "planta", "nombre_encargado", "operador"},
		OrderBy:      "fecha",
		OrderDesc:    true,
		Actions: crud(SearchReporteVisita, ListReporteVisita, GetReporteVisitaByID, CreateReporteVisita, UpdateReporteVisita, DeleteReporteVisita,
			"id, cliente, encargado, operador, planta, empresa, serie, marca, linea, modelo, fechas"),
	},
	{
		Category:     Configuracion,
		Table:        "Configuracion",
		Singular:     "configuración",
		Plural:       "configuraciones",
		Description:  "Configuraciones del sistema",
		Fields:       []Field{{"key", "Clave"}, {"value", "Valor"}},
		SearchFields: []string{"key", "value"},
		OrderBy:      "id",
		Actions: []ActionSpec{
			{Name: GetConfig, Kind: KindGetByID, Description: "obtener configuración por ID"},
			{Name: ListConfigs, Kind: KindList, Description: "listar configuraciones"},
			{Name: CreateConfig, Kind: KindCreate, Description: "crear configuración"},
			{Name: UpdateConfig, Kind: KindUpdate, Description: "actualizar configuración"},
			{Name: DeleteConfig, Kind: KindDelete, Description: "eliminar configuración"},
		},
	},
}

// autoExecutable are the read-only actions that run without confirmation.
var autoExecutable = map[Action]bool{
	SearchUsers: true, ListUsers: true, GetUserByID: true,
	SearchEmpresas: true, ListEmpresas: true, GetEmpresaByID: true,
	SearchPlantas: true, ListPlantas: true, GetPlantaByID: true,
	SearchMaquinas: true, ListMaquinas: true, GetMaquinaByID: true,
	SearchEncargados: true, ListEncargados: true, GetEncargadoByID: true,
	SearchReporteServicio: true, ListReporteServicio: true, GetReporteServicioByID: true,
	SearchReporteVisita: true, ListReporteVisita: true, GetReporteVisitaByID: true,
	ListConfigs: true, GetConfig: true,
}

// relatedTables are searched, in order, when a filter names no column of
// the queried table.
var relatedTables = []string{"Empresa", "Planta", "Encargado"}

// Entities returns every entity in declaration order.
func Entities() []Entity {
	return slices.Clone(entities)
}

// Lookup finds the entity for a category.
func Lookup(c Category) (Entity, bool) {
	for _, e := range entities {
		if e.Category == c {
			return e, true
		}
	}
	return Entity{}, false
}

// LookupTable finds the entity stored in table.
func LookupTable(table string) (Entity, bool) {
	for _, e := range entities {
		if e.Table == table {
			return e, true
		}
	}
	return Entity{}, false
}

// Tables lists every table name.
func Tables() []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Table
	}
	return out
}

// AutoExecutable reports whether a may run without confirmation.
func AutoExecutable(a Action) bool {
	return autoExecutable[a]
}

// RelatedTables returns the tables used for cross-table filter resolution.
func RelatedTables() []string {
	return slices.Clone(relatedTables)
}

// Validate checks that c is known and that actions is a non-empty list of
// actions defined for c.
func Validate(c Category, actions []Action) error {
	e, ok := Lookup(c)
	if !ok {
		return fmt.Errorf("unknown category %q", c)
	}
	if len(actions) == 0 {
		return fmt.Errorf("no actions for category %q", c)
	}
	for _, a := range actions {
		if _, ok := e.Action(a); !ok {
			return fmt.Errorf("action %q is not defined for category %q", a, c)
		}
	}
	return nil
}
