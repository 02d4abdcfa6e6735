package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// UserListOptions filtra el listado administrativo de usuarios.
type UserListOptions struct {
	Page      int
	Limit     int
	Search    string
	Role      *Role
	IsBlocked *bool
}

// Normalize aplica los valores por defecto de paginacion.
func (o UserListOptions) Normalize() UserListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageLimit
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	return o
}

// Offset devuelve la cantidad de filas a saltar para la pagina pedida.
func (o UserListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination calcula los metadatos de una pagina ya normalizada.
func NewPagination(opts UserListOptions, total int) Pagination {
	totalPages := 0
	if opts.Limit > 0 {
		totalPages = (total + opts.Limit - 1) / opts.Limit
	}
	return Pagination{
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    opts.Page*opts.Limit < total,
		HasPrev:    opts.Page > 1,
	}
}

type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}
