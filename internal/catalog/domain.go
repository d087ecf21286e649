// Package catalog exposes the immutable reference data the authorization
// engine resolves against: seniority levels, permission definitions, and the
// level→permission link table.
package catalog

// CrudKind identifies the CRUD verb a permission covers.
type CrudKind string

const (
	CrudCreate CrudKind = "C"
	CrudRead   CrudKind = "R"
	CrudUpdate CrudKind = "U"
	CrudDelete CrudKind = "D"
)

// Valid reports whether the kind is one of the four CRUD verbs.
func (k CrudKind) Valid() bool {
	switch k {
	case CrudCreate, CrudRead, CrudUpdate, CrudDelete:
		return true
	}
	return false
}

// EntityKind identifies which record family a permission category targets.
type EntityKind string

const (
	EntityDriver   EntityKind = "DRIVER"
	EntityEmployee EntityKind = "EMPLOYEE"
)

// Valid reports whether the kind names a known entity family.
func (k EntityKind) Valid() bool {
	return k == EntityDriver || k == EntityEmployee
}

// Level is an ordered seniority tier. A lower ordinal is more senior; the
// ordinal is the sole seniority comparator.
type Level struct {
	ID      int32  `json:"id"`
	Ordinal int32  `json:"ordinal"`
	Label   string `json:"label"`
}

// Permission is an atomic, identified capability.
type Permission struct {
	ID              int32      `json:"id"`
	FeatureCode     string     `json:"feature_code"`
	Ordinal         int32      `json:"ordinal"`
	Crud            CrudKind   `json:"crud_type"`
	Description     string     `json:"description"`
	CategoryCode    string     `json:"category_code"`
	CategoryEntity  EntityKind `json:"category_entity_type"`
	CategoryOrdinal int32      `json:"category_ordinal"`
}

// LevelWithPermissions bundles a level with the permissions it confers.
type LevelWithPermissions struct {
	Level
	Permissions []Permission `json:"permissions"`
}
