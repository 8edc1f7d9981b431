package entity

import (
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
)

// FieldKind drives default values and body coercion.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindTextArea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindSelect   FieldKind = "select"
	KindPassword FieldKind = "password"
)

// Field is one editable input of an entity form.
type Field struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	MinLength int
	Default   any
	Options   []string
	// OmitEmptyOnEdit drops the field from update bodies when left empty and
	// makes it optional on edit.
	OmitEmptyOnEdit bool
}

// IsNumeric reports whether the field holds a number.
func (f Field) IsNumeric() bool { return f.Kind == KindNumber }

// DefaultValue returns the value sent when the user left the field empty.
func (f Field) DefaultValue() any {
	if f.Default != nil {
		return f.Default
	}
	if f.IsNumeric() {
		return 0
	}
	return ""
}

// Filter is an entity-specific list filter.
type Filter struct {
	Name    string
	Label   string
	Options []string
}

// Reference points at a dataset a form needs to fill a select input.
type Reference struct {
	Path  string
	Field string
}

// Descriptor is the full configuration of one entity group. Concrete
// entities are values of this type, not separate code paths.
type Descriptor struct {
	Group    Group
	Singular string
	Title    string
	// ListPath is the REST collection path, e.g. /machines/models.
	ListPath    string
	Fields      []Field
	Steps       [][]string
	Filters     []Filter
	Columns     []string
	Reference   *Reference
	Permissions Permissions
	PageSize    int
}

// SingularName returns Singular or the inflected group name.
func (d Descriptor) SingularName() string {
	if d.Singular != "" {
		return d.Singular
	}
	return inflection.Singular(string(d.Group))
}

// CollectionPath returns the REST collection path.
func (d Descriptor) CollectionPath() string {
	if d.ListPath != "" {
		return d.ListPath
	}
	return "/" + string(d.Group)
}

// ItemPath returns the REST path of one record.
func (d Descriptor) ItemPath(id int64) string {
	return d.CollectionPath() + "/" + strconv.FormatInt(id, 10)
}

func (d Descriptor) ListRoute() string { return "/" + string(d.Group) }

func (d Descriptor) CreateRoute() string { return "/create-" + d.SingularName() }

func (d Descriptor) DetailRoute(id int64) string {
	return d.ListRoute() + "/" + strconv.FormatInt(id, 10)
}

func (d Descriptor) EditRoute(id int64) string { return d.DetailRoute(id) + "/edit" }

// Limit returns the list page size.
func (d Descriptor) Limit() int {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return DefaultPageSize
}

// Field looks a field up by name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StepCount returns the number of form steps, at least 1.
func (d Descriptor) StepCount() int {
	if len(d.Steps) == 0 {
		return 1
	}
	return len(d.Steps)
}

// IsMultiStep reports whether the create form is a wizard.
func (d Descriptor) IsMultiStep() bool { return d.StepCount() > 1 }

// StepFields returns the fields shown on step (0-based). A descriptor
// without steps shows every field on step 0.
func (d Descriptor) StepFields(step int) []Field {
	if len(d.Steps) == 0 {
		if step == 0 {
			return d.Fields
		}
		return nil
	}
	if step < 0 || step >= len(d.Steps) {
		return nil
	}
	out := make([]Field, 0, len(d.Steps[step]))
	for _, name := range d.Steps[step] {
		if f, ok := d.Field(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// LookupFilter finds a declared list filter by name, ignoring case. The
// returned Filter carries the name the backend expects.
func (d Descriptor) LookupFilter(name string) (Filter, bool) {
	for _, f := range d.Filters {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Filter{}, false
}

// HasFilter reports whether name is a declared list filter.
func (d Descriptor) HasFilter(name string) bool {
	_, ok := d.LookupFilter(name)
	return ok
}
