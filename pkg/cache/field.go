package cache

import "time"

type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeBool
	TypeDuration
	TypeList
)

// FieldSpec describes one cacheable option of a command kind.
type FieldSpec struct {
	Name       string
	Type       FieldType
	def        Value
	hasDefault bool
}

func (s FieldSpec) Default() (Value, bool) { return s.def, s.hasDefault }

func (s FieldSpec) IsList() bool { return s.Type == TypeList }

func IntField(name string, def int) FieldSpec {
	return FieldSpec{Name: name, Type: TypeInt, def: IntValue(def), hasDefault: true}
}

func BoolField(name string, def bool) FieldSpec {
	return FieldSpec{Name: name, Type: TypeBool, def: BoolValue(def), hasDefault: true}
}

func DurationField(name string, def time.Duration) FieldSpec {
	return FieldSpec{Name: name, Type: TypeDuration, def: DurationValue(def), hasDefault: true}
}

func StringField(name, def string) FieldSpec {
	return FieldSpec{Name: name, Type: TypeString, def: StringValue(def), hasDefault: true}
}

// OptionalStringField has no built-in default; it stays absent from the
// effective configuration unless provided or cached.
func OptionalStringField(name string) FieldSpec {
	return FieldSpec{Name: name, Type: TypeString}
}

func ListField(name string) FieldSpec {
	return FieldSpec{Name: name, Type: TypeList, def: ListValue(nil), hasDefault: true}
}

// Schema is the ordered set of fields for one command kind. Order is used
// when reporting conflicts.
type Schema []FieldSpec

func (s Schema) Lookup(name string) (FieldSpec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Provenance records where an invocation's value for a field came from.
type Provenance int

const (
	Unset Provenance = iota
	Default
	Explicit
)

func (p Provenance) String() string {
	switch p {
	case Default:
		return "default"
	case Explicit:
		return "explicit"
	default:
		return "unset"
	}
}

// Field is one option as seen by an invocation before reconciliation.
type Field struct {
	Provenance Provenance
	Value      Value
}

func UnsetField() Field { return Field{Provenance: Unset} }

func DefaultField(v Value) Field { return Field{Provenance: Default, Value: v} }

func ExplicitField(v Value) Field { return Field{Provenance: Explicit, Value: v} }

// Fields maps field names to their invocation state. Missing names are Unset.
type Fields map[string]Field
