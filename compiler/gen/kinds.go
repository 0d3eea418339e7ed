package gen

import (
	"fmt"
	"net/http"
)

// Relation is the relationship a property expresses.
type Relation int

// Relations.
const (
	RelationScalar Relation = iota
	RelationReferenceToOne
	RelationOrderedCollection
	RelationUnorderedCollection
	RelationManyToMany
	// RelationComputed is a generated DTO field projected from the entity,
	// e.g. RoleDisplayName or TagsCommaSeparated.
	RelationComputed
)

var relationNames = [...]string{
	RelationScalar:              "scalar",
	RelationReferenceToOne:      "reference",
	RelationOrderedCollection:   "ordered",
	RelationUnorderedCollection: "collection",
	RelationManyToMany:          "many-to-many",
	RelationComputed:            "computed",
}

func (r Relation) String() string { return enumName(relationNames[:], int(r)) }

// MarshalYAML implements yaml.Marshaler.
func (r Relation) MarshalYAML() (any, error) { return r.String(), nil }

// Selection is how a many-to-many property is selected in forms.
type Selection int

// Selections.
const (
	SelectionNone Selection = iota
	SelectionLazy
	SelectionNamebook
)

var selectionNames = [...]string{
	SelectionNone:     "none",
	SelectionLazy:     "lazy",
	SelectionNamebook: "namebook",
}

func (s Selection) String() string { return enumName(selectionNames[:], int(s)) }

// MarshalYAML implements yaml.Marshaler.
func (s Selection) MarshalYAML() (any, error) { return s.String(), nil }

// ScalarKind groups scalar types by the filters they support.
type ScalarKind int

// Scalar kinds.
const (
	ScalarText ScalarKind = iota
	ScalarInteger
	ScalarDecimal
	ScalarDate
	ScalarBoolean
	ScalarIdentifier
	ScalarOther
)

var scalarNames = [...]string{
	ScalarText:       "text",
	ScalarInteger:    "integer",
	ScalarDecimal:    "decimal",
	ScalarDate:       "date",
	ScalarBoolean:    "boolean",
	ScalarIdentifier: "identifier",
	ScalarOther:      "other",
}

func (k ScalarKind) String() string { return enumName(scalarNames[:], int(k)) }

// MarshalYAML implements yaml.Marshaler.
func (k ScalarKind) MarshalYAML() (any, error) { return k.String(), nil }

// Control is the form control kind of a property.
type Control int

// Controls.
const (
	ControlNone Control = iota
	ControlTextBox
	ControlTextArea
	ControlTextBlock
	ControlInteger
	ControlDecimal
	ControlCalendar
	ControlCheckBox
	ControlDropdown
	ControlAutocomplete
	ControlMultiSelect
	ControlMultiAutocomplete
	ControlFile
	ControlEditor
	ControlColorPicker
	ControlPassword
	ControlTable
)

var controlNames = [...]string{
	ControlNone:              "None",
	ControlTextBox:           "TextBox",
	ControlTextArea:          "TextArea",
	ControlTextBlock:         "TextBlock",
	ControlInteger:           "Integer",
	ControlDecimal:           "Decimal",
	ControlCalendar:          "Calendar",
	ControlCheckBox:          "CheckBox",
	ControlDropdown:          "Dropdown",
	ControlAutocomplete:      "Autocomplete",
	ControlMultiSelect:       "MultiSelect",
	ControlMultiAutocomplete: "MultiAutocomplete",
	ControlFile:              "File",
	ControlEditor:            "Editor",
	ControlColorPicker:       "ColorPicker",
	ControlPassword:          "Password",
	ControlTable:             "Table",
}

func (c Control) String() string { return enumName(controlNames[:], int(c)) }

// MarshalYAML implements yaml.Marshaler.
func (c Control) MarshalYAML() (any, error) { return c.String(), nil }

// ParseControl returns the control named s.
func ParseControl(s string) (Control, bool) {
	for i, name := range controlNames {
		if name == s {
			return Control(i), true
		}
	}
	return ControlNone, false
}

// ControlNames returns every control name.
func ControlNames() []string {
	return append([]string(nil), controlNames[:]...)
}

// Transport is the client transport mode of an operation.
type Transport int

// Transports.
const (
	TransportDefault Transport = iota
	TransportSkipSpinner
	TransportBlob
	TransportText
)

var transportNames = [...]string{
	TransportDefault:     "default",
	TransportSkipSpinner: "skip-spinner",
	TransportBlob:        "blob",
	TransportText:        "text",
}

func (t Transport) String() string { return enumName(transportNames[:], int(t)) }

// MarshalYAML implements yaml.Marshaler.
func (t Transport) MarshalYAML() (any, error) { return t.String(), nil }

// OpKind is a companion operation generated for an entity.
type OpKind int

// Companion operations, in emission order.
const (
	OpTableData OpKind = iota
	OpExportTableData
	OpList
	OpMainUIForm
	OpGet
	OpAutocomplete
	OpDropdown
	OpOrdered
	OpNamebook
	OpLazyTableData
	OpLazyExport
	OpLazySelectedIds
	OpSave
	OpUpload
	OpDelete
)

var opNames = [...]string{
	OpTableData:       "TableData",
	OpExportTableData: "ExportTableData",
	OpList:            "List",
	OpMainUIForm:      "MainUIForm",
	OpGet:             "Get",
	OpAutocomplete:    "Autocomplete",
	OpDropdown:        "Dropdown",
	OpOrdered:         "Ordered",
	OpNamebook:        "Namebook",
	OpLazyTableData:   "LazyTableData",
	OpLazyExport:      "LazyExport",
	OpLazySelectedIds: "LazySelectedIds",
	OpSave:            "Save",
	OpUpload:          "Upload",
	OpDelete:          "Delete",
}

func (k OpKind) String() string { return enumName(opNames[:], int(k)) }

// MarshalYAML implements yaml.Marshaler.
func (k OpKind) MarshalYAML() (any, error) { return k.String(), nil }

// Name returns the endpoint name of the operation for entity e, with prop
// the property of per-property operations.
func (k OpKind) Name(e, prop string) string {
	switch k {
	case OpTableData:
		return "Get" + e + "TableData"
	case OpExportTableData:
		return "Export" + e + "TableDataToExcel"
	case OpList:
		return "Get" + e + "List"
	case OpMainUIForm:
		return "Get" + e + "MainUIFormDTO"
	case OpGet:
		return "Get" + e
	case OpAutocomplete:
		return "Get" + prop + "AutocompleteListFor" + e
	case OpDropdown:
		return "Get" + prop + "DropdownListFor" + e
	case OpOrdered:
		return "GetOrdered" + prop + "For" + e
	case OpNamebook:
		return "Get" + prop + "NamebookListFor" + e
	case OpLazyTableData:
		return "Get" + prop + "TableDataFor" + e
	case OpLazyExport:
		return "Export" + prop + "TableDataToExcelFor" + e
	case OpLazySelectedIds:
		return "LazyLoadSelected" + prop + "IdsFor" + e
	case OpSave:
		return "Save" + e
	case OpUpload:
		return "Upload" + prop + "For" + e
	case OpDelete:
		return "Delete" + e
	default:
		panic(fmt.Sprintf("gen: unknown operation %d", int(k)))
	}
}

// Method returns the HTTP method serving the operation.
func (k OpKind) Method() string {
	switch k {
	case OpTableData, OpExportTableData, OpLazyTableData, OpLazyExport, OpLazySelectedIds, OpUpload:
		return http.MethodPost
	case OpList, OpMainUIForm, OpGet, OpAutocomplete, OpDropdown, OpOrdered, OpNamebook:
		return http.MethodGet
	case OpSave:
		return http.MethodPut
	case OpDelete:
		return http.MethodDelete
	default:
		panic(fmt.Sprintf("gen: unknown operation %d", int(k)))
	}
}

// Transport returns the client transport mode of the operation.
func (k OpKind) Transport() Transport {
	switch k {
	case OpTableData, OpAutocomplete, OpDropdown, OpNamebook, OpLazyTableData, OpLazySelectedIds:
		return TransportSkipSpinner
	case OpExportTableData, OpLazyExport:
		return TransportBlob
	case OpUpload:
		return TransportText
	case OpList, OpMainUIForm, OpGet, OpOrdered, OpSave, OpDelete:
		return TransportDefault
	default:
		panic(fmt.Sprintf("gen: unknown operation %d", int(k)))
	}
}

// PerProperty reports whether the operation is generated per property.
func (k OpKind) PerProperty() bool {
	switch k {
	case OpAutocomplete, OpDropdown, OpOrdered, OpNamebook, OpLazyTableData, OpLazyExport, OpLazySelectedIds, OpUpload:
		return true
	default:
		return false
	}
}

func enumName(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("unknown(%d)", i)
}
