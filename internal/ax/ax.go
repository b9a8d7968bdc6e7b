// Package ax defines the boundary between the object-resolution core and the
// OS accessibility layer. A Ref is a non-owning wrapper around a live native
// object (application, window, or UI element); the process does not control
// the referenced object's lifetime, so any Ref may stop answering at any time.
package ax

import "errors"

// Sentinel errors the native layer must use so callers can tell a dead object
// apart from an object that merely lacks an attribute.
var (
	// ErrObjectGone means the native object no longer answers queries
	// (the window closed, the application quit).
	ErrObjectGone = errors.New("native object no longer valid")

	// ErrAttributeUnsupported means the object is alive but does not
	// provide the requested attribute.
	ErrAttributeUnsupported = errors.New("attribute not supported")
)

// IsGone reports whether err indicates a dead native object, unwrapping any
// context added along the way.
func IsGone(err error) bool { return errors.Is(err, ErrObjectGone) }

// Attribute names read by the tree extractor. These mirror the AX* attribute
// constants on macOS; fake sources use the same names.
const (
	AttrRole        = "AXRole"
	AttrSubrole     = "AXSubrole"
	AttrTitle       = "AXTitle"
	AttrValue       = "AXValue"
	AttrDescription = "AXDescription"
	AttrHelp        = "AXHelp"
	AttrIdentifier  = "AXIdentifier"
	AttrPosition    = "AXPosition"
	AttrSize        = "AXSize"
	AttrEnabled     = "AXEnabled"
	AttrFocused     = "AXFocused"
)

// Point is a screen coordinate in points.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Size is a width/height pair in points.
type Size struct {
	Width  float64 `yaml:"w" json:"w"`
	Height float64 `yaml:"h" json:"h"`
}

// Value is a typed attribute value. Exactly one field is set, matching Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Num   float64
	Bool  bool
	Point Point
	Size  Size
}

// ValueKind discriminates Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValuePoint
	ValueSize
)

// String wraps s as an attribute value.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// Number wraps n as an attribute value.
func Number(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// Bool wraps b as an attribute value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// PointValue wraps p as an attribute value.
func PointValue(p Point) Value { return Value{Kind: ValuePoint, Point: p} }

// SizeValue wraps s as an attribute value.
func SizeValue(s Size) Value { return Value{Kind: ValueSize, Size: s} }

// Ref is a live native object reference. Implementations must report
// ErrObjectGone once the underlying object is destroyed and must keep
// SameAs based on native identity, never on attribute equality: two windows
// with identical titles are distinct objects.
type Ref interface {
	// Attribute reads a single named attribute. Returns ErrObjectGone if
	// the object is dead, ErrAttributeUnsupported if it does not carry
	// the attribute.
	Attribute(name string) (Value, error)

	// Children returns the object's ordered children.
	Children() ([]Ref, error)

	// ChildCount returns the number of children without materializing
	// them. Cheaper than Children for truncation bookkeeping.
	ChildCount() (int, error)

	// SameAs reports whether other denotes the same native object.
	SameAs(other Ref) bool

	// PID returns the owning process ID.
	PID() int
}

// Source produces root application references. The darwin implementation is
// registered by internal/platform/darwin; tests use axtest.
type Source interface {
	// ApplicationRef returns the root accessibility object for a running
	// process. Returns ErrObjectGone if the process does not exist or no
	// longer answers.
	ApplicationRef(pid int) (Ref, error)
}
