package element

// MarkerType is the kind of event a MarkerSource emits
type MarkerType uint8

const (
	MarkerStart   MarkerType = iota + 1 // start of a node, way or relation
	MarkerEnd                           // end of a node, way or relation
	MarkerTag                           // <tag k v>
	MarkerNodeRef                       // <nd ref>
	MarkerMember                        // <member type ref role>
)

// Attr is a raw attribute of a marker
type Attr struct {
	Name  string
	Value string
}

// Marker is one event of a forward-only element source.
// Attribute values are kept raw so that parse failures surface in the reader.
type Marker struct {
	Type  MarkerType
	Kind  Kind // set for MarkerStart and MarkerEnd
	Attrs []Attr
}

// Get returns the value of the named attribute
func (m *Marker) Get(name string) (string, bool) {
	for _, a := range m.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// MarkerSource is a forward-only stream of markers.
// Next returns io.EOF once the source is exhausted.
type MarkerSource interface {
	Next() (Marker, error)
}
