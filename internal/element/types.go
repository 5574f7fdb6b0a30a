package element

// Kind identifies the kind of record a marker opens or closes
type Kind uint8

const (
	KindNone Kind = iota
	KindPoint
	KindPolyline
	KindArea
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "node"
	case KindPolyline:
		return "way"
	case KindArea:
		return "relation"
	default:
		return "none"
	}
}

// Role is the declared role of a relation member
type Role uint8

const (
	RolePlain Role = iota
	RoleOuter
	RoleInner
)

// ParseRole maps a member role attribute to a Role.
// Anything other than "inner" or "outer" is plain.
func ParseRole(s string) Role {
	switch s {
	case "outer":
		return RoleOuter
	case "inner":
		return RoleInner
	default:
		return RolePlain
	}
}

func (r Role) String() string {
	switch r {
	case RoleOuter:
		return "outer"
	case RoleInner:
		return "inner"
	default:
		return ""
	}
}

// Tags is the tag mapping of one element.
// A key repeated within one element keeps the last value seen.
type Tags map[string]string

// Point is an OSM node position in degrees
type Point struct {
	Lat float64
	Lon float64
}

// Polyline is an OSM way.
// NodeRefs is not modified after the way's end marker was seen.
type Polyline struct {
	ID       uint64
	NodeRefs []uint64
	Closed   bool // first and last node ref coincide
	Tags     Tags
}

// Member is one relation member as declared in the input
type Member struct {
	Kind Kind
	Ref  uint64
	Role Role
}

// CompositeArea is an OSM relation.
// It only references ways, nodes and other relations by id.
type CompositeArea struct {
	ID           uint64
	Members      []Member // document order
	NodeRefs     []uint64
	OuterWayRefs []uint64
	InnerWayRefs []uint64
	SubAreaRefs  []uint64 // recorded, never flattened
	Tags         Tags
}

// addMember records a member both in Members and in the typed ref lists
func (a *CompositeArea) addMember(m Member) {
	a.Members = append(a.Members, m)
	switch m.Kind {
	case KindPoint:
		a.NodeRefs = append(a.NodeRefs, m.Ref)
	case KindPolyline:
		switch m.Role {
		case RoleOuter:
			a.OuterWayRefs = append(a.OuterWayRefs, m.Ref)
		case RoleInner:
			a.InnerWayRefs = append(a.InnerWayRefs, m.Ref)
		}
	case KindArea:
		a.SubAreaRefs = append(a.SubAreaRefs, m.Ref)
	}
}

// IsClosedRing reports whether refs form a closed ring
func IsClosedRing(refs []uint64) bool {
	return len(refs) >= 1 && refs[0] == refs[len(refs)-1]
}

// PointElement is one yielded node
type PointElement struct {
	ID    uint64
	Point Point
	Tags  Tags
}

// PolylineElement is one yielded way
type PolylineElement struct {
	ID       uint64
	Polyline *Polyline
	Tags     Tags
}

// AreaElement is one yielded relation
type AreaElement struct {
	ID   uint64
	Area *CompositeArea
	Tags Tags
}

// Stats counts what a Reader produced
type Stats struct {
	Points      int64
	Polylines   int64
	Areas       int64
	DroppedTags int64
}
