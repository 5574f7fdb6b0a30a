package element

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/paulmach/osm"
)

// Reader walks a MarkerSource once and exposes its nodes, ways and
// relations as three lazy sequences sharing one cursor.
//
// The sequences must be drained in order (Points, Polylines, Areas), each
// exactly once. Points stops at the first way or relation start without
// consuming it, Polylines stops at the first relation start. A Reader is
// not restartable; open a new source for another pass.
type Reader struct {
	src MarkerSource

	peeked  Marker
	hasPeek bool
	eof     bool

	started [KindArea + 1]bool // sequence handed out for iteration
	done    [KindArea + 1]bool // sequence reached its stop marker or EOF

	open  record
	stats Stats
}

// record is the element currently being assembled
type record struct {
	kind  Kind
	id    uint64
	point Point
	refs  []uint64
	area  *CompositeArea
	tags  Tags
}

// NewReader creates a reader over src
func NewReader(src MarkerSource) *Reader {
	return &Reader{src: src}
}

// Stats returns counts of what has been yielded so far
func (r *Reader) Stats() Stats {
	return r.stats
}

// Points yields every node as (id, position, tags)
func (r *Reader) Points() iter.Seq2[PointElement, error] {
	return func(yield func(PointElement, error) bool) {
		r.run(KindPoint, func(rec *record) bool {
			return yield(PointElement{ID: rec.id, Point: rec.point, Tags: rec.tags}, nil)
		}, func(err error) {
			yield(PointElement{}, err)
		})
	}
}

// Polylines yields every way. Closed is decided when the way ends.
func (r *Reader) Polylines() iter.Seq2[PolylineElement, error] {
	return func(yield func(PolylineElement, error) bool) {
		r.run(KindPolyline, func(rec *record) bool {
			pl := &Polyline{
				ID:       rec.id,
				NodeRefs: rec.refs,
				Closed:   IsClosedRing(rec.refs),
				Tags:     rec.tags,
			}
			return yield(PolylineElement{ID: rec.id, Polyline: pl, Tags: rec.tags}, nil)
		}, func(err error) {
			yield(PolylineElement{}, err)
		})
	}
}

// Areas yields every relation with its members split by role
func (r *Reader) Areas() iter.Seq2[AreaElement, error] {
	return func(yield func(AreaElement, error) bool) {
		r.run(KindArea, func(rec *record) bool {
			rec.area.Tags = rec.tags
			return yield(AreaElement{ID: rec.id, Area: rec.area, Tags: rec.tags}, nil)
		}, func(err error) {
			yield(AreaElement{}, err)
		})
	}
}

// run drives the cursor for one phase. emit is called for every finished
// record of that phase and returns false when the consumer stopped early.
func (r *Reader) run(phase Kind, emit func(*record) bool, fail func(error)) {
	if r.started[phase] {
		fail(ErrSequenceConsumed)
		return
	}
	for k := KindPoint; k < phase; k++ {
		if !r.done[k] {
			fail(ErrOutOfSequence)
			return
		}
	}
	r.started[phase] = true

	for {
		m, err := r.next()
		if errors.Is(err, io.EOF) {
			r.open = record{}
			r.done[phase] = true
			return
		}
		if err != nil {
			fail(err)
			return
		}

		switch m.Type {
		case MarkerStart:
			if m.Kind > phase {
				r.unread(m)
				r.open = record{}
				r.done[phase] = true
				return
			}
			if m.Kind < phase {
				fail(&OutOfOrderElementError{Kind: m.Kind, Phase: phase})
				return
			}
			if err := r.begin(&m); err != nil {
				fail(err)
				return
			}

		case MarkerTag:
			r.addTag(&m)

		case MarkerNodeRef:
			if r.open.kind != KindPolyline {
				continue
			}
			ref, err := parseID(&m, "ref")
			if err != nil {
				fail(r.malformed(err, "nd"))
				return
			}
			r.open.refs = append(r.open.refs, ref)

		case MarkerMember:
			if r.open.kind != KindArea {
				continue
			}
			mem, err := parseMember(&m)
			if err != nil {
				fail(r.malformed(err, "member"))
				return
			}
			r.open.area.addMember(mem)

		case MarkerEnd:
			if r.open.kind == KindNone || m.Kind != r.open.kind {
				continue
			}
			rec := r.open
			r.open = record{}
			r.count(rec.kind)
			if !emit(&rec) {
				return
			}
		}
	}
}

// begin opens a new record. A record still open is abandoned.
func (r *Reader) begin(m *Marker) error {
	r.open = record{kind: m.Kind, tags: make(Tags)}

	id, err := parseID(m, "id")
	if err != nil {
		return r.malformed(err, "")
	}
	r.open.id = id

	switch m.Kind {
	case KindPoint:
		if r.open.point.Lat, err = parseCoord(m, "lat"); err != nil {
			return r.malformed(err, "")
		}
		if r.open.point.Lon, err = parseCoord(m, "lon"); err != nil {
			return r.malformed(err, "")
		}
	case KindPolyline:
		r.open.refs = make([]uint64, 0, 16)
	case KindArea:
		r.open.area = &CompositeArea{ID: id}
	}
	return nil
}

func (r *Reader) addTag(m *Marker) {
	k, ok := m.Get("k")
	if r.open.kind == KindNone || !ok {
		r.stats.DroppedTags++
		return
	}
	v, _ := m.Get("v")
	r.open.tags[k] = v
}

func (r *Reader) count(k Kind) {
	switch k {
	case KindPoint:
		r.stats.Points++
	case KindPolyline:
		r.stats.Polylines++
	case KindArea:
		r.stats.Areas++
	}
}

// malformed fills in the record context of an attribute error
func (r *Reader) malformed(err error, child string) error {
	var me *MalformedElementError
	if errors.As(err, &me) {
		me.Kind = r.open.kind
		me.Child = child
		me.ID = r.open.id
		return me
	}
	return err
}

func (r *Reader) next() (Marker, error) {
	if r.hasPeek {
		r.hasPeek = false
		return r.peeked, nil
	}
	if r.eof {
		return Marker{}, io.EOF
	}
	m, err := r.src.Next()
	if errors.Is(err, io.EOF) {
		r.eof = true
	}
	return m, err
}

func (r *Reader) unread(m Marker) {
	r.peeked = m
	r.hasPeek = true
}

func parseID(m *Marker, attr string) (uint64, error) {
	s, ok := m.Get(attr)
	if !ok {
		return 0, &MalformedElementError{Attr: attr}
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &MalformedElementError{Attr: attr, Value: s, Err: err}
	}
	return id, nil
}

func parseCoord(m *Marker, attr string) (float64, error) {
	s, ok := m.Get(attr)
	if !ok {
		return 0, &MalformedElementError{Attr: attr}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &MalformedElementError{Attr: attr, Value: s, Err: err}
	}
	return v, nil
}

func parseMember(m *Marker) (Member, error) {
	ref, err := parseID(m, "ref")
	if err != nil {
		return Member{}, err
	}
	t, ok := m.Get("type")
	if !ok {
		return Member{}, &MalformedElementError{Attr: "type"}
	}
	role, _ := m.Get("role")

	mem := Member{Ref: ref, Role: ParseRole(role)}
	switch osm.Type(t) {
	case osm.TypeNode:
		mem.Kind = KindPoint
	case osm.TypeWay:
		mem.Kind = KindPolyline
	case osm.TypeRelation:
		mem.Kind = KindArea
	default:
		return Member{}, &MalformedElementError{Attr: "type", Value: t, Err: fmt.Errorf("unknown member type")}
	}
	return mem, nil
}
