package source

import (
	"context"
	"io"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/wegman-software/osm2raster-go/internal/element"
)

// PBFSource expands the objects of an OSM PBF file into markers, so the
// same single-pass reader serves both encodings.
type PBFSource struct {
	scanner *osmpbf.Scanner
	queue   []element.Marker
}

// NewPBFSource creates a marker source decoding r with procs goroutines.
// Blocks are decoded in parallel but objects come out in file order.
func NewPBFSource(ctx context.Context, r io.Reader, procs int) *PBFSource {
	if procs < 1 {
		procs = 1
	}
	return &PBFSource{scanner: osmpbf.New(ctx, r, procs)}
}

// Next returns the next marker, or io.EOF once the file is exhausted
func (s *PBFSource) Next() (element.Marker, error) {
	for len(s.queue) == 0 {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return element.Marker{}, err
			}
			return element.Marker{}, io.EOF
		}
		s.expand(s.scanner.Object())
	}
	m := s.queue[0]
	s.queue = s.queue[1:]
	return m, nil
}

// Close stops the decoder goroutines
func (s *PBFSource) Close() error {
	return s.scanner.Close()
}

func (s *PBFSource) expand(obj osm.Object) {
	s.queue = s.queue[:0]

	switch o := obj.(type) {
	case *osm.Node:
		s.queue = append(s.queue, element.Marker{
			Type: element.MarkerStart,
			Kind: element.KindPoint,
			Attrs: []element.Attr{
				{Name: "id", Value: strconv.FormatInt(int64(o.ID), 10)},
				{Name: "lat", Value: strconv.FormatFloat(o.Lat, 'f', -1, 64)},
				{Name: "lon", Value: strconv.FormatFloat(o.Lon, 'f', -1, 64)},
			},
		})
		s.appendTags(o.Tags)
		s.queue = append(s.queue, element.Marker{Type: element.MarkerEnd, Kind: element.KindPoint})

	case *osm.Way:
		s.queue = append(s.queue, element.Marker{
			Type:  element.MarkerStart,
			Kind:  element.KindPolyline,
			Attrs: []element.Attr{{Name: "id", Value: strconv.FormatInt(int64(o.ID), 10)}},
		})
		for _, wn := range o.Nodes {
			s.queue = append(s.queue, element.Marker{
				Type:  element.MarkerNodeRef,
				Attrs: []element.Attr{{Name: "ref", Value: strconv.FormatInt(int64(wn.ID), 10)}},
			})
		}
		s.appendTags(o.Tags)
		s.queue = append(s.queue, element.Marker{Type: element.MarkerEnd, Kind: element.KindPolyline})

	case *osm.Relation:
		s.queue = append(s.queue, element.Marker{
			Type:  element.MarkerStart,
			Kind:  element.KindArea,
			Attrs: []element.Attr{{Name: "id", Value: strconv.FormatInt(int64(o.ID), 10)}},
		})
		for _, mem := range o.Members {
			s.queue = append(s.queue, element.Marker{
				Type: element.MarkerMember,
				Attrs: []element.Attr{
					{Name: "type", Value: string(mem.Type)},
					{Name: "ref", Value: strconv.FormatInt(mem.Ref, 10)},
					{Name: "role", Value: mem.Role},
				},
			})
		}
		s.appendTags(o.Tags)
		s.queue = append(s.queue, element.Marker{Type: element.MarkerEnd, Kind: element.KindArea})
	}
}

func (s *PBFSource) appendTags(tags osm.Tags) {
	for _, t := range tags {
		s.queue = append(s.queue, element.Marker{
			Type:  element.MarkerTag,
			Attrs: []element.Attr{{Name: "k", Value: t.Key}, {Name: "v", Value: t.Value}},
		})
	}
}
