package source

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/wegman-software/osm2raster-go/internal/element"
)

// XMLSource turns an OSM XML document into markers.
// Elements other than node, way, relation, tag, nd and member are skipped.
type XMLSource struct {
	decoder *xml.Decoder
}

// NewXMLSource creates a marker source over r
func NewXMLSource(r io.Reader) *XMLSource {
	return &XMLSource{decoder: xml.NewDecoder(r)}
}

// Next returns the next marker, or io.EOF at the end of the document
func (s *XMLSource) Next() (element.Marker, error) {
	for {
		token, err := s.decoder.Token()
		if err == io.EOF {
			return element.Marker{}, io.EOF
		}
		if err != nil {
			return element.Marker{}, fmt.Errorf("XML parse error: %w", err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			m := element.Marker{Attrs: attrs(se.Attr)}
			switch se.Name.Local {
			case "node", "way", "relation":
				m.Type = element.MarkerStart
				m.Kind = kindOf(se.Name.Local)
			case "tag":
				m.Type = element.MarkerTag
			case "nd":
				m.Type = element.MarkerNodeRef
			case "member":
				m.Type = element.MarkerMember
			default:
				continue
			}
			return m, nil
		case xml.EndElement:
			switch se.Name.Local {
			case "node", "way", "relation":
				return element.Marker{Type: element.MarkerEnd, Kind: kindOf(se.Name.Local)}, nil
			}
		}
	}
}

func kindOf(name string) element.Kind {
	switch name {
	case "node":
		return element.KindPoint
	case "way":
		return element.KindPolyline
	case "relation":
		return element.KindArea
	}
	return element.KindNone
}

func attrs(in []xml.Attr) []element.Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]element.Attr, len(in))
	for i, a := range in {
		out[i] = element.Attr{Name: a.Name.Local, Value: a.Value}
	}
	return out
}
