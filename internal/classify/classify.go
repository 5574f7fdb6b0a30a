package classify

import "github.com/wegman-software/osm2raster-go/internal/element"

// Rule matches tags by key and, optionally, by value
type Rule struct {
	// Include maps a tag key to its accepted values. An empty value list
	// accepts any value. One matching key is enough.
	Include map[string][]string
}

// Match reports whether tags satisfy the rule
func (r Rule) Match(tags element.Tags) bool {
	for key, values := range r.Include {
		v, ok := tags[key]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, want := range values {
			if v == want {
				return true
			}
		}
	}
	return false
}

var (
	// RoadRule selects the major road classes
	RoadRule = Rule{Include: map[string][]string{
		"highway": {"motorway", "trunk", "primary", "secondary", "tertiary"},
	}}
	// WaterwayRule selects linear waterways of any kind
	WaterwayRule = Rule{Include: map[string][]string{"waterway": nil}}
	// WaterAreaRule selects river relations
	WaterAreaRule = Rule{Include: map[string][]string{"water": {"river"}}}
	// BuildingRule selects buildings and amenities
	BuildingRule = Rule{Include: map[string][]string{"building": nil, "amenity": nil}}
)

// IsRoad reports whether a way belongs to the roads layer
func IsRoad(tags element.Tags) bool { return RoadRule.Match(tags) }

// IsWaterway reports whether a way belongs to the waterways layer
func IsWaterway(tags element.Tags) bool { return WaterwayRule.Match(tags) }

// IsWaterArea reports whether a relation is drawn as water area
func IsWaterArea(tags element.Tags) bool { return WaterAreaRule.Match(tags) }

// IsBuilding reports whether a way belongs to the buildings layer
func IsBuilding(tags element.Tags) bool { return BuildingRule.Match(tags) }
