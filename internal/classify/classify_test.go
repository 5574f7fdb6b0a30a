package classify

import (
	"testing"

	"github.com/wegman-software/osm2raster-go/internal/element"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		tags      element.Tags
		road      bool
		waterway  bool
		waterArea bool
		building  bool
	}{
		{"motorway", element.Tags{"highway": "motorway"}, true, false, false, false},
		{"tertiary", element.Tags{"highway": "tertiary"}, true, false, false, false},
		{"residential", element.Tags{"highway": "residential"}, false, false, false, false},
		{"footway", element.Tags{"highway": "footway"}, false, false, false, false},
		{"stream", element.Tags{"waterway": "stream"}, false, true, false, false},
		{"empty waterway", element.Tags{"waterway": ""}, false, true, false, false},
		{"river area", element.Tags{"water": "river", "type": "multipolygon"}, false, false, true, false},
		{"lake", element.Tags{"water": "lake"}, false, false, false, false},
		{"building", element.Tags{"building": "yes"}, false, false, false, true},
		{"amenity", element.Tags{"amenity": "school"}, false, false, false, true},
		{"bridge", element.Tags{"highway": "primary", "waterway": "canal"}, true, true, false, false},
		{"untagged", element.Tags{}, false, false, false, false},
		{"nil", nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRoad(tt.tags); got != tt.road {
				t.Errorf("IsRoad = %v, want %v", got, tt.road)
			}
			if got := IsWaterway(tt.tags); got != tt.waterway {
				t.Errorf("IsWaterway = %v, want %v", got, tt.waterway)
			}
			if got := IsWaterArea(tt.tags); got != tt.waterArea {
				t.Errorf("IsWaterArea = %v, want %v", got, tt.waterArea)
			}
			if got := IsBuilding(tt.tags); got != tt.building {
				t.Errorf("IsBuilding = %v, want %v", got, tt.building)
			}
		})
	}
}
