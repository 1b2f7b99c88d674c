package maps

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"garden-brawl/server/internal/protocol"
)

// Wall is one axis-aligned rectangle of world geometry.
type Wall struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Directive is an interactable placed by the map: a door or a chest. Ids are
// allocated per type by the loader and referenced by interaction records.
type Directive struct {
	ID   int64
	Type protocol.DirectiveType
	X    float64
	Y    float64
}

// SpawnPoint places players of one role when the game starts.
type SpawnPoint struct {
	Role protocol.PlayerType
	X    float64
	Y    float64
}

// EntitySpawn seeds one entity when the session leaves the lobby.
type EntitySpawn struct {
	Type protocol.EntityType
	X    float64
	Y    float64
}

// Map is a parsed map descriptor.
type Map struct {
	Name       string
	Walls      []Wall
	Directives []Directive
	Spawns     []SpawnPoint
	Entities   []EntitySpawn
}

func (m *Map) Validate() error {
	el := errors.NewErrorList()

	if m.Name == "" {
		el.Add(fmt.Errorf("map name is required"))
	}
	if len(m.Spawns) == 0 {
		el.Add(fmt.Errorf("map must declare at least one spawn point"))
	}
	for i, w := range m.Walls {
		if w.X2 <= w.X1 || w.Y2 <= w.Y1 {
			el.Add(fmt.Errorf("wall %d: degenerate rectangle (%v,%v)-(%v,%v)", i, w.X1, w.Y1, w.X2, w.Y2))
		}
	}
	seen := make(map[protocol.DirectiveType]map[int64]struct{})
	for i, d := range m.Directives {
		if !d.Type.Valid() {
			el.Add(fmt.Errorf("directive %d: invalid type %q", i, d.Type))
			continue
		}
		if seen[d.Type] == nil {
			seen[d.Type] = make(map[int64]struct{})
		}
		if _, dup := seen[d.Type][d.ID]; dup {
			el.Add(fmt.Errorf("directive %d: duplicate %s id %d", i, d.Type, d.ID))
		}
		seen[d.Type][d.ID] = struct{}{}
	}

	return el.Err()
}

// Directive returns the directive with the given type and id.
func (m *Map) Directive(t protocol.DirectiveType, id int64) (Directive, bool) {
	for _, d := range m.Directives {
		if d.Type == t && d.ID == id {
			return d, true
		}
	}
	return Directive{}, false
}
