package maps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"garden-brawl/server/internal/protocol"
)

// loadContext scopes the directive id counters to a single parse. Each load
// starts numbering from one, so two loads of the same descriptor produce the
// same ids without any process-wide state.
type loadContext struct {
	nextDoorID  int64
	nextChestID int64
}

func (c *loadContext) allocate(t protocol.DirectiveType) int64 {
	switch t {
	case protocol.DirectiveTypeDoor:
		c.nextDoorID++
		return c.nextDoorID
	case protocol.DirectiveTypeChest:
		c.nextChestID++
		return c.nextChestID
	default:
		return 0
	}
}

// LoadFile parses and validates the descriptor at the given path.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map descriptor: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a textual map descriptor. Lines hold whitespace-separated
// directives; empty lines and lines starting with # are skipped.
func Load(r io.Reader) (*Map, error) {
	m := &Map{}
	ctx := &loadContext{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := parseLine(m, ctx, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read map descriptor: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid map descriptor: %w", err)
	}
	return m, nil
}

func parseLine(m *Map, ctx *loadContext, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "name":
		if len(fields) < 2 {
			return fmt.Errorf("name requires a value")
		}
		m.Name = strings.Join(fields[1:], " ")
	case "wall":
		coords, err := parseFloats(fields[1:], 4)
		if err != nil {
			return fmt.Errorf("wall: %w", err)
		}
		m.Walls = append(m.Walls, Wall{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]})
	case "door", "chest":
		coords, err := parseFloats(fields[1:], 2)
		if err != nil {
			return fmt.Errorf("%s: %w", fields[0], err)
		}
		t := protocol.DirectiveTypeDoor
		if fields[0] == "chest" {
			t = protocol.DirectiveTypeChest
		}
		m.Directives = append(m.Directives, Directive{
			ID:   ctx.allocate(t),
			Type: t,
			X:    coords[0],
			Y:    coords[1],
		})
	case "spawn":
		if len(fields) != 4 {
			return fmt.Errorf("spawn requires a role and 2 coordinates")
		}
		role := protocol.PlayerType(strings.ToUpper(fields[1]))
		if !role.Valid() {
			return fmt.Errorf("spawn: unknown role %q", fields[1])
		}
		coords, err := parseFloats(fields[2:], 2)
		if err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		m.Spawns = append(m.Spawns, SpawnPoint{Role: role, X: coords[0], Y: coords[1]})
	case "entity":
		if len(fields) != 4 {
			return fmt.Errorf("entity requires a type and 2 coordinates")
		}
		t := protocol.EntityType(strings.ToUpper(fields[1]))
		if !t.Valid() {
			return fmt.Errorf("entity: unknown type %q", fields[1])
		}
		coords, err := parseFloats(fields[2:], 2)
		if err != nil {
			return fmt.Errorf("entity: %w", err)
		}
		m.Entities = append(m.Entities, EntitySpawn{Type: t, X: coords[0], Y: coords[1]})
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	return nil
}

func parseFloats(fields []string, want int) ([]float64, error) {
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d numbers, got %d", want, len(fields))
	}
	values := make([]float64, want)
	for i, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", raw)
		}
		values[i] = v
	}
	return values, nil
}
