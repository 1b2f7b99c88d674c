package protocol

import (
	"encoding/json"
	"fmt"
)

// Coordinates is an (x, y) pair. It serializes as a two-element numeric array
// to match the wire format clients already speak.
type Coordinates struct {
	X float64
	Y float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.X, c.Y})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates must be a numeric list: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates must hold exactly 2 elements, got %d", len(pair))
	}
	c.X = pair[0]
	c.Y = pair[1]
	return nil
}
