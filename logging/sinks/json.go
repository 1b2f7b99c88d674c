package sinks

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"garden-brawl/server/logging"
)

type JSONSink struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{encoder: json.NewEncoder(w)}
}

func (s *JSONSink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(event)
}

func (s *JSONSink) Close(context.Context) error {
	return nil
}
