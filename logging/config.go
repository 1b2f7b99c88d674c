package logging

// Config tunes the router. Fields are merged into every event's Extra map so
// deployments can tag records with static metadata.
type Config struct {
	BufferSize      int
	MinimumSeverity Severity
	Fields          map[string]any
}

func DefaultConfig() Config {
	return Config{
		BufferSize:      512,
		MinimumSeverity: SeverityDebug,
	}
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	copied := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		copied[k] = v
	}
	return copied
}
