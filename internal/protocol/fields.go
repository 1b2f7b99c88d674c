package protocol

// Field tags one mutable attribute of a syncable object. Handlers record the
// tags they touched into a FieldFilter and the outbound payload serializes
// only those fields; everything else stays absent on the wire.
type Field string

const (
	FieldCoordinates     Field = "COORDINATES"
	FieldRotation        Field = "ROTATION"
	FieldHealth          Field = "HEALTH"
	FieldMaxHealth       Field = "MAX_HEALTH"
	FieldPlayerType      Field = "PLAYER_TYPE"
	FieldTexturePrefix   Field = "TEXTURE_PREFIX"
	FieldHeldItemTexture Field = "HELD_ITEM_TEXTURE"
	FieldState           Field = "STATE"
	FieldRunState        Field = "RUN_STATE"
	FieldWinningTeam     Field = "WINNING_TEAM"
	FieldHost            Field = "HOST"
)

// FieldFilter is the set of fields included in a delta broadcast.
type FieldFilter map[Field]struct{}

func NewFieldFilter(fields ...Field) FieldFilter {
	filter := make(FieldFilter, len(fields))
	for _, f := range fields {
		filter[f] = struct{}{}
	}
	return filter
}

func (f FieldFilter) Add(field Field) {
	f[field] = struct{}{}
}

func (f FieldFilter) Has(field Field) bool {
	_, ok := f[field]
	return ok
}

func (f FieldFilter) Empty() bool {
	return len(f) == 0
}

// PositionOnly reports whether the filter covers nothing beyond coordinates
// and rotation. Such deltas ride the lightweight send path without a fresh
// correlation id.
func (f FieldFilter) PositionOnly() bool {
	if len(f) == 0 {
		return false
	}
	for field := range f {
		if field != FieldCoordinates && field != FieldRotation {
			return false
		}
	}
	return true
}
