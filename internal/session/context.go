package session

// fanoutContext selects the recipients of one broadcast. Exactly one of the
// two mechanisms is active per context: skipping a single user (the usual
// case, excluding the originator who already knows the new state) or an
// explicit allow-list (targeted resync). The two constructors mirror the two
// use cases; never combine them.
type fanoutContext struct {
	skipUserID string
	allow      map[string]struct{}
}

// fanoutSkipping excludes one user from the broadcast.
func fanoutSkipping(userID string) *fanoutContext {
	return &fanoutContext{skipUserID: userID}
}

// fanoutIncludingAll addresses every connected peer, the originator included.
// Used for deaths and run-state changes, where the actor must hear back too.
func fanoutIncludingAll() *fanoutContext {
	return &fanoutContext{}
}

// fanoutTargeting restricts the broadcast to the listed users.
func fanoutTargeting(userIDs ...string) *fanoutContext {
	allow := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		allow[id] = struct{}{}
	}
	return &fanoutContext{allow: allow}
}

func (c *fanoutContext) includes(userID string) bool {
	if c == nil {
		return true
	}
	if c.allow != nil {
		_, ok := c.allow[userID]
		return ok
	}
	return c.skipUserID == "" || c.skipUserID != userID
}
