package session

import (
	"context"
	"sort"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	logginglifecycle "garden-brawl/server/logging/lifecycle"
)

// cmdSendState replays the entire world to the requester: every player, then
// every entity, then every dropped item, then the interaction log in the
// order it happened. Broadcasts target the requester alone through the
// allow-list context; a failed step is logged and skipped so one bad payload
// cannot starve the rest of the resync.
func cmdSendState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	logginglifecycle.ResyncRequested(context.Background(), s.publisher,
		logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer})

	ctx := fanoutTargeting(senderID)
	step := func(name string, t protocol.MessageType, p any) {
		if err := s.invokeLocked(t, ctx, p, env.CreatedAt); err != nil {
			logginglifecycle.ResyncStepFailed(context.Background(), s.publisher,
				logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer}, name, err.Error())
		}
	}

	userIDs := make([]string, 0, len(s.users))
	for id := range s.users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	for _, id := range userIDs {
		step("player "+id, protocol.TypeRecvPlayerState, s.users[id].snapshotPayload())
	}

	entityIDs := make([]int64, 0, len(s.entities))
	for id := range s.entities {
		entityIDs = append(entityIDs, id)
	}
	sort.Slice(entityIDs, func(i, j int) bool { return entityIDs[i] < entityIDs[j] })
	for _, id := range entityIDs {
		step("entity "+formatEntityID(id), protocol.TypeRecvEntityState, s.entities[id].snapshotPayload())
	}

	itemIDs := make([]string, 0, len(s.droppedItems))
	for id := range s.droppedItems {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)
	for _, id := range itemIDs {
		step("item "+id, protocol.TypeRecvCreateDroppedItem, s.droppedItems[id].payload())
	}

	for i := range s.interactions {
		interaction := s.interactions[i]
		step("interaction", protocol.TypeRecvInteraction, &interaction)
	}

	return protocol.TypeEmpty, nil, nil
}
