package session

import (
	"garden-brawl/server/internal/protocol"
)

// cmdCreateDroppedItem registers a dropped item under its caller-supplied id
// and relays it to everyone except the dropper, who already renders it.
func cmdCreateDroppedItem(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.DroppedItemPayload)
	if _, ok := s.droppedItems[p.ID]; ok {
		return protocol.TypeEmpty, nil, invalidArgumentf("Item exists already.")
	}
	s.droppedItems[p.ID] = &DroppedItemState{
		ID:       p.ID,
		X:        p.Location.X,
		Y:        p.Location.Y,
		ItemType: p.ItemType,
		Quantity: p.Quantity,
	}

	if err := s.invokeLocked(protocol.TypeRecvCreateDroppedItem, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdRemoveDroppedItem removes a dropped item, typically because the sender
// picked it up.
func cmdRemoveDroppedItem(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.RemoveDroppedItemPayload)
	if _, ok := s.droppedItems[p.ID]; !ok {
		return protocol.TypeEmpty, nil, invalidArgumentf("Item does not exist.")
	}
	delete(s.droppedItems, p.ID)

	if err := s.invokeLocked(protocol.TypeRecvRemoveDroppedItem, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}
