package session

import (
	"context"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	loggingchat "garden-brawl/server/logging/chat"
)

// cmdSendChat relays a chat line. Chat works in every run state; the server
// stamps the sender so a client cannot speak as someone else.
func cmdSendChat(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.ChatPayload)
	p.UserID = senderID

	loggingchat.ChatSent(context.Background(), s.publisher,
		logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer}, len(p.Text))

	if err := s.invokeLocked(protocol.TypeRecvChat, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}
