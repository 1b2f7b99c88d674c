package session

import (
	"context"
	"errors"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	loggingnetwork "garden-brawl/server/logging/network"
)

// HandleMessage processes one inbound datagram from a peer: decode the
// envelope, parse the payload, run the command under the session lock, and
// send exactly one ack when the request carried a message id. Parse failures
// never reach a handler, so a bad frame cannot mutate state.
func (s *Session) HandleMessage(peer Peer, raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		loggingnetwork.ParseRejected(context.Background(), s.publisher,
			logging.EntityRef{Kind: logging.EntityKindUnknown}, err.Error())
		return
	}

	entry, ok := s.registry.lookup(s.gameType, env.Type)
	if !ok || entry.command == nil {
		s.respond(peer, env, protocol.TypeEmpty, nil,
			invalidArgumentf("Unknown message type %q.", env.Type))
		return
	}

	var payload any
	if entry.parse != nil {
		payload, err = entry.parse(env.Data)
		if err != nil {
			loggingnetwork.ParseRejected(context.Background(), s.publisher,
				logging.EntityRef{Kind: logging.EntityKindUnknown}, err.Error())
			s.respond(peer, env, protocol.TypeEmpty, nil, err)
			return
		}
	}

	s.mu.Lock()
	senderID := s.bindings[peer]
	ackType, ackPayload, cmdErr := s.runCommandLocked(entry, peer, senderID, env, payload)
	s.mu.Unlock()

	s.respond(peer, env, ackType, ackPayload, cmdErr)
}

// runCommandLocked shields the session from handler panics; a panic surfaces
// as an internal server error ack instead of tearing the session down.
func (s *Session) runCommandLocked(entry registryEntry, peer Peer, senderID string, env *protocol.Envelope, payload any) (ackType protocol.MessageType, ackPayload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ackType = protocol.TypeEmpty
			ackPayload = nil
			err = internalErrorf("Internal server error.")
			s.publisher.Publish(context.Background(), logging.Event{
				Type:     "dispatch.handler_panic",
				Actor:    logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer},
				Severity: logging.SeverityError,
				Category: logging.CategorySystem,
				Extra:    map[string]any{"messageType": string(env.Type), "panic": r},
			})
		}
	}()
	return entry.command(s, peer, senderID, env, payload)
}

// respond sends the single ack a request is owed. Requests without a message
// id expect no response, success or failure.
func (s *Session) respond(peer Peer, env *protocol.Envelope, ackType protocol.MessageType, ackPayload any, cmdErr error) {
	if env.MessageID == nil {
		return
	}

	var out *protocol.Envelope
	var err error
	if cmdErr == nil {
		if ackType == "" {
			ackType = protocol.TypeEmpty
		}
		if ackPayload == nil {
			ackPayload = &protocol.EmptyPayload{}
		}
		out, err = protocol.NewAck(ackType, *env.MessageID, true, ackPayload)
	} else {
		failType, reason := classifyError(cmdErr)
		out, err = protocol.NewAck(failType, *env.MessageID, false, &protocol.ErrorPayload{Reason: reason})
	}
	if err != nil {
		s.publisher.Publish(context.Background(), logging.Event{
			Type:     "dispatch.ack_encode_failed",
			Severity: logging.SeverityError,
			Category: logging.CategorySystem,
			Extra:    map[string]any{"messageType": string(env.Type), "reason": err.Error()},
		})
		return
	}

	data, err := out.Encode()
	if err == nil {
		err = peer.Send(data)
	}
	if err != nil {
		loggingnetwork.SendFailed(context.Background(), s.publisher,
			logging.EntityRef{Kind: logging.EntityKindUnknown},
			loggingnetwork.SendFailedPayload{MessageType: string(out.Type), Reason: err.Error()})
	}
}

func classifyError(err error) (protocol.MessageType, string) {
	var illegal *IllegalStateError
	if errors.As(err, &illegal) {
		return protocol.TypeIllegalState, illegal.Reason
	}
	var invalid *InvalidArgumentError
	if errors.As(err, &invalid) {
		return protocol.TypeInvalidArgument, invalid.Reason
	}
	var parse *protocol.ParseError
	if errors.As(err, &parse) {
		return protocol.TypeInvalidArgument, parse.Error()
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		return protocol.TypeInternalServerError, internal.Reason
	}
	return protocol.TypeInternalServerError, err.Error()
}
