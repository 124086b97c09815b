package http

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/proto"
)

// submission is a validated inbound chat message.
type submission struct {
	User string
	Text string
}

func decodeInbound(data []byte) (submission, error) {
	var inbound proto.Inbound
	if err := json.Unmarshal(data, &inbound); err != nil {
		return submission{}, fmt.Errorf("%w: invalid json", core.ErrMalformedSubmission)
	}
	if inbound.Type != proto.InboundTypeMessage {
		return submission{}, fmt.Errorf("%w: %q", core.ErrUnknownType, inbound.Type)
	}
	if inbound.Text == nil {
		return submission{}, fmt.Errorf("%w: text is required", core.ErrMalformedSubmission)
	}
	return submission{User: inbound.User, Text: *inbound.Text}, nil
}

func messageToProto(msg core.Message) proto.Message {
	return proto.Message{
		ID:   msg.ID,
		User: msg.User,
		Text: msg.Text,
		Time: msg.Time(),
		Date: msg.Date(),
	}
}

func messagesToProto(msgs []core.Message) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageToProto(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: messageToProto(event.Message),
		}
	case core.EventHistory:
		return proto.Outbound{
			Type: proto.OutboundTypeHistory,
			Data: messagesToProto(event.Messages),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: event.Kind.String()}
	}
}
