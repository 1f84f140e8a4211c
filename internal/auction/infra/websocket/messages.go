package websocket

import (
	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/apierror"
	"github.com/cristianortiz/eventauction/internal/auction/infra/eventcodec"
	"github.com/google/uuid"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"           // client msg to make a bid
	MessageTypeServerInitialState MessageType = "server_initial_state" // server msg with the auction state on connect
	MessageTypeServerAuctionEvent MessageType = "server_auction_event" // server msg with a committed event
	MessageTypeServerBidAccepted  MessageType = "server_bid_accepted"  // server msg to the bidder only
	MessageTypeServerError        MessageType = "server_error"         // server msg indicating error
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is DTO for a bid message sended by the client, the auction is the one of the connection
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		BidderID uuid.UUID `json:"bidder_id"`
		BidID    uuid.UUID `json:"bid_id"`
		Currency string    `json:"currency"`
		Amount   uint64    `json:"amount"`
	} `json:"payload"`
}

// ServerInitialStateMessage is sent once per connection. Events with an event_id not greater
// than Payload.Version are already part of it.
type ServerInitialStateMessage struct {
	BaseMessage
	Payload *application.AuctionStateDTO `json:"payload"`
}

type ServerAuctionEventMessage struct {
	BaseMessage
	Payload eventcodec.Envelope `json:"payload"`
}

type ServerBidAcceptedMessage struct {
	BaseMessage
	Payload domain.Bid `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload apierror.Body `json:"payload"`
}
