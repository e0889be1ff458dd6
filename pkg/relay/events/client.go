package events

import (
	"encoding/json"
	"fmt"
)

func errUnknownVariant(objectType string) error {
	return fmt.Errorf("unrecognised object_type %q", objectType)
}

// ClientMetadata is the payload of InitializeClient (spec §3 "Client state").
type ClientMetadata struct {
	Name string `json:"name"`
}

// InitializeClient is sent by the client application to register itself.
type InitializeClient struct {
	ObjectType    string         `json:"object_type"`
	TransactionID string         `json:"transaction_id"`
	Metadata      ClientMetadata `json:"metadata"`
}

func NewInitializeClient(tid string, md ClientMetadata) *InitializeClient {
	return &InitializeClient{ObjectType: TypeInitializeClient, TransactionID: tid, Metadata: md}
}

// Join requests admission to a named session.
type Join struct {
	ObjectType    string `json:"object_type"`
	TransactionID string `json:"transaction_id"`
	SessionID     string `json:"session_id"`
}

func NewJoin(tid, sessionID string) *Join {
	return &Join{ObjectType: TypeJoin, TransactionID: tid, SessionID: sessionID}
}

// ClientMessageFromClient is a fire-and-forget message sent to the client's
// master, correlated by transaction_id for the resulting TransactionResult.
type ClientMessageFromClient struct {
	ObjectType    string `json:"object_type"`
	TransactionID string `json:"transaction_id"`
	Data          string `json:"data"`
}

func NewClientMessageFromClient(tid, data string) *ClientMessageFromClient {
	return &ClientMessageFromClient{ObjectType: TypeMessageFromClient, TransactionID: tid, Data: data}
}

// ClientTransactionResult is the reply to any request-style frame the
// client sent.
type ClientTransactionResult struct {
	ObjectType    string `json:"object_type"`
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
	Error         *Error `json:"error,omitempty"`
}

func NewClientTransactionResult(tid string, success bool, err *Error) *ClientTransactionResult {
	return &ClientTransactionResult{ObjectType: TypeTransactionResult, TransactionID: tid, Success: success, Error: err}
}

// ClientMessageToClient is an unsolicited push from the master to this
// client; it carries no transaction id (spec §4.4.2).
type ClientMessageToClient struct {
	ObjectType string `json:"object_type"`
	Data       string `json:"data"`
}

func NewClientMessageToClient(data string) *ClientMessageToClient {
	return &ClientMessageToClient{ObjectType: TypeMessageToClient, Data: data}
}

// ClientMasterDisconnected notifies the client that its master is gone.
type ClientMasterDisconnected struct {
	ObjectType string `json:"object_type"`
	Reason     string `json:"reason"`
}

func NewClientMasterDisconnected(reason string) *ClientMasterDisconnected {
	return &ClientMasterDisconnected{ObjectType: TypeMasterDisconnected, Reason: reason}
}

var clientVariants = map[string]bool{
	TypeInitializeClient:  true,
	TypeJoin:              true,
	TypeMessageFromClient: true,
	TypeTransactionResult: true,
	TypeMessageToClient:   true,
	TypeMasterDisconnected: true,
}

// IsClientVariant reports whether objectType names a ClientExternalEvent
// variant, used during connection classification (spec §4.5).
func IsClientVariant(objectType string) bool { return clientVariants[objectType] }

// DecodeClientEvent decodes a frame known to carry a ClientExternalEvent
// into its concrete Go type. The returned value is a pointer to one of the
// client event types declared above.
func DecodeClientEvent(raw []byte) (any, error) {
	var peek struct {
		ObjectType string `json:"object_type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, err
	}
	switch peek.ObjectType {
	case TypeInitializeClient:
		var v InitializeClient
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeJoin:
		var v Join
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeMessageFromClient:
		var v ClientMessageFromClient
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeTransactionResult:
		var v ClientTransactionResult
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeMessageToClient:
		var v ClientMessageToClient
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeMasterDisconnected:
		var v ClientMasterDisconnected
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errUnknownVariant(peek.ObjectType)
	}
}

// PeekObjectType extracts just the object_type discriminator from a raw
// frame, used by the Connection Supervisor before it knows which role's
// event set to decode into.
func PeekObjectType(raw []byte) (string, error) {
	var peek struct {
		ObjectType string `json:"object_type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return "", err
	}
	return peek.ObjectType, nil
}
