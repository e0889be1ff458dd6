package events

import "encoding/json"

// Master external event type discriminators (spec §6, MasterExternalEvent).
const (
	TypeInitializeMaster    = "InitializeMaster"
	TypeMessageToClient     = "MessageToClient"
	TypeTransactionResult   = "TransactionResult"
	TypeClientJoined        = "ClientJoined"
	TypeClientDisconnected  = "ClientDisconnected"
	TypeMessageFromClient   = "MessageFromClient"
	TypeInitializeClient    = "InitializeClient"
	TypeJoin                = "Join"
	TypeMasterDisconnected  = "MasterDisconnected"
)

// MasterMetadata is the payload of InitializeMaster (spec §3 "Master state").
type MasterMetadata struct {
	MasterID   string `json:"master_id"`
	MaxClients uint32 `json:"max_clients"`
}

// InitializeMaster is sent by the master application to register a session.
type InitializeMaster struct {
	ObjectType    string         `json:"object_type"`
	TransactionID string         `json:"transaction_id"`
	Metadata      MasterMetadata `json:"metadata"`
}

func NewInitializeMaster(tid string, md MasterMetadata) *InitializeMaster {
	return &InitializeMaster{ObjectType: TypeInitializeMaster, TransactionID: tid, Metadata: md}
}

// MasterMessageToClient is sent by the master to push data to one joined
// client, addressed by client_id (spec §4.4.1).
type MasterMessageToClient struct {
	ObjectType    string `json:"object_type"`
	TransactionID string `json:"transaction_id"`
	ClientID      string `json:"client_id"`
	Data          string `json:"data"`
}

func NewMasterMessageToClient(tid, clientID, data string) *MasterMessageToClient {
	return &MasterMessageToClient{ObjectType: TypeMessageToClient, TransactionID: tid, ClientID: clientID, Data: data}
}

// MasterTransactionResult is the reply to any request-style frame the
// master sent (spec §7 propagation policy).
type MasterTransactionResult struct {
	ObjectType    string `json:"object_type"`
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
	Error         *Error `json:"error,omitempty"`
}

func NewMasterTransactionResult(tid string, success bool, err *Error) *MasterTransactionResult {
	return &MasterTransactionResult{ObjectType: TypeTransactionResult, TransactionID: tid, Success: success, Error: err}
}

// ClientJoined notifies the master that a client has joined its session.
type ClientJoined struct {
	ObjectType string `json:"object_type"`
	ClientID   string `json:"client_id"`
	Name       string `json:"name"`
}

func NewClientJoined(clientID, name string) *ClientJoined {
	return &ClientJoined{ObjectType: TypeClientJoined, ClientID: clientID, Name: name}
}

// MasterClientDisconnected notifies the master that a joined client is gone.
type MasterClientDisconnected struct {
	ObjectType string `json:"object_type"`
	ClientID   string `json:"client_id"`
	Reason     string `json:"reason"`
}

func NewMasterClientDisconnected(clientID, reason string) *MasterClientDisconnected {
	return &MasterClientDisconnected{ObjectType: TypeClientDisconnected, ClientID: clientID, Reason: reason}
}

// MasterMessageFromClient delivers a fire-and-forget message from a joined
// client to the master application (no transaction id: this is the push
// side, the client's own TransactionResult is sent to the client directly).
type MasterMessageFromClient struct {
	ObjectType string `json:"object_type"`
	ClientID   string `json:"client_id"`
	Data       string `json:"data"`
}

func NewMasterMessageFromClient(clientID, data string) *MasterMessageFromClient {
	return &MasterMessageFromClient{ObjectType: TypeMessageFromClient, ClientID: clientID, Data: data}
}

var masterVariants = map[string]bool{
	TypeInitializeMaster:   true,
	TypeMessageToClient:    true,
	TypeTransactionResult:  true,
	TypeClientJoined:       true,
	TypeClientDisconnected: true,
	TypeMessageFromClient:  true,
}

// IsMasterVariant reports whether objectType names a MasterExternalEvent
// variant, used during connection classification (spec §4.5).
func IsMasterVariant(objectType string) bool { return masterVariants[objectType] }

// DecodeMasterEvent decodes a frame known to carry a MasterExternalEvent
// into its concrete Go type. The returned value is a pointer to one of the
// master event types declared above.
func DecodeMasterEvent(raw []byte) (any, error) {
	var peek struct {
		ObjectType string `json:"object_type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, err
	}
	switch peek.ObjectType {
	case TypeInitializeMaster:
		var v InitializeMaster
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeMessageToClient:
		var v MasterMessageToClient
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeTransactionResult:
		var v MasterTransactionResult
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeClientJoined:
		var v ClientJoined
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeClientDisconnected:
		var v MasterClientDisconnected
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case TypeMessageFromClient:
		var v MasterMessageFromClient
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errUnknownVariant(peek.ObjectType)
	}
}
