package a2a

import "encoding/json"

// JSONRPCVersion is the only version this implementation speaks.
const JSONRPCVersion = "2.0"

// RequestID is a JSON-RPC request id: a string, an integer, or null.
// It round-trips through JSON preserving which of the three it was.
type RequestID struct {
	value interface{}
}

func NewStringRequestID(v string) RequestID { return RequestID{value: v} }
func NewIntRequestID(v int64) RequestID     { return RequestID{value: v} }
func NullRequestID() RequestID              { return RequestID{value: nil} }

func (id RequestID) Value() interface{} { return id.value }

func (id RequestID) Equal(other RequestID) bool {
	switch a := id.value.(type) {
	case nil:
		return other.value == nil
	case string:
		b, ok := other.value.(string)
		return ok && a == b
	case int64:
		switch b := other.value.(type) {
		case int64:
			return a == b
		case float64:
			return float64(a) == b
		}
		return false
	case float64:
		switch b := other.value.(type) {
		case int64:
			return a == float64(b)
		case float64:
			return a == b
		}
		return false
	default:
		return false
	}
}

func (id RequestID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &id.value)
}

// JSONRPCRequest is the single-object shape accepted by the JSON-RPC
// transport's POST endpoint.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a unary JSON-RPC response: exactly one of Result or
// Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// NewJSONRPCResultResponse marshals result into a JSONRPCResponse.
func NewJSONRPCResultResponse(id RequestID, result interface{}) (*JSONRPCResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewJSONRPCErrorResponse builds an error response, preserving the id if
// one could be determined (nil for unparseable requests).
func NewJSONRPCErrorResponse(id RequestID, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}
