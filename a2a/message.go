package a2a

// Role identifies the sender of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PartKind discriminates the variants of Part.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// FileContent carries file bytes inline or a URI reference to them.
// Exactly one of Bytes or URI should be set.
type FileContent struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Bytes    *string `json:"bytes,omitempty"`
	URI      *string `json:"uri,omitempty"`
}

// Part is one segment of a Message or Artifact: text, a file, or
// structured data. Kind determines which of Text/File/Data is populated.
type Part struct {
	Kind     PartKind               `json:"kind"`
	Text     *string                `json:"text,omitempty"`
	File     *FileContent           `json:"file,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewTextPart builds a text Part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: &text}
}

// Message is an immutable unit of communication between a client and an
// agent. MessageID is required; TaskID/ContextID are populated once the
// message is associated with a task.
type Message struct {
	MessageID        string                  `json:"messageId"`
	Role             Role                    `json:"role"`
	Parts            []Part                  `json:"parts"`
	ContextID        *string                 `json:"contextId,omitempty"`
	TaskID           *string                 `json:"taskId,omitempty"`
	ReferenceTaskIDs []string                `json:"referenceTaskIds,omitempty"`
	Extensions       []string                `json:"extensions,omitempty"`
	Metadata         map[string]interface{}  `json:"metadata,omitempty"`
	Kind             string                  `json:"kind"` // always "message"; present for union discrimination on the wire
}
