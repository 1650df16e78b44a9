package domain

// Parcel is the unit of bus traffic. Content carries the body of the
// message as a map; a binary parcel carries its raw bytes in Binary.
// TopicReturn, when non-empty, marks this parcel as part of a synchronous
// request/reply exchange.
type Parcel struct {
	Content     map[string]any `json:"content"`
	Binary      []byte         `json:"binary,omitempty"`
	TopicReturn string         `json:"topic_return,omitempty"`
	AgentID     string         `json:"agent_id,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// IsBinary reports whether this parcel carries the binary-content shape.
func (p Parcel) IsBinary() bool { return len(p.Binary) > 0 }

// HasError reports whether the parcel carries a populated error field.
func (p Parcel) HasError() bool { return p.Error != "" }

// NewTextParcel wraps a body map into a text-shaped parcel.
func NewTextParcel(body map[string]any) Parcel {
	return Parcel{Content: body}
}

// NewErrorParcel builds a reply parcel carrying only an error.
func NewErrorParcel(err error) Parcel {
	return Parcel{Error: err.Error()}
}

// AgentState is the lifecycle state of an Agent.
type AgentState int

const (
	StateCreated AgentState = iota
	StateActivating
	StateActive
	StateTerminating
	StateTerminated
)

func (s AgentState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
