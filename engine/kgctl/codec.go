package kgctl

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec is a hand-written grpc/encoding.Codec that marshals plain Go
// values as JSON instead of protobuf. Used in place of protoc-generated
// message stubs, which this module cannot generate without running the Go
// toolchain; see DESIGN.md's kgctl grounding entry.
type jsonCodec struct{}

const jsonCodecName = "json"

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
