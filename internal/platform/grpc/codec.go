package grpc

import (
	"encoding/json"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// StructCodecName is the content subtype of the struct codec ("application/grpc+struct").
const StructCodecName = "struct"

func init() {
	encoding.RegisterCodec(StructCodec{})
}

// StructCodec puts plain Go request and response structs on the wire as
// google.protobuf.Struct messages, built from their JSON form. Generated
// messages pass through as ordinary protobuf. Integer fields must stay below
// 2^53, the range a Struct number holds exactly.
type StructCodec struct{}

// Marshal implements encoding.Codec.
func (StructCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	msg, err := structFromValue(v)
	if err != nil {
		return nil, fmt.Errorf("struct codec marshal %T: %w", v, err)
	}
	return proto.Marshal(msg)
}

// Unmarshal implements encoding.Codec.
func (StructCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("struct codec unmarshal %T: %w", v, err)
	}
	raw, err := json.Marshal(msg.AsMap())
	if err != nil {
		return fmt.Errorf("struct codec unmarshal %T: %w", v, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("struct codec unmarshal %T: %w", v, err)
	}
	return nil
}

// Name implements encoding.Codec.
func (StructCodec) Name() string {
	return StructCodecName
}

// StructCallOption selects the struct codec for a single call.
func StructCallOption() gogrpc.CallOption {
	return gogrpc.CallContentSubtype(StructCodecName)
}

func structFromValue(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("message is not a JSON object: %w", err)
	}
	return structpb.NewStruct(fields)
}
