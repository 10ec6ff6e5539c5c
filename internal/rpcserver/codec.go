// Package rpcserver exposes the facade's operations over gRPC's Unix-socket
// transport without protobuf codegen: a hand-authored grpc.ServiceDesc binds
// wire method names to typed handlers, paired with a JSON encoding.Codec
// instead of the wire format protobuf generates. HTTP/2 framing, streaming,
// interceptors, and context cancellation all still come from
// google.golang.org/grpc; only the message representation changes.
package rpcserver

import "encoding/json"

// jsonCodec implements google.golang.org/grpc/encoding.Codec over plain Go
// structs, since this repository has no protoc step to generate
// proto.Message implementations from.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
