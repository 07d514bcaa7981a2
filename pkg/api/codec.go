// Package api defines the Manito RPC surface: wire messages, procedure names,
// and connect handler and client constructors.
//
// Messages are plain Go structs carried as JSON, so every handler and client
// built here is configured with JSONCodec.
package api

import "encoding/json"

// JSONCodec is a connect.Codec for plain Go structs.
type JSONCodec struct{}

// Name implements connect.Codec. It replaces connect's built-in protojson codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
