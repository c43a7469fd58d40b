/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package grpclogging

import (
	"encoding/json"
	"fmt"

	protov1 "github.com/golang/protobuf/proto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// MaxPayloadBytes bounds the JSON rendering of a logged message.
const MaxPayloadBytes = 4096

type protoMarshaler struct {
	message proto.Message
}

func (m *protoMarshaler) MarshalJSON() ([]byte, error) {
	out, err := protojson.Marshal(m.message)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxPayloadBytes {
		return json.Marshal(fmt.Sprintf("%s... (%d bytes truncated)", out[:MaxPayloadBytes], len(out)-MaxPayloadBytes))
	}
	return out, nil
}

// ProtoMessage renders a protobuf message as JSON with signature fields
// removed. Other values are logged as is.
func ProtoMessage(key string, val interface{}) zapcore.Field {
	if pm := messageV2(val); pm != nil && pm.ProtoReflect().IsValid() {
		clone := proto.Clone(pm)
		redactSignatures(clone.ProtoReflect())
		return zap.Reflect(key, &protoMarshaler{message: clone})
	}
	return zap.Any(key, val)
}

// messageV2 returns the reflective view of val. Messages generated with the
// legacy API, such as those in fabric-protos-go, are wrapped.
func messageV2(val interface{}) proto.Message {
	switch m := val.(type) {
	case proto.Message:
		return m
	case protov1.Message:
		return protov1.MessageV2(m)
	default:
		return nil
	}
}

func redactSignatures(m protoreflect.Message) {
	var signatures []protoreflect.FieldDescriptor
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		switch {
		case fd.Kind() == protoreflect.BytesKind && fd.Name() == "signature" && !fd.IsList():
			signatures = append(signatures, fd)
		case fd.Kind() != protoreflect.MessageKind || fd.IsMap():
		case fd.IsList():
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				redactSignatures(list.Get(i).Message())
			}
		default:
			redactSignatures(v.Message())
		}
		return true
	})
	for _, fd := range signatures {
		m.Clear(fd)
	}
}

func Error(err error) zapcore.Field {
	if err == nil {
		return zap.Skip()
	}

	// Wrap the error so it no longer implements fmt.Formatter. This will prevent
	// zap from adding the "verboseError" field to the log record that includes a
	// full stack trace.
	return zap.Error(struct{ error }{err})
}
