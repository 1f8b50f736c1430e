// Package ident normalizes document identifiers.
//
// An identifier is either a Native key minted by the document database (a
// 12-byte ObjectID rendered as 24 lowercase hex characters) or a Local key
// minted by the in-process store ("mock_id_<n>"). Strings entering the
// system are parsed once with Parse; the ID travels through services and
// storage as a value and is rendered back with String only where it leaves.
package ident

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalPrefix marks identifiers minted by the in-process store.
const LocalPrefix = "mock_id_"

// Kind tells which interpretation of an identifier is in effect.
type Kind uint8

const (
	// KindLocal is an opaque key understood by the in-process store.
	KindLocal Kind = iota
	// KindNative is a database-generated ObjectID.
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	default:
		return "local"
	}
}

// ID is a tagged union of Native(ObjectID) and Local(key).
// The zero value is the empty Local key.
type ID struct {
	kind   Kind
	native primitive.ObjectID
	key    string
}

// Parse converts an external identifier into an ID. It never fails:
//   - strings carrying LocalPrefix are Local;
//   - canonical 24-hex strings are Native;
//   - anything else is kept verbatim as a Local key, so lookups simply miss.
func Parse(s string) ID {
	if strings.HasPrefix(s, LocalPrefix) {
		return ID{kind: KindLocal, key: s}
	}
	if oid, ok := parseNative(s); ok {
		return Native(oid)
	}
	return ID{kind: KindLocal, key: s}
}

// parseNative accepts only the canonical lowercase form so that String
// reproduces the input byte for byte.
func parseNative(s string) (primitive.ObjectID, bool) {
	if len(s) != 2*len(primitive.NilObjectID) {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	if oid.Hex() != s {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// Native wraps a database-generated ObjectID.
func Native(oid primitive.ObjectID) ID {
	return ID{kind: KindNative, native: oid}
}

// Local mints the in-process key for sequence number seq.
func Local(seq uint64) ID {
	return ID{kind: KindLocal, key: LocalPrefix + strconv.FormatUint(seq, 10)}
}

// Kind reports which interpretation is in effect.
func (id ID) Kind() Kind { return id.kind }

// IsZero reports whether id is the empty identifier.
func (id ID) IsZero() bool {
	return id.kind == KindLocal && id.key == ""
}

// ObjectID returns the native key, ok is false for Local identifiers.
func (id ID) ObjectID() (primitive.ObjectID, bool) {
	if id.kind != KindNative {
		return primitive.NilObjectID, false
	}
	return id.native, true
}

// Key returns the local key, ok is false for Native identifiers.
func (id ID) Key() (string, bool) {
	if id.kind != KindLocal {
		return "", false
	}
	return id.key, true
}

// Seq returns the sequence number of a minted Local key ("mock_id_<n>", n > 0).
func (id ID) Seq() (uint64, bool) {
	if id.kind != KindLocal || !strings.HasPrefix(id.key, LocalPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(id.key, LocalPrefix), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// String renders the display form.
func (id ID) String() string {
	if id.kind == KindNative {
		return id.native.Hex()
	}
	return id.key
}

// MarshalText implements encoding.TextMarshaler; JSON carries the display form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	*id = Parse(string(b))
	return nil
}

// MarshalBSONValue stores Native keys as ObjectId and Local keys as strings.
func (id ID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if id.kind == KindNative {
		return bson.MarshalValue(id.native)
	}
	return bson.MarshalValue(id.key)
}

// UnmarshalBSONValue accepts ObjectId, string and null values.
func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.ObjectID:
		var oid primitive.ObjectID
		if len(data) != len(oid) {
			return fmt.Errorf("ident: object id of %d bytes", len(data))
		}
		copy(oid[:], data)
		*id = Native(oid)
	case bsontype.String:
		s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
		if !ok {
			return fmt.Errorf("ident: malformed string value")
		}
		*id = Parse(s)
	case bsontype.Null, bsontype.Undefined:
		*id = ID{}
	default:
		return fmt.Errorf("ident: cannot decode %s into ID", t)
	}
	return nil
}
