// Package document holds the backend-neutral pieces of the document store:
// BSON encoding with an assigned "_id", exact-equality filter matching and
// $set-style patching. Every DocumentStore implementation builds on it so
// that filters and patches behave the same on each backend.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// IDField is the key every stored document is identified by.
const IDField = "_id"

// Filter selects documents: all key/value pairs must be equal (AND).
// An empty filter matches every document.
type Filter = bson.M

// Patch lists fields to overwrite ($set semantics).
type Patch = bson.M

// Unique declares a field whose values may not repeat within a collection.
type Unique struct {
	Collection string
	Field      string
}

var fieldName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks that the names are plain lowercase identifiers.
func (u Unique) Validate() error {
	if !fieldName.MatchString(u.Collection) || !fieldName.MatchString(u.Field) {
		return fmt.Errorf("invalid unique constraint %s.%s", u.Collection, u.Field)
	}
	return nil
}

// Marshal encodes doc (a struct or a map) as BSON.
func Marshal(doc any) (bson.Raw, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", common.ErrorInvalidInput)
	}
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", common.ErrorInvalidInput, err)
	}
	return bson.Raw(b), nil
}

// WithID returns a copy of raw whose first element is _id = id. Any _id the
// caller supplied is dropped: identifiers are always assigned by the store.
func WithID(raw bson.Raw, id ident.ID) (bson.Raw, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	d := make(bson.D, 0, len(elems)+1)
	d = append(d, bson.E{Key: IDField, Value: id})
	for _, e := range elems {
		if e.Key() == IDField {
			continue
		}
		d = append(d, bson.E{Key: e.Key(), Value: e.Value()})
	}

	b, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bson.Raw(b), nil
}

// ID extracts the identifier of a stored document.
func ID(raw bson.Raw) (ident.ID, error) {
	var id ident.ID
	v, err := raw.LookupErr(IDField)
	if err != nil {
		return id, fmt.Errorf("document without %s: %w", IDField, err)
	}
	if err := id.UnmarshalBSONValue(v.Type, v.Value); err != nil {
		return id, err
	}
	return id, nil
}

// Matches reports whether every filter field equals the document's field.
// Values are compared by their BSON encoding, so types must agree. A missing
// field only matches a nil filter value.
func Matches(raw bson.Raw, filter Filter) (bool, error) {
	for key, want := range filter {
		t, data, err := marshalValue(want)
		if err != nil {
			return false, fmt.Errorf("%w: filter %q: %v", common.ErrorInvalidInput, key, err)
		}

		got, err := raw.LookupErr(key)
		if err != nil {
			if errors.Is(err, bsoncore.ErrElementNotFound) {
				if t == bsontype.Null {
					continue
				}
				return false, nil
			}
			return false, fmt.Errorf("read document: %w", err)
		}

		if got.Type != t || !bytes.Equal(got.Value, data) {
			return false, nil
		}
	}
	return true, nil
}

func marshalValue(v any) (bsontype.Type, []byte, error) {
	if v == nil {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(v)
}

// ValidatePatch rejects empty patches, operator keys and attempts to change _id.
func ValidatePatch(patch Patch) error {
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty patch", common.ErrorInvalidInput)
	}
	for key := range patch {
		if key == IDField {
			return fmt.Errorf("%w: %s cannot be modified", common.ErrorInvalidInput, IDField)
		}
		if key == "" || strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			return fmt.Errorf("%w: invalid patch field %q", common.ErrorInvalidInput, key)
		}
	}
	return nil
}

// ApplyPatch returns raw with the patch fields overwritten in place; new
// fields are appended in key order.
func ApplyPatch(raw bson.Raw, patch Patch) (bson.Raw, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	elems, err := raw.Elements()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	applied := make(map[string]bool, len(patch))
	d := make(bson.D, 0, len(elems)+len(patch))
	for _, e := range elems {
		if v, ok := patch[e.Key()]; ok {
			d = append(d, bson.E{Key: e.Key(), Value: v})
			applied[e.Key()] = true
			continue
		}
		d = append(d, bson.E{Key: e.Key(), Value: e.Value()})
	}

	rest := make([]string, 0, len(patch))
	for k := range patch {
		if !applied[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		d = append(d, bson.E{Key: k, Value: patch[k]})
	}

	b, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("%w: encode patch: %v", common.ErrorInvalidInput, err)
	}
	return bson.Raw(b), nil
}

// Clone copies raw so callers can't alias store memory.
func Clone(raw bson.Raw) bson.Raw {
	return bson.Raw(bytes.Clone(raw))
}
