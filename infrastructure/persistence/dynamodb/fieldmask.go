package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// fieldMask compiles a caller-supplied partial patch into the attribute set
// a store update writes. One combinator serves every entity; each store
// parameterizes it with either an allow-list of its mutable fields or a
// deny-list of its immutable ones.
//
// updatedAt is always stamped by the store, never taken from the patch.
type fieldMask struct {
	allowed map[string]struct{}
	denied  map[string]struct{}
}

// allowFields builds a mask that keeps only the named fields.
func allowFields(names ...string) fieldMask {
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}
	return fieldMask{allowed: allowed}
}

// denyFields builds a mask that keeps everything except the named fields.
func denyFields(names ...string) fieldMask {
	denied := make(map[string]struct{}, len(names))
	for _, name := range names {
		denied[name] = struct{}{}
	}
	return fieldMask{denied: denied}
}

// filter returns the patch entries the mask accepts.
func (m fieldMask) filter(patch map[string]any) map[string]any {
	filtered := make(map[string]any, len(patch))
	for name, value := range patch {
		if name == "updatedAt" {
			continue
		}
		if m.allowed != nil {
			if _, ok := m.allowed[name]; !ok {
				continue
			}
		}
		if m.denied != nil {
			if _, ok := m.denied[name]; ok {
				continue
			}
		}
		filtered[name] = value
	}
	return filtered
}

// compile filters the patch and marshals it into a store update, stamping
// updatedAt. The returned count is the number of recognized fields from the
// patch itself: zero means the caller should read through instead of
// writing.
func (m fieldMask) compile(patch map[string]any, updatedAt string) (Item, int, error) {
	filtered := m.filter(patch)
	recognized := len(filtered)
	filtered["updatedAt"] = updatedAt

	set, err := attributevalue.MarshalMap(filtered)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal patch: %w", err)
	}
	return set, recognized, nil
}
