package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// RenewPartIDs assigns a fresh id to every part of the layout. It returns
// the rewritten content and a map from old to new ids
func RenewPartIDs(
	raw json.RawMessage,
) (json.RawMessage, map[string]string, error) {
	parts := Parts(raw)
	if len(parts) == 0 {
		return raw, map[string]string{}, nil
	}

	res := raw
	ids := make(map[string]string, len(parts))
	for i, p := range parts {
		id := newPartID(p.Type)
		var err error
		res, err = SetPartID(res, i, id)
		if err != nil {
			return nil, nil, err
		}
		if p.ID != "" {
			ids[p.ID] = id
		}
	}
	return res, ids, nil
}

// SetPartID replaces the id of the part at index i
func SetPartID(
	raw json.RawMessage, i int, id string,
) (json.RawMessage, error) {
	return sjson.SetBytes(raw, fmt.Sprintf("%s.%d.id", partsLayout, i), id)
}

func newPartID(partType string) string {
	prefix := strings.TrimPrefix(partType, "janus-")
	if prefix == "" {
		prefix = "part"
	}
	return prefix + "-" + uuid.NewString()[:8]
}
