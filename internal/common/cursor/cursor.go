// Package cursor implements the opaque timeline pagination cursor described
// in spec.md §9: base64url(json{t, i}), where t is the item's published
// timestamp (RFC3339Nano, UTC) and i is its internal id, used as a tiebreaker
// for items published at the same instant.
//
// Grounded on the documented-but-unimplemented design of
// internal/common/pagination.CursorStrategy; that stub's interface is shaped
// around offset/page metadata and does not fit an opaque timeline cursor, so
// this package implements the design directly instead of satisfying that
// interface.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"microsubd/internal/repository"
)

type wireCursor struct {
	T time.Time `json:"t"`
	I int64     `json:"i"`
}

// Encode renders a repository.Cursor as an opaque pagination token.
func Encode(c *repository.Cursor) string {
	if c == nil {
		return ""
	}
	b, err := json.Marshal(wireCursor{T: c.Published, I: c.ID})
	if err != nil {
		// wireCursor always marshals; unreachable in practice.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses an opaque pagination token back into a repository.Cursor. An
// empty string decodes to (nil, nil): "no cursor given".
func Decode(token string) (*repository.Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid encoding: %w", err)
	}
	var wc wireCursor
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, fmt.Errorf("cursor: invalid payload: %w", err)
	}
	return &repository.Cursor{Published: wc.T, ID: wc.I}, nil
}
