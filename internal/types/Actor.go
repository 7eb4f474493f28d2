/*

ActorID identifies every participant the program talks to: callers, the program
itself, and the asset collaborators (pool assets and the LP asset).

*/

package types

import (
	"encoding/hex"
	"strings"

	errorsmod "cosmossdk.io/errors"
)

// ActorIDLength is the byte length of an ActorID.
const ActorIDLength = 32

type ActorID [ActorIDLength]byte

// ParseActorID accepts 64 hex digits with an optional 0x prefix.
func ParseActorID(s string) (ActorID, error) {
	var id ActorID
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != hex.EncodedLen(ActorIDLength) {
		return id, errorsmod.Wrapf(ErrInvalidActorID, "%q: expected %d hex digits, got %d", s, hex.EncodedLen(ActorIDLength), len(raw))
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, errorsmod.Wrapf(ErrInvalidActorID, "%q: %v", s, err)
	}
	return id, nil
}

// MustParseActorID panics on malformed input. Intended for constants and tests.
func MustParseActorID(s string) ActorID {
	id, err := ParseActorID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseActorIDList splits on commas, semicolons and whitespace and parses
// every non-empty field.
func ParseActorIDList(s string) ([]ActorID, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	ids := make([]ActorID, 0, len(fields))
	for _, field := range fields {
		id, err := ParseActorID(field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a ActorID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a ActorID) IsZero() bool {
	return a == ActorID{}
}

func (a ActorID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActorID) UnmarshalText(text []byte) error {
	id, err := ParseActorID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
