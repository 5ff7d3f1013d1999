package source

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// Change operations understood by replay
const (
	opInsert  = "insert"
	opUpdate  = "update"
	opReplace = "replace"
	opDelete  = "delete"
)

// envelope is a change event as published on a player topic. Plain player
// documents carry no operation_type.
type envelope struct {
	OperationType string          `json:"operation_type"`
	FullDocument  json.RawMessage `json:"full_document"`
	DocumentKey   json.RawMessage `json:"document_key"`
}

// replay folds a stream of player messages into the current collection state
type replay struct {
	plain []record.Player
	order []string
	known map[string]bool
	docs  map[string]record.Player
}

func newReplay() *replay {
	return &replay{
		known: make(map[string]bool),
		docs:  make(map[string]record.Player),
	}
}

// apply consumes one message value. Change envelopes are applied by document
// key; anything else is taken as a standalone player document.
func (r *replay) apply(value []byte) error {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}

	if env.OperationType == "" {
		p, err := decodePlayer(value)
		if err != nil {
			return err
		}
		r.plain = append(r.plain, p)
		return nil
	}

	key, err := documentKey(env.DocumentKey)
	if err != nil {
		return err
	}

	switch env.OperationType {
	case opDelete:
		delete(r.docs, key)
	case opInsert, opUpdate, opReplace:
		if isNull(env.FullDocument) {
			return fmt.Errorf("%s for %s carries no full document", env.OperationType, key)
		}
		p, err := decodePlayer(env.FullDocument)
		if err != nil {
			return err
		}
		if !r.known[key] {
			r.known[key] = true
			r.order = append(r.order, key)
		}
		r.docs[key] = p
	default:
		return fmt.Errorf("unknown operation %q", env.OperationType)
	}
	return nil
}

// players returns standalone documents first, then keyed documents in the
// order they first appeared
func (r *replay) players() []record.Player {
	out := make([]record.Player, 0, len(r.plain)+len(r.docs))
	out = append(out, r.plain...)
	for _, key := range r.order {
		if p, ok := r.docs[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

func documentKey(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errors.New("missing document key")
	}
	var key map[string]any
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", fmt.Errorf("unmarshal document key: %w", err)
	}
	id, ok := key["_id"]
	if !ok || id == nil {
		return "", errors.New("document key has no _id")
	}
	return fmt.Sprint(id), nil
}

func decodePlayer(data []byte) (record.Player, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p record.Player
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	if p == nil {
		return nil, errors.New("decode player: null document")
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
