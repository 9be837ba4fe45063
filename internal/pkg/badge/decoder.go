package badge

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Badges in the field come in several ad-hoc formats: national-id cards with
// a vCard-like text block, company QR codes carrying a small JSON object, and
// plain linear barcodes that encode the national id directly. A Decoder turns
// whatever the scanner produced into a bare national-id string.
type Decoder interface {
	Decode(rawPayload string) (string, error)
}

var ErrUnreadablePayload = errors.New("could not extract an identifier from the scanned payload")

type chainDecoder struct {
	decoders []Decoder
}

// NewDecoder returns the default decoder chain: JSON, then vCard-like,
// then raw identifier.
func NewDecoder() Decoder {
	return &chainDecoder{decoders: []Decoder{
		jsonDecoder{},
		vCardDecoder{},
		rawDecoder{},
	}}
}

func (c *chainDecoder) Decode(rawPayload string) (string, error) {
	payload := strings.TrimSpace(rawPayload)
	if payload == "" {
		return "", ErrUnreadablePayload
	}
	for _, d := range c.decoders {
		if id, err := d.Decode(payload); err == nil {
			return id, nil
		}
	}
	return "", ErrUnreadablePayload
}

// jsonDecoder handles QR payloads like {"nid":"1234567890"} or {"id":"..."}.
type jsonDecoder struct{}

func (jsonDecoder) Decode(rawPayload string) (string, error) {
	if !strings.HasPrefix(rawPayload, "{") {
		return "", ErrUnreadablePayload
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(rawPayload), &fields); err != nil {
		return "", ErrUnreadablePayload
	}
	for _, key := range []string{"nid", "national_id", "id"} {
		if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", ErrUnreadablePayload
}

// vCardDecoder handles line-oriented card payloads such as:
//
//	N:PEREZ;JUAN
//	ID:1234567890
//
// Only the ID line matters here.
type vCardDecoder struct{}

func (vCardDecoder) Decode(rawPayload string) (string, error) {
	if !strings.Contains(rawPayload, ":") {
		return "", ErrUnreadablePayload
	}
	for _, line := range strings.Split(rawPayload, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "ID", "NID", "DOC":
			value = strings.TrimSpace(value)
			if value != "" {
				return value, nil
			}
		}
	}
	return "", ErrUnreadablePayload
}

var rawIDPattern = regexp.MustCompile(`^[0-9]{5,20}$`)

// rawDecoder accepts linear barcodes that are the national id itself.
type rawDecoder struct{}

func (rawDecoder) Decode(rawPayload string) (string, error) {
	if rawIDPattern.MatchString(rawPayload) {
		return rawPayload, nil
	}
	return "", ErrUnreadablePayload
}
