package ai

import (
	"bytes"
	"encoding/json"

	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

// Response is a validated AI payload. It is either a *NarrationResponse or a *BatchResponse.
type Response interface {
	isResponse()
}

// NarrationResponse is a single narration string with an optional declared action
type NarrationResponse struct {
	Text     string
	Action   string
	TargetID string
}

// BatchEntity is one element of a batch payload
type BatchEntity struct {
	ID          string
	Name        string
	Type        string
	Role        string
	Rank        string
	Level       int
	Description string
	Action      string
	TargetID    string
	Response    string

	// Fields keeps every key of the element as decoded
	Fields map[string]any
}

// BatchResponse is a batch of typed entities. An empty batch is valid.
type BatchResponse struct {
	Elements   []BatchEntity
	Characters []BatchEntity
}

func (*NarrationResponse) isResponse() {}
func (*BatchResponse) isResponse()     {}

// Entities returns elements followed by characters
func (b *BatchResponse) Entities() []BatchEntity {
	out := make([]BatchEntity, 0, len(b.Elements)+len(b.Characters))
	out = append(out, b.Elements...)
	return append(out, b.Characters...)
}

// ValidateResponse checks raw against the response rules and returns the typed result.
// It has no side effects.
func ValidateResponse(raw []byte) (Response, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeMalformedResponse, "response is not a JSON object")
	}
	if obj == nil {
		return nil, dnderr.New(dnderr.CodeMalformedResponse, "response is not a JSON object")
	}

	batch := false
	if flag, ok := obj["batchResponse"]; ok && !isNull(flag) {
		if err := json.Unmarshal(flag, &batch); err != nil {
			return nil, dnderr.New(dnderr.CodeMalformedResponse, "batchResponse must be a boolean")
		}
	}

	if batch {
		return validateBatch(obj)
	}
	return validateNarration(obj)
}

func validateBatch(obj map[string]json.RawMessage) (Response, error) {
	elements, elementsOK := asArray(obj["elements"])
	characters, charactersOK := asArray(obj["characters"])
	if !elementsOK && !charactersOK {
		return nil, dnderr.New(dnderr.CodeMissingBatchPayload, "batch response needs an elements or characters array")
	}

	out := &BatchResponse{}
	var err error
	if out.Elements, err = decodeEntities(elements); err != nil {
		return nil, err
	}
	if out.Characters, err = decodeEntities(characters); err != nil {
		return nil, err
	}
	return out, nil
}

func validateNarration(obj map[string]json.RawMessage) (Response, error) {
	text, ok := asString(obj["response"])
	if !ok {
		return nil, dnderr.New(dnderr.CodeMissingNarration, "response must be a string")
	}

	action, _ := asString(obj["action"])
	target, ok := asString(obj["targetId"])
	if !ok {
		target, _ = asString(obj["target_id"])
	}
	return &NarrationResponse{Text: text, Action: action, TargetID: target}, nil
}

func decodeEntities(items []json.RawMessage) ([]BatchEntity, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]BatchEntity, 0, len(items))
	for i, item := range items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, dnderr.Newf(dnderr.CodeMalformedResponse, "batch entry %d is not an object", i)
		}
		out = append(out, BatchEntity{
			ID:          stringField(fields, "id"),
			Name:        stringField(fields, "name"),
			Type:        stringField(fields, "type"),
			Role:        stringField(fields, "role"),
			Rank:        stringField(fields, "rank"),
			Level:       intField(fields, "level"),
			Description: stringField(fields, "description"),
			Action:      stringField(fields, "action"),
			TargetID:    firstNonEmpty(stringField(fields, "targetId"), stringField(fields, "target_id")),
			Response:    stringField(fields, "response"),
			Fields:      fields,
		})
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func asString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func intField(fields map[string]any, key string) int {
	f, _ := fields[key].(float64)
	return int(f)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Normalize turns generator output into a JSON document for ValidateResponse.
// Markdown code fences are stripped, and for narration types free text that
// is not JSON is wrapped as {"response": text}.
func Normalize(requestType RequestType, output string) []byte {
	trimmed := bytes.TrimSpace([]byte(output))
	trimmed = stripFence(trimmed)

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return trimmed
	}
	if requestType.ExpectsBatch() || len(trimmed) == 0 {
		return trimmed
	}

	wrapped, err := json.Marshal(map[string]string{"response": string(trimmed)})
	if err != nil {
		return trimmed
	}
	return wrapped
}

func stripFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		b = b[nl+1:]
	}
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}
