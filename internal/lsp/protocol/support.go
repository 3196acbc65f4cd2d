package protocol

import (
	"fmt"
	"strings"

	"encoding/json/jsontext"
	"encoding/json/v2"
)

const jsonNullLiteral = "null"

// URI is a generic LSP URI.
type URI string

// HasTextDocumentURI exposes a document URI for typed request params.
type HasTextDocumentURI interface {
	TextDocumentURI() DocumentUri
}

// HasTextDocumentPosition exposes both URI and position.
type HasTextDocumentPosition interface {
	HasTextDocumentURI
	TextDocumentPosition() Position
}

// HasLocations exposes bulk locations.
type HasLocations interface {
	GetLocations() *[]Location
}

// HasLocation exposes a single location.
type HasLocation interface {
	GetLocation() Location
}

func unmarshalPtrTo[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", (*T)(nil), err)
	}
	return &v, nil
}

func unmarshalValue[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return *new(T), fmt.Errorf("failed to unmarshal %T: %w", (*T)(nil), err)
	}
	return v, nil
}

func unmarshalAny(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal any: %w", err)
	}
	return v, nil
}

func unmarshalEmpty(data []byte) (any, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == jsonNullLiteral {
		return struct{}{}, nil
	}
	return nil, fmt.Errorf("expected empty or null, got: %s", trimmed)
}

func assertOnlyOne(message string, values ...bool) {
	count := 0
	for _, v := range values {
		if v {
			count++
		}
	}
	if count != 1 {
		panic(message)
	}
}

func assertAtMostOne(message string, values ...bool) {
	count := 0
	for _, v := range values {
		if v {
			count++
		}
	}
	if count > 1 {
		panic(message)
	}
}

// Null encodes/decodes JSON null.
type Null struct{}

func (Null) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	data, err := dec.ReadValue()
	if err != nil {
		return err
	}
	if string(data) != jsonNullLiteral {
		return fmt.Errorf("expected null, got %s", data)
	}
	return nil
}

func (Null) MarshalJSONTo(enc *jsontext.Encoder) error {
	return enc.WriteToken(jsontext.Null)
}
