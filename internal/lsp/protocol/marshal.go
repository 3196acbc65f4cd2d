package protocol

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
)

// MarshalJSONTo implements json/v2's marshaler interface for the union
// fields above; exactly one branch must be set.

func (v IntOrString) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.Integer != nil:
		return json.MarshalEncode(enc, *v.Integer)
	case v.String != nil:
		return json.MarshalEncode(enc, *v.String)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

func (v *IntOrString) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	raw, err := dec.ReadValue()
	if err != nil {
		return err
	}
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		v.Integer = &asInt
		return nil
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		v.String = &asStr
		return nil
	}
	return fmt.Errorf("protocol: IntOrString: unexpected value %s", raw)
}

func (v BooleanOrSaveOptions) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.SaveOptions != nil:
		return json.MarshalEncode(enc, v.SaveOptions)
	case v.Boolean != nil:
		return json.MarshalEncode(enc, *v.Boolean)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

func (v TextDocumentSyncOptionsOrKind) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.Options != nil:
		return json.MarshalEncode(enc, v.Options)
	case v.Kind != nil:
		return json.MarshalEncode(enc, *v.Kind)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

func (v DiagnosticOptionsOrRegistrationOptions) MarshalJSONTo(enc *jsontext.Encoder) error {
	return json.MarshalEncode(enc, v.Options)
}

func (v TextDocumentContentChangeEvent) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.WholeDocument != nil:
		return json.MarshalEncode(enc, v.WholeDocument)
	case v.Partial != nil:
		return json.MarshalEncode(enc, v.Partial)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

func (v *TextDocumentContentChangeEvent) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	raw, err := dec.ReadValue()
	if err != nil {
		return err
	}
	var partial PartialDocumentChange
	if err := json.Unmarshal(raw, &partial); err == nil && partial.Range != nil {
		v.Partial = &partial
		return nil
	}
	var whole WholeDocumentChange
	if err := json.Unmarshal(raw, &whole); err != nil {
		return err
	}
	v.WholeDocument = &whole
	return nil
}

func (v DocumentDiagnosticReport) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch {
	case v.Full != nil:
		return json.MarshalEncode(enc, v.Full)
	case v.Unchanged != nil:
		return json.MarshalEncode(enc, v.Unchanged)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}
