package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/desertthunder/boardsync/internal/shared"
)

// CustomFieldKind tags the variant held by a [CustomFieldValue].
type CustomFieldKind int

const (
	CustomFieldEmpty   CustomFieldKind = iota // null or cleared value
	CustomFieldChecked                        // {"checked": "true"}
	CustomFieldText                           // {"text": "..."}
	CustomFieldNumber                         // {"number": "42"}
	CustomFieldUnknown                        // any other shape (dates, list options)
)

func (k CustomFieldKind) String() string {
	switch k {
	case CustomFieldEmpty:
		return "empty"
	case CustomFieldChecked:
		return "checked"
	case CustomFieldText:
		return "text"
	case CustomFieldNumber:
		return "number"
	default:
		return "unknown"
	}
}

// CustomFieldValue is the board's tri-variant custom field encoding as a tagged union.
//
// Only the member selected by Kind is meaningful.
type CustomFieldValue struct {
	Kind    CustomFieldKind
	Checked bool
	Text    string
	Number  string          // decimal string, as the board sends it
	Raw     json.RawMessage // original payload for [CustomFieldUnknown]
}

// Checked builds a checkbox value.
func Checked(b bool) CustomFieldValue {
	return CustomFieldValue{Kind: CustomFieldChecked, Checked: b}
}

// Text builds a text value.
func Text(s string) CustomFieldValue {
	return CustomFieldValue{Kind: CustomFieldText, Text: s}
}

// Number builds a number value.
func Number(n string) CustomFieldValue {
	return CustomFieldValue{Kind: CustomFieldNumber, Number: n}
}

// Empty builds a value that clears the field.
func Empty() CustomFieldValue {
	return CustomFieldValue{Kind: CustomFieldEmpty}
}

// MarshalJSON encodes the variant. Empty values encode as "" which the board treats as "clear".
func (v CustomFieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case CustomFieldEmpty:
		return []byte(`""`), nil
	case CustomFieldChecked:
		return json.Marshal(map[string]string{"checked": strconv.FormatBool(v.Checked)})
	case CustomFieldText:
		return json.Marshal(map[string]string{"text": v.Text})
	case CustomFieldNumber:
		return json.Marshal(map[string]string{"number": v.Number})
	default:
		if len(v.Raw) == 0 {
			return nil, &shared.UnsupportedTypeError{Value: v}
		}
		return v.Raw, nil
	}
}

// UnmarshalJSON decodes the board's object-shaped encoding into the tagged union.
func (v *CustomFieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		*v = Empty()
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("failed to decode custom field value: %w", err)
	}
	if len(raw) == 0 {
		*v = Empty()
		return nil
	}

	if c, ok := raw["checked"]; ok {
		checked, err := decodeFlag(c)
		if err != nil {
			return err
		}
		*v = Checked(checked)
		return nil
	}
	if t, ok := raw["text"]; ok {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return fmt.Errorf("failed to decode text custom field: %w", err)
		}
		*v = Text(s)
		return nil
	}
	if n, ok := raw["number"]; ok {
		var s string
		if err := json.Unmarshal(n, &s); err != nil {
			var f json.Number
			if err := json.Unmarshal(n, &f); err != nil {
				return fmt.Errorf("failed to decode number custom field: %w", err)
			}
			s = f.String()
		}
		*v = Number(s)
		return nil
	}

	*v = CustomFieldValue{Kind: CustomFieldUnknown, Raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// decodeFlag accepts both "true" strings and JSON booleans.
func decodeFlag(data json.RawMessage) (bool, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s == "true", nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return false, fmt.Errorf("failed to decode checked custom field: %w", err)
	}
	return b, nil
}

// ValueToCustomField encodes a task value as a custom field value.
//
// bool maps to checked, string to text, integers and floats to number. Any other type is an [shared.UnsupportedTypeError].
func ValueToCustomField(value any) (CustomFieldValue, error) {
	switch v := value.(type) {
	case bool:
		return Checked(v), nil
	case string:
		return Text(v), nil
	case int:
		return Number(strconv.Itoa(v)), nil
	case int64:
		return Number(strconv.FormatInt(v, 10)), nil
	case float64:
		return Number(strconv.FormatFloat(v, 'f', -1, 64)), nil
	default:
		return CustomFieldValue{}, &shared.UnsupportedTypeError{Value: value}
	}
}

// CustomFieldToValue decodes a custom field value.
//
// A present-but-null value is the unchecked sentinel and decodes to false.
// Integral numbers decode to int, other numbers to float64.
func CustomFieldToValue(field CustomFieldValue) (any, error) {
	switch field.Kind {
	case CustomFieldEmpty:
		return false, nil
	case CustomFieldChecked:
		return field.Checked, nil
	case CustomFieldText:
		return field.Text, nil
	case CustomFieldNumber:
		if i, err := strconv.Atoi(field.Number); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(field.Number, 64); err == nil {
			return f, nil
		}
		return nil, &shared.UnsupportedTypeError{Value: field.Number}
	default:
		return nil, &shared.UnsupportedTypeError{Value: field}
	}
}
