package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"personal-info-parser/internal/model"
)

var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)\\s*```$")

// values models use to say "nothing here"
var placeholders = map[string]struct{}{
	"null": {}, "none": {}, "n/a": {}, "na": {}, "not provided": {}, "not found": {}, "-": {},
}

// parser turns raw model output into a PersonalInfo restricted to a field set.
type parser struct {
	fields []string
	schema *jsonschema.Schema
}

func newParser(fields []string) (*parser, error) {
	b, err := json.Marshal(model.JSONSchema(fields))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("personal_info.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("personal_info.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &parser{fields: fields, schema: schema}, nil
}

// Parse strips Markdown fences, decodes the JSON object, normalizes values and
// validates the result. Every requested field is present afterwards, nil when missing.
// unknown lists the keys the model emitted that are not PersonalInfo fields at all;
// they are dropped. All failures wrap model.ErrMalformed.
func (p *parser) Parse(raw string) (info model.PersonalInfo, unknown []string, err error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return model.PersonalInfo{}, nil, err
	}
	for k := range obj {
		if !model.IsKnownField(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	normalized := make(map[string]any, len(p.fields))
	for _, f := range p.fields {
		normalized[f] = normalizeValue(obj[f])
	}
	if err := p.schema.Validate(normalized); err != nil {
		return model.PersonalInfo{}, nil, fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}

	for _, f := range p.fields {
		if s, ok := normalized[f].(string); ok {
			info.Set(f, &s)
		}
	}
	return info, unknown, nil
}

// decodeObject finds and decodes the JSON object in raw model output.
func decodeObject(raw string) (map[string]any, error) {
	s := stripCodeFence(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty output", model.ErrMalformed)
	}

	v, err := decode(s)
	if err != nil {
		// prose around the object: fall back to the outermost braces
		span := outermostObject(s)
		if span == "" {
			return nil, fmt.Errorf("%w: %v", model.ErrMalformed, err)
		}
		if v, err = decode(span); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrMalformed, err)
		}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", model.ErrMalformed, v)
	}
	return obj, nil
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

// stripCodeFence removes a surrounding ```lang ... ``` wrapper if present.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// normalizeValue coerces scalars to strings and maps empty or placeholder values to nil.
// Objects and arrays are returned untouched so schema validation rejects them.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if _, ok := placeholders[strings.ToLower(s)]; ok {
			return nil
		}
		return s
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return v
	}
}
