// Package policy holds the declarative attribute schemas for the gateway's
// AI mediation policies. Schemas describe a policy's configuration surface
// for the host UI and validator; they are declared once and immutable at
// runtime. The provider registry never consults them -- validating a policy
// instance against its schema is the host's job, exposed here only as a
// convenience.
package policy

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	warden "github.com/wardenio/warden/internal"
)

//go:embed definitions/*.json
var definitionFS embed.FS

// AttributeType enumerates the value types a policy attribute may take.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeBoolean AttributeType = "boolean"
	TypeInteger AttributeType = "integer"
	TypeNumber  AttributeType = "number"
	TypeArray   AttributeType = "array"
	TypeObject  AttributeType = "object"
)

// Attribute describes one configurable attribute of a mediation policy.
type Attribute struct {
	Name          string        `json:"name"`
	Type          AttributeType `json:"type"`
	Description   string        `json:"description,omitempty"`
	Required      bool          `json:"required"`
	Default       any           `json:"default,omitempty"`
	AllowedValues []string      `json:"allowedValues,omitempty"`
}

// Definition is the attribute schema of one mediation policy version.
type Definition struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description,omitempty"`
	// ProviderCategories names the registry categories whose providers
	// instances of this policy select at request time.
	ProviderCategories []warden.Category `json:"providerCategories,omitempty"`
	Attributes         []Attribute       `json:"attributes"`
}

// Library is the immutable set of policy definitions shipped with this
// deployment, parsed once at startup.
type Library struct {
	defs map[string]Definition
}

// Load parses the embedded definition documents.
func Load() (*Library, error) {
	entries, err := definitionFS.ReadDir("definitions")
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	defs := make(map[string]Definition, len(entries))
	for _, e := range entries {
		data, err := definitionFS.ReadFile("definitions/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var def Definition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("parse %s: missing policy name", e.Name())
		}
		if _, dup := defs[def.Name]; dup {
			return nil, fmt.Errorf("duplicate policy definition %q", def.Name)
		}
		defs[def.Name] = def
	}
	return &Library{defs: defs}, nil
}

// Get returns the definition for name, or warden.ErrNotFound.
func (l *Library) Get(name string) (Definition, error) {
	def, ok := l.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("policy %q: %w", name, warden.ErrNotFound)
	}
	return def, nil
}

// List returns all definitions sorted by name.
func (l *Library) List() []Definition {
	out := make([]Definition, 0, len(l.defs))
	for _, d := range l.defs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Validate checks a policy instance configuration document against the named
// schema: required attributes present, value types matching, and values
// inside the allowed set. All violations are reported together.
func (l *Library) Validate(name string, raw []byte) error {
	def, err := l.Get(name)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("policy %s: configuration is not valid JSON: %w", name, warden.ErrBadRequest)
	}

	var problems []string
	for _, attr := range def.Attributes {
		v := gjson.GetBytes(raw, attr.Name)
		if !v.Exists() {
			if attr.Required {
				problems = append(problems, fmt.Sprintf("%s: required attribute missing", attr.Name))
			}
			continue
		}
		if msg := checkType(attr, v); msg != "" {
			problems = append(problems, msg)
			continue
		}
		if len(attr.AllowedValues) > 0 && !slices.Contains(attr.AllowedValues, v.String()) {
			problems = append(problems, fmt.Sprintf("%s: value %q not in allowed set %v",
				attr.Name, v.String(), attr.AllowedValues))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("policy %s: %s: %w", name, strings.Join(problems, "; "), warden.ErrBadRequest)
	}
	return nil
}

func checkType(attr Attribute, v gjson.Result) string {
	ok := false
	switch attr.Type {
	case TypeString:
		ok = v.Type == gjson.String
	case TypeBoolean:
		ok = v.Type == gjson.True || v.Type == gjson.False
	case TypeNumber:
		ok = v.Type == gjson.Number
	case TypeInteger:
		ok = v.Type == gjson.Number && v.Num == float64(int64(v.Num))
	case TypeArray:
		ok = v.IsArray()
	case TypeObject:
		ok = v.IsObject()
	}
	if !ok {
		return fmt.Sprintf("%s: expected %s", attr.Name, attr.Type)
	}
	return ""
}
