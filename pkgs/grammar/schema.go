package grammar

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ZdAkk/relex/pkgs/errors"
	"github.com/ZdAkk/relex/pkgs/taxonomy"
)

// documentSchema pins the shape of a grammar definition document before
// the per-rule validator runs. Rule-level option checking stays in Go
// so violations can carry state and rule ordinals.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"extension": {
			"oneOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"check_rules": {"type": "boolean"},
		"inherit_rules": {"type": "string"},
		"states": {
			"type": "object",
			"additionalProperties": {
				"type": "array",
				"items": {"type": "object"}
			}
		}
	},
	"required": ["states"]
}`

var documentValidator = jsonschema.MustCompileString("grammar.schema.json", documentSchema)

// validateDocument checks the decoded document against documentSchema.
func validateDocument(file string, data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.ErrGrammarDecode, fmt.Sprintf("cannot decode %s", file), err)
	}
	if err := documentValidator.Validate(doc); err != nil {
		return errors.NewSchemaError(file, "definition does not match the grammar document shape").WithCause(err)
	}
	return nil
}

// optionShape describes the runtime shapes one rule option accepts.
type optionShape struct {
	str      bool
	strArray bool
	boolean  bool
}

// ruleOptions is the full vocabulary of rule options. merge and
// consume_line_end are observed by the scanning engine and validated
// here alongside the structural options.
var ruleOptions = map[string]optionShape{
	"token":            {str: true, strArray: true},
	"regex":            {str: true},
	"next":             {str: true},
	"default_token":    {str: true},
	"merge":            {boolean: true},
	"consume_line_end": {boolean: true},
}

func (s optionShape) describe() string {
	switch {
	case s.str && s.strArray:
		return "a string or an array of strings"
	case s.str:
		return "a string"
	default:
		return "a boolean"
	}
}

// matches reports whether a raw option value satisfies the shape.
func (s optionShape) matches(raw json.RawMessage) bool {
	if s.str {
		var v string
		if json.Unmarshal(raw, &v) == nil {
			return true
		}
	}
	if s.strArray {
		var v []string
		if json.Unmarshal(raw, &v) == nil {
			return true
		}
	}
	if s.boolean {
		var v bool
		if json.Unmarshal(raw, &v) == nil {
			return true
		}
	}
	return false
}

// rawRule is one undecoded rule object, keyed by option name.
type rawRule map[string]json.RawMessage

// rawState preserves the declaration order of a state and its rules.
type rawState struct {
	name  string
	rules []rawRule
}

// validateRules is the rule schema validator: every option key must
// belong to the vocabulary, every value must satisfy the option's
// declared shapes, token and regex require each other, and
// default_token must be a rule's only option.
func validateRules(file string, states []rawState) error {
	for si, st := range states {
		for ri, rule := range st.rules {
			for key, raw := range rule {
				shape, ok := ruleOptions[key]
				if !ok {
					return errors.NewRuleSchemaError(file, st.name, si, ri, key, "unknown option")
				}
				if !shape.matches(raw) {
					return errors.NewRuleSchemaError(file, st.name, si, ri, key,
						fmt.Sprintf("value must be %s", shape.describe()))
				}
			}
			_, hasToken := rule["token"]
			_, hasRegex := rule["regex"]
			if hasToken != hasRegex {
				missing, present := "regex", "token"
				if hasRegex {
					missing, present = "token", "regex"
				}
				return errors.NewRuleSchemaError(file, st.name, si, ri, present,
					fmt.Sprintf("option %q requires option %q", present, missing))
			}
			if _, ok := rule["default_token"]; ok && len(rule) > 1 {
				return errors.NewRuleSchemaError(file, st.name, si, ri, "default_token",
					"default_token must be the rule's only option")
			}
		}
	}
	return nil
}

// validateTokenLabels resolves every declared token label against the
// taxonomy. Runs after validateRules, so shapes are already known good.
func validateTokenLabels(file string, states []rawState) error {
	for si, st := range states {
		for ri, rule := range st.rules {
			raw, ok := rule["token"]
			if !ok {
				continue
			}
			labels, _ := decodeTokenOption(raw)
			if taxonomy.Check(labels.Labels) {
				continue
			}
			bad := firstInvalidLabel(labels.Labels)
			msg := fmt.Sprintf("token label %q is not in the taxonomy", bad)
			if len(labels.Labels) == 0 {
				msg = "token label list is empty"
			} else if s := taxonomy.Closest(bad); s != "" {
				msg = fmt.Sprintf("%s (closest valid label: %q)", msg, s)
			}
			return errors.NewRuleSchemaError(file, st.name, si, ri, "token", msg)
		}
	}
	return nil
}

func firstInvalidLabel(labels []string) string {
	for _, l := range labels {
		if !taxonomy.Valid(l) {
			return l
		}
	}
	return ""
}
