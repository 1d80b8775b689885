package grammar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZdAkk/relex/core/invariant"
	"github.com/ZdAkk/relex/pkgs/errors"
)

// inheritSuffix is the fixed suffix appended to an inherit_rules base
// name when resolving the parent grammar file next to the child.
const inheritSuffix = ".json"

// Load reads, validates, and constructs a grammar, recursively merging
// inherited parents. forceCheckRules runs the rule validators even when
// the definition opts out with "check_rules": false.
func Load(path string, forceCheckRules bool) (*Grammar, error) {
	l := &loader{}
	return l.load(path, forceCheckRules)
}

// loader tracks the chain of grammar files currently being constructed
// so a cyclic inherit_rules chain fails instead of recursing forever.
type loader struct {
	chain []string
}

func (l *loader) load(path string, forceCheckRules bool) (*Grammar, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, seen := range l.chain {
		if seen == abs {
			return nil, errors.NewSchemaError(path,
				fmt.Sprintf("cyclic inherit_rules chain: %s", formatChain(l.chain, abs)))
		}
	}
	l.chain = append(l.chain, abs)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrGrammarNotFound,
				fmt.Sprintf("grammar file %s does not exist", path), err)
		}
		return nil, errors.Wrap(errors.ErrGrammarRead,
			fmt.Sprintf("cannot read grammar file %s", path), err)
	}

	data = stripComments(data)
	if err := validateDocument(path, data); err != nil {
		return nil, err
	}

	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	check := doc.checkRules || forceCheckRules
	if check {
		if err := validateRules(path, doc.states); err != nil {
			return nil, err
		}
		if err := validateTokenLabels(path, doc.states); err != nil {
			return nil, err
		}
	}

	g := &Grammar{
		Name:        doc.name,
		File:        path,
		Extensions:  doc.extensions,
		CheckRules:  doc.checkRules,
		InheritFrom: doc.inheritRules,
		States:      make(map[string][]Rule, len(doc.states)),
	}
	for _, st := range doc.states {
		rules := make([]Rule, 0, len(st.rules))
		for ri, raw := range st.rules {
			r, err := buildRule(raw)
			if err != nil {
				return nil, errors.NewRuleSchemaError(path, st.name, len(g.stateOrder), ri, "",
					"rule cannot be decoded").WithCause(err)
			}
			rules = append(rules, r)
		}
		g.States[st.name] = rules
		g.stateOrder = append(g.stateOrder, st.name)
	}

	if check {
		if _, ok := g.States["start"]; !ok {
			return nil, errors.NewSchemaError(path, `grammar does not define a "start" state`)
		}
	}

	if g.InheritFrom != "" {
		parentPath := filepath.Join(filepath.Dir(path), g.InheritFrom+inheritSuffix)
		if check {
			if _, err := os.Stat(parentPath); err != nil {
				return nil, errors.NewSchemaError(path,
					fmt.Sprintf("inherit_rules %q does not resolve to an existing file (%s)",
						g.InheritFrom, parentPath)).WithCause(err)
			}
		}
		parent, err := l.load(parentPath, false)
		if err != nil {
			return nil, err
		}
		mergeInherited(g, parent)
	}

	invariant.Invariant(len(g.stateOrder) == len(g.States), "state order and state map must agree")
	return g, nil
}

func formatChain(chain []string, last string) string {
	var b bytes.Buffer
	for _, c := range chain {
		fmt.Fprintf(&b, "%s -> ", filepath.Base(c))
	}
	b.WriteString(filepath.Base(last))
	return b.String()
}

// document is the ordered decoding of one grammar definition file.
type document struct {
	name         string
	extensions   []string
	checkRules   bool
	inheritRules string
	states       []rawState
}

// decodeDocument walks the top-level object with a token decoder so
// state declaration order survives into error messages, and so any
// unrecognized top-level field is rejected.
func decodeDocument(file string, data []byte) (*document, error) {
	doc := &document{checkRules: true}
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.NewSchemaError(file, "definition must be a single object").WithCause(err)
	}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, errors.NewSchemaError(file, "malformed definition object").WithCause(err)
		}
		switch key {
		case "name":
			if err := dec.Decode(&doc.name); err != nil {
				return nil, errors.NewSchemaError(file, "name must be a string").WithCause(err)
			}
		case "extension":
			exts, err := decodeExtensions(dec)
			if err != nil {
				return nil, errors.NewSchemaError(file, err.Error())
			}
			doc.extensions = exts
		case "check_rules":
			if err := dec.Decode(&doc.checkRules); err != nil {
				return nil, errors.NewSchemaError(file, "check_rules must be a boolean").WithCause(err)
			}
		case "inherit_rules":
			if err := dec.Decode(&doc.inheritRules); err != nil {
				return nil, errors.NewSchemaError(file, "inherit_rules must be a string").WithCause(err)
			}
		case "states":
			states, err := decodeStates(file, dec)
			if err != nil {
				return nil, err
			}
			doc.states = states
		default:
			return nil, errors.NewSchemaError(file, fmt.Sprintf("unrecognized field %q", key))
		}
	}
	if doc.states == nil {
		return nil, errors.NewSchemaError(file, `definition has no "states" field`)
	}
	return doc, nil
}

func decodeStates(file string, dec *json.Decoder) ([]rawState, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.NewSchemaError(file, "states must be an object").WithCause(err)
	}
	states := []rawState{}
	for dec.More() {
		name, err := nextKey(dec)
		if err != nil {
			return nil, errors.NewSchemaError(file, "malformed states object").WithCause(err)
		}
		for _, seen := range states {
			if seen.name == name {
				return nil, errors.NewStateSchemaError(file, name, len(states),
					"state is declared more than once")
			}
		}
		var rules []rawRule
		if err := dec.Decode(&rules); err != nil {
			return nil, errors.NewStateSchemaError(file, name, len(states),
				"state must be an array of rule objects").WithCause(err)
		}
		states = append(states, rawState{name: name, rules: rules})
	}
	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return nil, errors.NewSchemaError(file, "malformed states object").WithCause(err)
	}
	return states, nil
}

// decodeExtensions accepts a string or an array of strings; every
// non-sentinel entry must start with ".".
func decodeExtensions(dec *json.Decoder) ([]string, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("extension must be a string or an array of strings")
	}
	var exts []string
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		exts = []string{single}
	} else if err := json.Unmarshal(raw, &exts); err != nil {
		return nil, fmt.Errorf("extension must be a string or an array of strings")
	}
	for _, e := range exts {
		if e != NoExtension && (len(e) == 0 || e[0] != '.') {
			return nil, fmt.Errorf("extension %q must start with %q or be the %q sentinel", e, ".", NoExtension)
		}
	}
	return exts, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// buildRule converts one raw rule object into its typed variant.
func buildRule(raw rawRule) (Rule, error) {
	if dt, ok := raw["default_token"]; ok {
		var label string
		if err := json.Unmarshal(dt, &label); err != nil {
			return nil, err
		}
		return &DefaultTokenRule{Token: label}, nil
	}
	r := &TokenRule{}
	if tok, ok := raw["token"]; ok {
		spec, err := decodeTokenOption(tok)
		if err != nil {
			return nil, err
		}
		r.Token = spec
	}
	if re, ok := raw["regex"]; ok {
		if err := json.Unmarshal(re, &r.Regex); err != nil {
			return nil, err
		}
	}
	if next, ok := raw["next"]; ok {
		if err := json.Unmarshal(next, &r.Next); err != nil {
			return nil, err
		}
	}
	if m, ok := raw["merge"]; ok {
		var v bool
		if err := json.Unmarshal(m, &v); err != nil {
			return nil, err
		}
		r.Merge = &v
	}
	if c, ok := raw["consume_line_end"]; ok {
		var v bool
		if err := json.Unmarshal(c, &v); err != nil {
			return nil, err
		}
		r.ConsumeLineEnd = &v
	}
	return r, nil
}

// decodeTokenOption resolves the string-vs-array token value once, at
// load time.
func decodeTokenOption(raw json.RawMessage) (TokenSpec, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return Single(single), nil
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return TokenSpec{}, fmt.Errorf("token must be a string or an array of strings")
	}
	return TokenSpec{Labels: labels, Multi: true}, nil
}

// stripComments removes // line comments outside JSON string literals
// and drops blank lines, so definition files can be annotated.
func stripComments(src []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(src))
	for _, line := range bytes.Split(src, []byte("\n")) {
		line = stripLineComment(line)
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out.Write(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func stripLineComment(line []byte) []byte {
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case inString && line[i] == '\\':
			i++
		case line[i] == '"':
			inString = !inString
		case !inString && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}
