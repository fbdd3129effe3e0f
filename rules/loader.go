package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/prompttask/errors"
)

// File is the on-disk shape of a rules file. Either bare rules or rulesets
// may be declared, not both:
//
//	rules = ["Be concise"]
//
//	[[rulesets]]
//	name  = "Tone"
//	rules = ["Be polite", "Avoid jargon"]
type File struct {
	Rules    []string      `toml:"rules" yaml:"rules"`
	Rulesets []FileRuleset `toml:"rulesets" yaml:"rulesets"`
}

// FileRuleset is one [[rulesets]] entry.
type FileRuleset struct {
	Name  string   `toml:"name" yaml:"name"`
	Rules []string `toml:"rules" yaml:"rules"`
}

// Scope converts the file into a validated Scope. Rulesets written in a
// file must be named so they can be told apart in the system message.
func (f File) Scope() (Scope, error) {
	s := Scope{Rules: NewRules(f.Rules...)}
	for i, rs := range f.Rulesets {
		if strings.TrimSpace(rs.Name) == "" {
			return Scope{}, errors.NewConfigurationError("rules file ruleset #%d has no name", i+1)
		}
		s.Rulesets = append(s.Rulesets, NewRuleset(rs.Name, NewRules(rs.Rules...)...))
	}
	if err := ValidateScope(s, "rules file"); err != nil {
		return Scope{}, err
	}
	return s, nil
}

// LoadFile reads a rules file. The format is picked from the extension:
// .toml, or .yaml/.yml.
func LoadFile(path string) (Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scope{}, errors.Wrapf(err, "failed to read rules file %s", path)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		f, err = decodeTOML(data)
	case ".yaml", ".yml":
		f, err = decodeYAML(data)
	default:
		return Scope{}, errors.NewConfigurationError("unsupported rules file extension %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return Scope{}, errors.WrapConfiguration(err, "failed to parse rules file "+path)
	}

	return f.Scope()
}

func decodeTOML(data []byte) (File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return File{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, errors.Newf("unknown key %q", undecoded[0].String())
	}
	return f, nil
}

func decodeYAML(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		// An empty document decodes to io.EOF; treat it as an empty file.
		if len(bytes.TrimSpace(data)) == 0 {
			return File{}, nil
		}
		return File{}, err
	}
	return f, nil
}
