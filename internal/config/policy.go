package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPolicyPath is the fixed location of the policy file, relative to
// the working directory.
const DefaultPolicyPath = "pagesearch.toml"

// ConfigError reports a policy file that could not be read, decoded or validated.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("policy %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CopyRule maps a sibling file extension to the extension it is exported under.
type CopyRule struct {
	Source string
	Target string
}

// String renders the rule in policy file notation.
func (r CopyRule) String() string {
	return r.Source + " > " + r.Target
}

// ParseCopyRule parses "source > target". A single extension maps to itself.
func ParseCopyRule(s string) (CopyRule, error) {
	source, target, found := strings.Cut(s, ">")
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if !found {
		target = source
	}
	if err := validateExtension(source); err != nil {
		return CopyRule{}, fmt.Errorf("copy rule %q: source %w", s, err)
	}
	if err := validateExtension(target); err != nil {
		return CopyRule{}, fmt.Errorf("copy rule %q: target %w", s, err)
	}
	return CopyRule{Source: source, Target: target}, nil
}

// Policy is the declarative export and exclusion policy. It is built once
// per run and not modified afterwards.
type Policy struct {
	// PrimaryExtension identifies the layout documents to scan, e.g. ".xml".
	PrimaryExtension string
	// CopyRules are applied in order for every exported document.
	CopyRules []CopyRule
	// RewriteExtension, when set, is the extension written into the
	// embedded file reference of copied primary documents.
	RewriteExtension string
	ExcludedFiles    []string
	ExcludedFolders  []string
}

// DefaultPolicy returns the policy written by `policy init`.
func DefaultPolicy() *Policy {
	return &Policy{
		PrimaryExtension: ".xml",
		CopyRules: []CopyRule{
			{Source: ".xml", Target: ".xml"},
			{Source: ".jpg", Target: ".jpg"},
		},
		RewriteExtension: ".jpg",
	}
}

// Validate checks the policy for missing or malformed values.
func (p *Policy) Validate() error {
	if err := validateExtension(p.PrimaryExtension); err != nil {
		return fmt.Errorf("document.extension %w", err)
	}
	for _, r := range p.CopyRules {
		if err := validateExtension(r.Source); err != nil {
			return fmt.Errorf("copy rule source %w", err)
		}
		if err := validateExtension(r.Target); err != nil {
			return fmt.Errorf("copy rule target %w", err)
		}
	}
	if p.RewriteExtension != "" {
		if err := validateExtension(p.RewriteExtension); err != nil {
			return fmt.Errorf("copy.rewrite_extension %w", err)
		}
	}
	return nil
}

func validateExtension(ext string) error {
	if ext == "" {
		return errors.New("cannot be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("must start with '.', got %q", ext)
	}
	if strings.ContainsAny(ext, `/\`) {
		return fmt.Errorf("must not contain path separators, got %q", ext)
	}
	return nil
}

// IsPrimaryDocument reports whether name carries the primary extension.
func (p *Policy) IsPrimaryDocument(name string) bool {
	return len(name) > len(p.PrimaryExtension) && strings.HasSuffix(name, p.PrimaryExtension)
}

// IsExcludedFile reports whether the file name is listed in the exclusions.
func (p *Policy) IsExcludedFile(name string) bool {
	return slices.Contains(p.ExcludedFiles, name)
}

// IsExcludedPath reports whether relPath contains any excluded folder
// fragment. The test is plain substring containment on the slash-separated
// path, so a fragment may match across separators or inside file names.
func (p *Policy) IsExcludedPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, fragment := range p.ExcludedFolders {
		if strings.Contains(relPath, filepath.ToSlash(fragment)) {
			return true
		}
	}
	return false
}

// BaseName strips the primary extension from a document file name.
func (p *Policy) BaseName(name string) string {
	return strings.TrimSuffix(name, p.PrimaryExtension)
}

// policyFile is the on-disk layout of the policy.
type policyFile struct {
	Document documentSection `mapstructure:"document" toml:"document"`
	Copy     copySection     `mapstructure:"copy" toml:"copy"`
	Exclude  excludeSection  `mapstructure:"exclude" toml:"exclude"`
}

type documentSection struct {
	Extension string `mapstructure:"extension" toml:"extension"`
}

type copySection struct {
	Rules            []string `mapstructure:"rules" toml:"rules"`
	RewriteExtension string   `mapstructure:"rewrite_extension" toml:"rewrite_extension"`
}

type excludeSection struct {
	Files   []string `mapstructure:"files" toml:"files"`
	Folders []string `mapstructure:"folders" toml:"folders"`
}

// LoadPolicy reads and validates the TOML policy file at path.
// Every failure is returned as a *ConfigError.
func LoadPolicy(path string) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var pf policyFile
	if err := v.Unmarshal(&pf); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	if !v.IsSet("document.extension") {
		return nil, &ConfigError{Path: path, Err: errors.New("missing required key document.extension")}
	}

	policy, err := pf.toPolicy()
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return policy, nil
}

func (pf *policyFile) toPolicy() (*Policy, error) {
	p := &Policy{
		PrimaryExtension: strings.TrimSpace(pf.Document.Extension),
		RewriteExtension: strings.TrimSpace(pf.Copy.RewriteExtension),
		ExcludedFiles:    cleanList(pf.Exclude.Files),
		ExcludedFolders:  cleanList(pf.Exclude.Folders),
	}
	for _, raw := range cleanList(pf.Copy.Rules) {
		rule, err := ParseCopyRule(raw)
		if err != nil {
			return nil, err
		}
		p.CopyRules = append(p.CopyRules, rule)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) toFile() policyFile {
	rules := make([]string, len(p.CopyRules))
	for i, r := range p.CopyRules {
		rules[i] = r.String()
	}
	return policyFile{
		Document: documentSection{Extension: p.PrimaryExtension},
		Copy:     copySection{Rules: rules, RewriteExtension: p.RewriteExtension},
		Exclude: excludeSection{
			Files:   nonNil(p.ExcludedFiles),
			Folders: nonNil(p.ExcludedFolders),
		},
	}
}

// cleanList trims entries and drops blank ones.
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
