package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrPolicyExists is returned by WritePolicy when the target exists and
// overwriting was not requested.
var ErrPolicyExists = errors.New("policy file already exists")

// EncodePolicy writes the policy in its TOML file layout.
func EncodePolicy(w io.Writer, p *Policy) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	enc.SetArraysMultiline(true)
	return enc.Encode(p.toFile())
}

// WritePolicy validates p and writes it to path.
func WritePolicy(path string, p *Policy, force bool) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrPolicyExists, path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create policy directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create policy file: %w", err)
	}
	if err := EncodePolicy(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	return f.Close()
}
