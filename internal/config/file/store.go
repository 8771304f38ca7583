// Package file provides a file-backed config.Store, for single-node
// deployments that need configuration to survive a restart without a
// separate metadata service.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"columnstore/internal/config"
	"columnstore/internal/format"
)

// configVersion is the wire version stamped into every saved config's
// header; bump it when Config's shape changes incompatibly.
const configVersion = 1

// Store is a config.Store backed by a single header-prefixed msgpack file.
type Store struct {
	path string
}

// New builds a Store reading from and writing to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads and decodes the configuration at path. It returns a nil
// config, nil error if the file does not exist yet.
func (s *Store) Load(_ context.Context) (*config.Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config/file: reading %s: %w", s.path, err)
	}

	if _, err := format.DecodeAndValidate(data, format.TypeDatasetConfig, configVersion); err != nil {
		return nil, fmt.Errorf("config/file: decoding header of %s: %w", s.path, err)
	}
	var cfg config.Config
	if err := msgpack.Unmarshal(data[format.HeaderSize:], &cfg); err != nil {
		return nil, fmt.Errorf("config/file: decoding body of %s: %w", s.path, err)
	}
	return &cfg, nil
}

// Save validates cfg and writes it to path as a header-prefixed msgpack
// payload, replacing any previous contents.
func (s *Store) Save(_ context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	body, err := msgpack.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config/file: encoding config: %w", err)
	}
	header := format.Header{Type: format.TypeDatasetConfig, Version: configVersion}.Encode()

	data := make([]byte, 0, format.HeaderSize+len(body))
	data = append(data, header[:]...)
	data = append(data, body...)

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("config/file: writing %s: %w", s.path, err)
	}
	return nil
}
