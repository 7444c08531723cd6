package config

import (
	"fmt"
	"tilestore/pkg/primitives"

	"github.com/magiconair/properties"
)

// Storage knob defaults.
const (
	DefaultTuplesPerTileGroup primitives.SlotID = 1000
	DefaultDirectoryCacheSize int64             = 1 << 16
)

// StorageConfig carries the storage-layer knobs: how many tuple slots each
// tile group holds and how many tile groups the directory's lookup cache
// keeps hot.
type StorageConfig struct {
	TuplesPerTileGroup primitives.SlotID
	DirectoryCacheSize int64
}

// DefaultStorageConfig returns the coded defaults.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		TuplesPerTileGroup: DefaultTuplesPerTileGroup,
		DirectoryCacheSize: DefaultDirectoryCacheSize,
	}
}

// LoadStorageConfig reads knobs from a .properties file, falling back to the
// defaults for any key the file does not set.
//
// Recognized keys:
//
//	storage.tuples_per_tilegroup
//	storage.directory_cache_size
func LoadStorageConfig(path string) (StorageConfig, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return StorageConfig{}, fmt.Errorf("failed to load storage config %q: %w", path, err)
	}

	cfg := StorageConfig{
		TuplesPerTileGroup: primitives.SlotID(p.GetUint("storage.tuples_per_tilegroup", uint(DefaultTuplesPerTileGroup))),
		DirectoryCacheSize: p.GetInt64("storage.directory_cache_size", DefaultDirectoryCacheSize),
	}

	if cfg.TuplesPerTileGroup == 0 {
		return StorageConfig{}, fmt.Errorf("storage.tuples_per_tilegroup must be positive")
	}
	if cfg.DirectoryCacheSize <= 0 {
		return StorageConfig{}, fmt.Errorf("storage.directory_cache_size must be positive")
	}
	return cfg, nil
}
