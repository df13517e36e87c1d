// Package codec encodes whole projects to bytes and back. Every codec
// produces and consumes the same config.Project, so a session saved in one
// format can be loaded from another.
package codec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/flowcore/internal/config"
)

// Codec converts a project to and from one on-disk format.
type Codec interface {
	Name() string
	// Extension is the file extension the codec is selected by, with dot.
	Extension() string
	Encode(p *config.Project) ([]byte, error)
	Decode(ctx context.Context, data []byte) (*config.Project, error)
}

// All returns every built-in codec.
func All() []Codec {
	return []Codec{HCL{}, JSON{}, MsgPack{}, Compressed{Inner: MsgPack{}}}
}

// ForPath selects a codec by file extension.
func ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range All() {
		if c.Extension() == ext {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no codec for file extension %q", ext)
}

// ReadFile decodes the project stored at path using the codec its
// extension selects.
func ReadFile(ctx context.Context, path string) (*config.Project, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := c.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s decode of %s failed: %w", c.Name(), path, err)
	}
	return p, nil
}

// WriteFile encodes p with the codec selected by path's extension.
func WriteFile(path string, p *config.Project) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	data, err := c.Encode(p)
	if err != nil {
		return fmt.Errorf("%s encode failed: %w", c.Name(), err)
	}
	return os.WriteFile(path, data, 0o644)
}
