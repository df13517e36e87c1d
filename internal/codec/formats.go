package codec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/vmihailenco/msgpack/v5"
)

// HCL is the human-editable format also read by the project loader.
type HCL struct{}

func (HCL) Name() string      { return "hcl" }
func (HCL) Extension() string { return hcl.Extension }

func (HCL) Encode(p *config.Project) ([]byte, error) {
	return hcl.Encode(p)
}

func (HCL) Decode(ctx context.Context, data []byte) (*config.Project, error) {
	return hcl.Decode(ctx, data, "<project>")
}

// JSON writes values in cty's simple JSON form.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (JSON) Encode(p *config.Project) ([]byte, error) {
	return json.MarshalIndent(toDoc(p), "", "  ")
}

func (JSON) Decode(_ context.Context, data []byte) (*config.Project, error) {
	var d projectDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return fromDoc(&d)
}

// MsgPack is the compact binary format. Values keep their exact cty type.
type MsgPack struct{}

func (MsgPack) Name() string      { return "msgpack" }
func (MsgPack) Extension() string { return ".msgpack" }

func (MsgPack) Encode(p *config.Project) ([]byte, error) {
	return msgpack.Marshal(toDoc(p))
}

func (MsgPack) Decode(_ context.Context, data []byte) (*config.Project, error) {
	var d projectDoc
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return fromDoc(&d)
}

// Compressed wraps another codec in zstd. With MsgPack inside it is the
// default snapshot format, selected by the .fcp extension.
type Compressed struct {
	Inner Codec
}

func (c Compressed) Name() string { return c.Inner.Name() + "+zstd" }

func (c Compressed) Extension() string {
	if _, ok := c.Inner.(MsgPack); ok {
		return ".fcp"
	}
	return c.Inner.Extension() + ".zst"
}

func (c Compressed) Encode(p *config.Project) ([]byte, error) {
	data, err := c.Inner.Encode(p)
	if err != nil {
		return nil, err
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

func (c Compressed) Decode(ctx context.Context, data []byte) (*config.Project, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return c.Inner.Decode(ctx, raw)
}
