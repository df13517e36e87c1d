package registry_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterType(t *testing.T) {
	r := registry.New()
	a := &flow.NodeType{ID: "a"}

	require.NoError(t, r.RegisterType(a))
	require.NoError(t, r.RegisterType(a), "re-registering the same definition is a no-op")

	err := r.RegisterType(&flow.NodeType{ID: "a"})
	require.ErrorIs(t, err, registry.ErrDuplicateNodeType)

	got, ok := r.NodeType("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.Error(t, r.RegisterType(&flow.NodeType{}))
	assert.Error(t, r.RegisterType(nil))
}

func TestMustRegisterType_Panics(t *testing.T) {
	r := registry.New()
	r.MustRegisterType(&flow.NodeType{ID: "a"})
	assert.Panics(t, func() { r.MustRegisterType(&flow.NodeType{ID: "a"}) })
}

func TestTypesKeepRegistrationOrder(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterTypes(&flow.NodeType{ID: "z"}, &flow.NodeType{ID: "a"}, &flow.NodeType{ID: "m"}))

	var ids []string
	for _, nt := range r.Types() {
		ids = append(ids, nt.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"))
	_, ok := r.NodeType("a")
	assert.False(t, ok)
	assert.Len(t, r.Types(), 2)
}

type twoTypes struct{}

func (twoTypes) Register(r *registry.Registry) error {
	return r.RegisterTypes(&flow.NodeType{ID: "one"}, &flow.NodeType{ID: "two"})
}

func TestRegisterModules(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.RegisterModules(context.Background(), twoTypes{}))
	assert.Len(t, r.Types(), 2)

	err := registry.New().RegisterModules(context.Background(), twoTypes{}, twoTypes{})
	assert.NoError(t, err, "a module registering the same pointers twice is idempotent")
}

func TestValidateRegistry(t *testing.T) {
	conv := hcl.NewConverter()

	t.Run("valid", func(t *testing.T) {
		r := registry.New()
		r.MustRegisterType(&flow.NodeType{
			ID:      "ok",
			Inputs:  []flow.PortConfig{{Kind: flow.Exec}, {Kind: flow.Data, Default: 3}},
			Outputs: []flow.PortConfig{{Kind: flow.Data}},
		})
		assert.NoError(t, r.ValidateRegistry(context.Background(), conv))
	})

	t.Run("invalid", func(t *testing.T) {
		r := registry.New()
		r.MustRegisterType(&flow.NodeType{
			ID: "bad",
			Inputs: []flow.PortConfig{
				{Kind: flow.Exec, Default: 1},
				{Kind: flow.Data, Default: make(chan int)},
				{Kind: flow.Kind(7)},
			},
		})
		err := r.ValidateRegistry(context.Background(), conv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec ports cannot have a default")
		assert.Contains(t, err.Error(), "default cannot be saved")
		assert.Contains(t, err.Error(), "unknown port kind kind(7)")
	})
}
