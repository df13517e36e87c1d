package print_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/modules/print"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	m := &print.Module{Out: &out}

	f := flow.New("main")
	n, err := f.AddNode(ctx, m.NodeType())
	require.NoError(t, err)

	require.NoError(t, f.Update(ctx, n))
	require.NoError(t, f.SetValue(ctx, n.Input(0), "hello"))
	require.NoError(t, f.SetValue(ctx, n.Input(0), []any{1, 2}))

	assert.Equal(t, "(null)\nhello\n[1 2]\n", out.String())
	assert.Equal(t, []string{"[n0 print] (null)", "[n0 print] hello", "[n0 print] [1 2]"}, f.Log().Lines())
}
