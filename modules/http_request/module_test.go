package http_request_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/modules/http_request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Request-Path", r.URL.Path)
		fmt.Fprintf(w, "%s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	ctx := context.Background()
	m := &http_request.Module{Client: srv.Client()}
	f := flow.New("main")
	n, err := f.AddNode(ctx, m.NodeType())
	require.NoError(t, err)

	require.NoError(t, f.SetValue(ctx, n.Input(1), srv.URL+"/items"))
	_, sent := n.Output(1).Value()
	assert.False(t, sent, "a data input alone does not send")

	require.NoError(t, f.Trigger(ctx, n, 0))
	status, _ := n.Output(1).Value()
	body, _ := n.Output(2).Value()
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "GET /items", body)

	response, _ := n.Output(3).Value()
	obj, ok := response.(map[string]any)
	require.True(t, ok, "response is an object, got %T", response)
	assert.Equal(t, http.StatusOK, obj["status_code"])
	assert.Equal(t, "GET /items", obj["body"])
	headers, ok := obj["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/items", headers["X-Request-Path"])

	require.NoError(t, f.SetValue(ctx, n.Input(2), "post"))
	require.NoError(t, f.Trigger(ctx, n, 0))
	body, _ = n.Output(2).Value()
	assert.Equal(t, "POST /items", body)

	require.NoError(t, f.SetValue(ctx, n.Input(1), srv.URL+"/missing"))
	require.NoError(t, f.Trigger(ctx, n, 0))
	status, _ = n.Output(1).Value()
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTPRequest_MissingURL(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n, err := f.AddNode(ctx, (&http_request.Module{}).NodeType())
	require.NoError(t, err)

	err = f.Trigger(ctx, n, 0)
	var nbe *flow.NodeBehaviorError
	require.ErrorAs(t, err, &nbe)
	assert.ErrorContains(t, nbe, "url must be a non-empty string")
}
