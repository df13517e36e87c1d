// Package http_request provides the "http_request" node. It sends a request
// when its exec input fires, publishes the status, the body and a response
// object, and continues on its exec output.
package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/values"
	"github.com/zclconf/go-cty/cty"
)

// TypeID is the registry identifier of the node type.
const TypeID = "http_request"

const (
	inSend = iota
	inURL
	inMethod
)

const (
	outDone = iota
	outStatus
	outBody
	outResponse
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client sends the requests. Nil uses a pooled client with a 30 second
	// timeout.
	Client *http.Client
}

func newClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type requester struct {
	client *http.Client
}

func (r *requester) Update(ctx context.Context, n *flow.Node, inp int) error {
	if inp != inSend && inp != -1 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	url, ok := n.InputValue(inURL).(string)
	if !ok || url == "" {
		return fmt.Errorf("url must be a non-empty string, got %v", n.InputValue(inURL))
	}
	method := http.MethodGet
	if m, ok := n.InputValue(inMethod).(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	logger.Info("Making HTTP request", "method", method, "url", url)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	logger.Info("Received HTTP response", "status", resp.Status)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	response, err := values.Go(responseValue(resp, body))
	if err != nil {
		return err
	}
	if err := n.SetOutput(ctx, outStatus, resp.StatusCode); err != nil {
		return err
	}
	if err := n.SetOutput(ctx, outBody, string(body)); err != nil {
		return err
	}
	if err := n.SetOutput(ctx, outResponse, response); err != nil {
		return err
	}
	return n.Exec(ctx, outDone)
}

// responseValue describes resp as an object with status_code, body and
// headers. Repeated headers are joined with a comma.
func responseValue(resp *http.Response, body []byte) cty.Value {
	headers := make(map[string]cty.Value, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = cty.StringVal(strings.Join(v, ","))
	}
	headerVal := cty.MapValEmpty(cty.String)
	if len(headers) > 0 {
		headerVal = cty.MapVal(headers)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"body":        cty.StringVal(string(body)),
		"headers":     headerVal,
	})
}

// NodeType builds the node type definition.
func (m *Module) NodeType() *flow.NodeType {
	client := m.Client
	if client == nil {
		client = newClient()
	}
	return &flow.NodeType{
		ID:          TypeID,
		Version:     "1",
		Title:       "HTTP Request",
		Description: "Sends an HTTP request and publishes the response.",
		Color:       "#3b8dd6",
		Inputs: []flow.PortConfig{
			{Kind: flow.Exec, Label: "send"},
			{Kind: flow.Data, Label: "url", Hint: "text"},
			{Kind: flow.Data, Label: "method", Default: http.MethodGet, Hint: "text"},
		},
		Outputs: []flow.PortConfig{
			{Kind: flow.Exec, Label: "done"},
			{Kind: flow.Data, Label: "status"},
			{Kind: flow.Data, Label: "body"},
			{Kind: flow.Data, Label: "response"},
		},
		New: func() flow.Behavior { return &requester{client: client} },
	}
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterType(m.NodeType())
}
