// Package kgctl is the client-side stub for the KG orchestrator that spins
// up per-subject Neo4j instances, specified by spec.md only as the four
// operations `open/create/list_running/stop`. The orchestrator's server
// implementation is out of scope; this package dials it via a plain gRPC
// connection using a JSON wire codec (no protoc-generated stubs), mirroring
// the teacher's cmd/api/main.go `grpc.NewClient(url, ...)` dial pattern.
package kgctl

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Instance is the orchestrator's description of a running KG instance.
type Instance struct {
	Name       string `json:"name"`
	HTTPURL    string `json:"http_url"`
	BoltURL    string `json:"bolt_url"`
	Running    bool   `json:"running"`
}

// OrchestratorClient is the narrow interface the KG service depends on,
// matching spec.md's out-of-scope-collaborator contract verbatim.
type OrchestratorClient interface {
	Open(ctx context.Context, name string) (Instance, error)
	Create(ctx context.Context, name string) (Instance, error)
	ListRunning(ctx context.Context) ([]Instance, error)
	Stop(ctx context.Context, name string) error
}

// Client dials the orchestrator over a single shared gRPC connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the orchestrator at addr using insecure transport
// credentials, matching the teacher's ml-worker dial (the real deployment
// is expected to run this on a private network segment alongside the KG
// instances it manages).
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("kgctl: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

type openRequest struct {
	Name string `json:"name"`
}

func (c *Client) Open(ctx context.Context, name string) (Instance, error) {
	var out Instance
	err := c.invoke(ctx, "/wastepro.kgctl.Orchestrator/Open", openRequest{Name: name}, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, name string) (Instance, error) {
	var out Instance
	err := c.invoke(ctx, "/wastepro.kgctl.Orchestrator/Create", openRequest{Name: name}, &out)
	return out, err
}

type listRunningResponse struct {
	Instances []Instance `json:"instances"`
}

func (c *Client) ListRunning(ctx context.Context) ([]Instance, error) {
	var out listRunningResponse
	err := c.invoke(ctx, "/wastepro.kgctl.Orchestrator/ListRunning", struct{}{}, &out)
	return out.Instances, err
}

func (c *Client) Stop(ctx context.Context, name string) error {
	var out struct{}
	return c.invoke(ctx, "/wastepro.kgctl.Orchestrator/Stop", openRequest{Name: name}, &out)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName))
}
