package client

import (
	"context"
	"fmt"
	"os"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/p4info"
)

// SetFwdPipeFromBytes parses the P4Info text document, then pushes it with
// the compiled device config as the device's active forwarding pipeline,
// using VERIFY_AND_COMMIT semantics: the device validates the configuration
// and either makes it active atomically or rejects it. On success the parsed
// schema is retained on the client for name resolution; on failure the error
// is a *p4info.ParseError or a *PipelineConfigError.
func (c *Client) SetFwdPipeFromBytes(ctx context.Context, binBytes, p4infoBytes []byte, cookie uint64) (*p4info.Store, error) {
	store, err := p4info.Load(p4infoBytes)
	if err != nil {
		return nil, err
	}
	config := &p4_v1.ForwardingPipelineConfig{
		P4Info:         store.P4Info(),
		P4DeviceConfig: binBytes,
		Cookie: &p4_v1.ForwardingPipelineConfig_Cookie{
			Cookie: cookie,
		},
	}

	req := &p4_v1.SetForwardingPipelineConfigRequest{
		DeviceId:   c.deviceID,
		ElectionId: &c.electionID,
		Action:     p4_v1.SetForwardingPipelineConfigRequest_VERIFY_AND_COMMIT,
		Config:     config,
	}
	if _, err := c.SetForwardingPipelineConfig(ctx, req); err != nil {
		return nil, &PipelineConfigError{Err: err}
	}

	c.store = store
	return store, nil
}

// SetFwdPipe reads the compiled P4 binary and P4Info text from disk and
// installs them as the device's forwarding pipeline.
func (c *Client) SetFwdPipe(ctx context.Context, binPath string, p4infoPath string, cookie uint64) (*p4info.Store, error) {
	binBytes, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("error when reading binary device config: %w", err)
	}
	p4infoBytes, err := os.ReadFile(p4infoPath)
	if err != nil {
		return nil, fmt.Errorf("error when reading P4Info text file: %w", err)
	}
	return c.SetFwdPipeFromBytes(ctx, binBytes, p4infoBytes, cookie)
}
