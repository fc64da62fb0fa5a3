package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	p4_config_v1 "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/p4info"
)

// fakeP4RuntimeClient implements p4_v1.P4RuntimeClient with overridable
// function fields, so tests can intercept the exact requests the client
// sends.
type fakeP4RuntimeClient struct {
	writeFn      func(ctx context.Context, in *p4_v1.WriteRequest, opts ...grpc.CallOption) (*p4_v1.WriteResponse, error)
	readFn       func(ctx context.Context, in *p4_v1.ReadRequest, opts ...grpc.CallOption) (p4_v1.P4Runtime_ReadClient, error)
	setFwdPipeFn func(ctx context.Context, in *p4_v1.SetForwardingPipelineConfigRequest, opts ...grpc.CallOption) (*p4_v1.SetForwardingPipelineConfigResponse, error)
	getFwdPipeFn func(ctx context.Context, in *p4_v1.GetForwardingPipelineConfigRequest, opts ...grpc.CallOption) (*p4_v1.GetForwardingPipelineConfigResponse, error)
	streamFn     func(ctx context.Context, opts ...grpc.CallOption) (p4_v1.P4Runtime_StreamChannelClient, error)
	capabilities func(ctx context.Context, in *p4_v1.CapabilitiesRequest, opts ...grpc.CallOption) (*p4_v1.CapabilitiesResponse, error)
}

var _ p4_v1.P4RuntimeClient = &fakeP4RuntimeClient{}

func (c *fakeP4RuntimeClient) Write(ctx context.Context, in *p4_v1.WriteRequest, opts ...grpc.CallOption) (*p4_v1.WriteResponse, error) {
	if c.writeFn == nil {
		return nil, fmt.Errorf("writeFn not set")
	}
	return c.writeFn(ctx, in, opts...)
}

func (c *fakeP4RuntimeClient) Read(ctx context.Context, in *p4_v1.ReadRequest, opts ...grpc.CallOption) (p4_v1.P4Runtime_ReadClient, error) {
	if c.readFn == nil {
		return nil, fmt.Errorf("readFn not set")
	}
	return c.readFn(ctx, in, opts...)
}

func (c *fakeP4RuntimeClient) SetForwardingPipelineConfig(ctx context.Context, in *p4_v1.SetForwardingPipelineConfigRequest, opts ...grpc.CallOption) (*p4_v1.SetForwardingPipelineConfigResponse, error) {
	if c.setFwdPipeFn == nil {
		return nil, fmt.Errorf("setFwdPipeFn not set")
	}
	return c.setFwdPipeFn(ctx, in, opts...)
}

func (c *fakeP4RuntimeClient) GetForwardingPipelineConfig(ctx context.Context, in *p4_v1.GetForwardingPipelineConfigRequest, opts ...grpc.CallOption) (*p4_v1.GetForwardingPipelineConfigResponse, error) {
	if c.getFwdPipeFn == nil {
		return nil, fmt.Errorf("getFwdPipeFn not set")
	}
	return c.getFwdPipeFn(ctx, in, opts...)
}

func (c *fakeP4RuntimeClient) StreamChannel(ctx context.Context, opts ...grpc.CallOption) (p4_v1.P4Runtime_StreamChannelClient, error) {
	if c.streamFn == nil {
		return nil, fmt.Errorf("streamFn not set")
	}
	return c.streamFn(ctx, opts...)
}

func (c *fakeP4RuntimeClient) Capabilities(ctx context.Context, in *p4_v1.CapabilitiesRequest, opts ...grpc.CallOption) (*p4_v1.CapabilitiesResponse, error) {
	if c.capabilities == nil {
		return nil, fmt.Errorf("capabilities not set")
	}
	return c.capabilities(ctx, in, opts...)
}

func newTestClient(p4RtClient p4_v1.P4RuntimeClient, info *p4_config_v1.P4Info) *Client {
	c := NewClient(p4RtClient, 1, p4_v1.Uint128{High: 0, Low: 1})
	if info != nil {
		c.store = p4info.New(info)
	}
	return c
}

func testP4Info() *p4_config_v1.P4Info {
	return &p4_config_v1.P4Info{
		Tables: []*p4_config_v1.Table{
			{
				Preamble: &p4_config_v1.Preamble{Id: 1, Name: "MyIngress.syn_flag_table"},
				MatchFields: []*p4_config_v1.MatchField{
					{Id: 10, Name: "hdr.tcp.flags", Bitwidth: 8, Match: &p4_config_v1.MatchField_MatchType_{MatchType: p4_config_v1.MatchField_TERNARY}},
				},
			},
		},
		Actions: []*p4_config_v1.Action{
			{Preamble: &p4_config_v1.Preamble{Id: 5, Name: "MyIngress.forward_to_controller"}},
			{Preamble: &p4_config_v1.Preamble{Id: 6, Name: "MyIngress._drop"}},
		},
	}
}
