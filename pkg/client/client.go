// Package client implements the P4Runtime session this controller holds with
// a single device: stream arbitration, forwarding pipeline installation, and
// table-entry writes under one election identity.
package client

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	code "google.golang.org/genproto/googleapis/rpc/code"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/p4info"
)

const (
	P4RuntimePort = 50051
)

type ClientOptions struct {
	CanonicalBytestrings bool
}

var defaultClientOptions = ClientOptions{
	CanonicalBytestrings: true,
}

func DisableCanonicalBytestrings(options *ClientOptions) {
	options.CanonicalBytestrings = false
}

// Client wraps the raw P4Runtime stub with the session identity (device ID +
// election ID) and the P4Info store of the installed pipeline. The store is
// nil until SetFwdPipe succeeds.
type Client struct {
	ClientOptions
	p4_v1.P4RuntimeClient
	deviceID     uint64
	electionID   p4_v1.Uint128
	store        *p4info.Store
	streamSendCh chan *p4_v1.StreamMessageRequest
}

func NewClient(
	p4RuntimeClient p4_v1.P4RuntimeClient,
	deviceID uint64,
	electionID p4_v1.Uint128,
	optionsModifierFns ...func(*ClientOptions),
) *Client {
	options := defaultClientOptions
	for _, fn := range optionsModifierFns {
		fn(&options)
	}
	return &Client{
		ClientOptions:   options,
		P4RuntimeClient: p4RuntimeClient,
		deviceID:        deviceID,
		electionID:      electionID,
		streamSendCh:    make(chan *p4_v1.StreamMessageRequest, 1000),
	}
}

// Store returns the schema of the currently installed pipeline, or nil if no
// pipeline has been pushed yet.
func (c *Client) Store() *p4info.Store {
	return c.store
}

// Run opens the stream channel, sends the arbitration request asserting our
// election ID, and reports primary status changes on arbitrationCh. Other
// stream messages are forwarded to messageCh. Run blocks until stopCh is
// closed.
func (c *Client) Run(
	stopCh <-chan struct{},
	arbitrationCh chan<- bool,
	messageCh chan<- *p4_v1.StreamMessageResponse,
) error {
	// an empty Context which is never cancelled: the stream is closed by
	// calling CloseSend when the caller closes stopCh.
	stream, err := c.StreamChannel(context.Background())
	if err != nil {
		return fmt.Errorf("cannot establish stream: %w", err)
	}

	defer stream.CloseSend()

	go func() {
		for {
			in, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				log.Fatalf("Failed to receive a stream message: %v", err)
			}
			arbitration, ok := in.Update.(*p4_v1.StreamMessageResponse_Arbitration)
			if !ok {
				if messageCh != nil {
					messageCh <- in
				}
				continue
			}
			if arbitrationCh != nil {
				arbitrationCh <- arbitration.Arbitration.Status.Code == int32(code.Code_OK)
			}
		}
	}()

	stream.Send(&p4_v1.StreamMessageRequest{
		Update: &p4_v1.StreamMessageRequest_Arbitration{Arbitration: &p4_v1.MasterArbitrationUpdate{
			DeviceId:   c.deviceID,
			ElectionId: &c.electionID,
		}},
	})

	for {
		select {
		case m := <-c.streamSendCh:
			stream.Send(m)
		case <-stopCh:
			return nil
		}
	}
}

// WriteUpdate sends a single update to the device in one WriteRequest,
// stamped with the session's device and election IDs. RPC failures are
// returned as *WriteError.
func (c *Client) WriteUpdate(ctx context.Context, update *p4_v1.Update) error {
	req := &p4_v1.WriteRequest{
		DeviceId:   c.deviceID,
		ElectionId: &c.electionID,
		Updates:    []*p4_v1.Update{update},
	}
	if _, err := c.Write(ctx, req); err != nil {
		return wrapWriteError(err)
	}
	return nil
}
