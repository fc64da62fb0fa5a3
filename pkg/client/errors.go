package client

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"
)

// PipelineConfigError indicates the device rejected or failed to accept a
// forwarding pipeline configuration. Entry writes must not be attempted after
// it.
type PipelineConfigError struct {
	Err error
}

func (e *PipelineConfigError) Error() string {
	return fmt.Sprintf("cannot set forwarding pipeline config: %v", e.Err)
}

func (e *PipelineConfigError) Unwrap() error {
	return e.Err
}

// WriteError is a failed Write RPC, decoded into the gRPC status
// classification, the human-readable detail, and the per-update p4.Error
// diagnostics the device attached to the status.
type WriteError struct {
	Code    codes.Code
	Message string
	Details []*p4_v1.Error
}

func (e *WriteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "write to device failed: rpc error (code = %v, message = %q)", e.Code, e.Message)
	for _, detail := range e.Details {
		if detail.CanonicalCode == int32(codes.OK) {
			continue
		}
		fmt.Fprintf(&b, "; update error (code = %v, message = %q)",
			codes.Code(detail.CanonicalCode), detail.Message)
	}
	return b.String()
}

// wrapWriteError converts a Write RPC error into a *WriteError. Per the
// P4Runtime spec, a batched write failure carries one p4.Error detail per
// update, in update order.
func wrapWriteError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &WriteError{Code: codes.Unknown, Message: err.Error()}
	}
	writeErr := &WriteError{
		Code:    st.Code(),
		Message: st.Message(),
	}
	for _, detailAny := range st.Proto().GetDetails() {
		detail := &p4_v1.Error{}
		if err := detailAny.UnmarshalTo(detail); err != nil {
			// not a p4.Error detail, keep the status-level classification
			continue
		}
		writeErr.Details = append(writeErr.Details, detail)
	}
	return writeErr
}
