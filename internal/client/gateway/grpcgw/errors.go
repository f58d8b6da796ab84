package grpcgw

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

func mapError(method string, err error) error {
	if err == nil {
		return nil
	}
	op := method[strings.LastIndex(method, "/")+1:]

	st, ok := status.FromError(err)
	if !ok {
		return &gateway.Error{Op: op, Code: gateway.CodeUnavailable, Message: err.Error(), Err: err}
	}

	ge := &gateway.Error{Op: op, Message: st.Message(), Err: err}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		ge.Code = gateway.CodeUnauthorized
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition, codes.OutOfRange:
		ge.Code = gateway.CodeInvalid
	case codes.NotFound:
		ge.Code = gateway.CodeNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		ge.Code = gateway.CodeUnavailable
	default:
		ge.Code = gateway.CodeInternal
	}
	return ge
}
