// Package grpcstatus translates domain payment errors into gRPC statuses at
// the transport boundary. The routing layer calls FromError on every service
// error before returning it to a caller.
package grpcstatus

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kevin07696/payin-service/internal/domain"
)

// retryableSuffix is attached to the status message so callers that cannot
// inspect details still see the retry hint.
const retryableSuffix = " (retryable)"

// FromError maps a domain error onto a gRPC status error. Callers branch on
// the code, never on the message text.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	pe := domain.AsPaymentError(err)
	if pe == nil {
		return status.Error(codes.Internal, err.Error())
	}

	msg := pe.Message
	if pe.Retryable {
		msg += retryableSuffix
	}
	return status.Error(codeFor(pe), msg)
}

// Code returns the gRPC code an error would map to without building the
// status. Used by interceptors for metric labels.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if pe := domain.AsPaymentError(err); pe != nil {
		return codeFor(pe)
	}
	return codes.Internal
}

func codeFor(pe *domain.PaymentError) codes.Code {
	switch pe.Code {
	case domain.ErrorCodeNotFound:
		return codes.NotFound
	case domain.ErrorCodeInvalidData:
		return codes.InvalidArgument
	case domain.ErrorCodeAlreadyExists:
		return codes.AlreadyExists
	case domain.ErrorCodeDBError, domain.ErrorCodeGatewayError:
		if pe.Retryable {
			return codes.Unavailable
		}
		return codes.Internal
	}
	return codes.Internal
}
