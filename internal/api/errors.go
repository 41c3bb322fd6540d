package api

import (
	"net/http"

	"hotelpos/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func httpStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case domain.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func grpcError(err error) error {
	var code codes.Code
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindConflict:
		code = codes.AlreadyExists
	case domain.KindUnprocessable:
		code = codes.FailedPrecondition
	case domain.KindInvalid:
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	return status.Error(code, domain.Message(err))
}
