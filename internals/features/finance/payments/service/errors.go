package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/helpers/apperr"
)

// gatewayFailure memetakan error provider ke kind yang bisa dijawab handler.
func gatewayFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gateway.ErrNotConfigured) {
		return apperr.New(apperr.KindGatewayUnavailable, "", "payment gateway belum dikonfigurasi")
	}
	var ge *gateway.GatewayError
	if errors.As(err, &ge) {
		status := fiber.StatusBadRequest
		if ge.HTTPStatus >= 500 {
			status = ge.HTTPStatus
		}
		return &apperr.Error{
			Kind:    apperr.KindGateway,
			Code:    ge.Code,
			Message: "payment gateway menolak permintaan (" + ge.Code + ")",
			Status:  status,
			Err:     err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindGateway, "gateway_timeout", "payment gateway timeout", err)
	}
	return apperr.Wrap(apperr.KindGateway, "gateway_unreachable", "payment gateway tidak dapat dihubungi", err)
}
