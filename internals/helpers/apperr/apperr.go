// file: internals/helpers/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the finite set of failure classes a handler can answer with.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindStateConflict      Kind = "STATE_CONFLICT"
	KindConflict           Kind = "CONFLICT"
	KindNotFound           Kind = "NOT_FOUND"
	KindGatewayUnavailable Kind = "GATEWAY_UNAVAILABLE"
	KindGateway            Kind = "GATEWAY_ERROR"
	KindSignatureInvalid   Kind = "SIGNATURE_INVALID"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Reason codes (lebih spesifik dari Kind, dipakai client & test)
const (
	CodeMissingField       = "MISSING_FIELD"
	CodeInvalidPaymentType = "INVALID_PAYMENT_TYPE"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeExceedsBalance     = "EXCEEDS_BALANCE"
	CodeBelowMinimum       = "BELOW_MINIMUM"
	CodeAccountOnHold      = "ACCOUNT_ON_HOLD"
	CodeAlreadySettled     = "ALREADY_SETTLED"
	CodeAlreadyPaid        = "ALREADY_PAID"
	CodePlansExist         = "PLANS_ALREADY_EXIST"
	CodeSchedulesExist     = "SCHEDULES_ALREADY_EXIST"
	CodeLedgerInconsistent = "LEDGER_INCONSISTENT"
	CodeLedgerConflict     = "LEDGER_CONFLICT"
	CodeInvalidPlan        = "INVALID_PLAN"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Status overrides the default status of Kind (gateway passthrough).
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func StateConflict(code, message string) *Error { return New(KindStateConflict, code, message) }

func NotFound(message string) *Error { return New(KindNotFound, "", message) }

func Internal(message string, err error) *Error { return Wrap(KindInternal, "", message, err) }

// KindOf returns KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status the handler answers with.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return fiber.StatusInternalServerError
	}
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindStateConflict, KindSignatureInvalid:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindGatewayUnavailable:
		return fiber.StatusServiceUnavailable
	case KindGateway:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage never leaks wrapped causes of internal failures.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Message
}
