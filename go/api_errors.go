package commerceserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	checkoutapp "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	inventorymapper "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/http/mapper"
	inventoryapp "github.com/Apurer/go-gin-commerce/internal/domains/inventory/application"
	inventorydomain "github.com/Apurer/go-gin-commerce/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	notificationsapp "github.com/Apurer/go-gin-commerce/internal/domains/notifications/application"
	ordermapper "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/Apurer/go-gin-commerce/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-gin-commerce/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsapp "github.com/Apurer/go-gin-commerce/internal/domains/payments/application"
	usermapper "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/http/mapper"
	usersapp "github.com/Apurer/go-gin-commerce/internal/domains/users/application"
	usersports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-commerce/internal/shared/errors"
)

// responder tries the checkout classes first: they wrap the ledger sentinels
// and carry the more specific code.
var responder = apierrors.NewResponder("",
	checkoutProblem,
	upstreamProblem,
	ordersProblem,
	inventoryProblem,
	usersProblem,
	inputProblem,
)

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func badRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()).WithCode(apierrors.CodeValidation))
}

func checkoutProblem(err error) (apierrors.ProblemDetail, bool) {
	var problem apierrors.ProblemDetail
	switch {
	case errors.Is(err, checkoutapp.ErrValidation):
		problem = apierrors.ErrValidation
	case errors.Is(err, checkoutapp.ErrNotFound):
		problem = apierrors.ErrNotFound
	case errors.Is(err, checkoutapp.ErrConflict):
		problem = apierrors.ErrConflict
	case errors.Is(err, checkoutapp.ErrDataIntegrity):
		problem = apierrors.ErrDataIntegrity
	case errors.Is(err, checkoutapp.ErrUpstream):
		if p, ok := upstreamProblem(err); ok {
			return p, true
		}
		problem = apierrors.ErrUpstream.WithExtension("retryable", true)
	default:
		return apierrors.ProblemDetail{}, false
	}
	problem = problem.WithDetail(err.Error()).WithCode(checkoutapp.Code(err))
	var mismatch *checkoutapp.AmountMismatchError
	if errors.As(err, &mismatch) {
		problem = problem.
			WithExtension("esperado", mismatch.Expected).
			WithExtension("informado", mismatch.Provided)
	}
	return problem, true
}

// upstreamProblem relays a collaborator failure: its status when it answered,
// 504 on timeout, 502 otherwise.
func upstreamProblem(err error) (apierrors.ProblemDetail, bool) {
	var ue *httpclient.UpstreamError
	if !errors.As(err, &ue) {
		return apierrors.ProblemDetail{}, false
	}
	problem := apierrors.ErrUpstream
	if ue.Timeout {
		problem = apierrors.ErrTimeout
	}
	problem.Status = ue.HTTPStatus()
	code := ue.Code
	if code == "" {
		code = checkoutapp.Code(checkoutapp.ErrUpstream)
	}
	return problem.
		WithDetail(err.Error()).
		WithCode(code).
		WithExtension("service", ue.Service).
		WithExtension("retryable", ue.Retryable()), true
}

func ordersProblem(err error) (apierrors.ProblemDetail, bool) {
	code := ordermapper.ErrorCode(err)
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithCode(code), true
	case errors.Is(err, ordersports.ErrAlreadyExists),
		errors.Is(err, ordersports.ErrVersionConflict),
		errors.Is(err, ordersdomain.ErrAlreadyPaid),
		errors.Is(err, ordersdomain.ErrOrderCancelled),
		errors.Is(err, ordersdomain.ErrInvalidTransition):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithCode(code), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}

func inventoryProblem(err error) (apierrors.ProblemDetail, bool) {
	code := inventorymapper.ErrorCode(err)
	switch {
	case errors.Is(err, inventoryports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithCode(code), true
	case errors.Is(err, inventorydomain.ErrOutOfStock):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithCode(code), true
	case errors.Is(err, inventorydomain.ErrInvalidAdjustment):
		return apierrors.ErrValidation.WithDetail(err.Error()).WithCode(code), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}

func usersProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, usersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithCode(usermapper.CodeNotFound), true
	case errors.Is(err, usersports.ErrEmailTaken):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithCode(usermapper.CodeEmailTaken), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}

func inputProblem(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, usersapp.ErrInvalidInput) ||
		errors.Is(err, inventoryapp.ErrInvalidInput) ||
		errors.Is(err, ordersapp.ErrInvalidInput) ||
		errors.Is(err, paymentsapp.ErrInvalidInput) ||
		errors.Is(err, notificationsapp.ErrInvalidInput) {
		return apierrors.ErrValidation.WithDetail(err.Error()).WithCode(checkoutapp.Code(checkoutapp.ErrValidation)), true
	}
	return apierrors.ProblemDetail{}, false
}
