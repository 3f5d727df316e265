package public

import (
	"errors"

	handlershared "github.com/fastkart-next/internal/http/handlers/shared"
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/pricing"
	"github.com/fastkart-next/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product unavailable"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon not applicable"},
	{target: pricing.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid cart content"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyCart, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product unavailable"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrInvalidPaymentMethod, code: response.CodeBadRequest, msg: "unsupported payment method"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon not applicable"},
	{target: service.ErrConcurrencyConflict, code: response.CodeInternal, msg: "please retry"},
	{target: service.ErrCompensationFailed, code: response.CodeInternal, msg: "checkout failed, contact support"},
	{target: pricing.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid cart content"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrInvalidStatusTransition, code: response.CodeBadRequest, msg: "order cannot be cancelled in its current status"},
	{target: service.ErrConcurrencyConflict, code: response.CodeBadRequest, msg: "order changed concurrently, please retry"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order operation failed")
}
