package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/d60-Lab/order-engine/pkg/response"
)

type validateCouponRequest struct {
	Code      string           `json:"code" binding:"required,max=20"`
	CartTotal *decimal.Decimal `json:"cart_total" binding:"required"`
}

// ValidateCoupon 结账前校验优惠券（不核销）
// @Summary 校验优惠券
// @Tags 优惠券
// @Accept json
// @Produce json
// @Param request body validateCouponRequest true "券码与购物车金额"
// @Success 200 {object} service.CouponQuote
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/v1/coupons/validate [post]
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}
	quote, err := h.orders.ValidateCoupon(c.Request.Context(), req.Code, *req.CartTotal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, quote)
}
