package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-engine/internal/cart"
	"github.com/d60-Lab/order-engine/pkg/response"
)

type putCartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"min=0,max=99"`
}

// cartReady 校验购物车可用并返回归属
func (h *Handler) cartReady(c *gin.Context) (string, bool) {
	if h.carts == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorBody{Error: "cart store is not configured", Code: "unavailable"})
		return "", false
	}
	owner := cartOwner(c)
	if owner == "" {
		response.BadRequest(c, "cart session is required")
		return "", false
	}
	return owner, true
}

// GetCart 查看购物车
// @Summary 查看购物车
// @Tags 购物车
// @Produce json
// @Param X-Cart-Session header string false "购物车会话"
// @Success 200 {object} cart.View
// @Router /api/v1/cart [get]
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := h.cartReady(c)
	if !ok {
		return
	}
	view, err := h.carts.View(c.Request.Context(), owner)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, view)
}

// PutCartItem 设置购物车中某规格的数量，0 表示移除
// @Summary 设置购物车数量
// @Tags 购物车
// @Accept json
// @Param X-Cart-Session header string false "购物车会话"
// @Param request body putCartItemRequest true "规格与数量"
// @Success 204
// @Router /api/v1/cart/items [put]
func (h *Handler) PutCartItem(c *gin.Context) {
	owner, ok := h.cartReady(c)
	if !ok {
		return
	}
	var req putCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}
	if err := h.carts.Put(c.Request.Context(), owner, req.VariantID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ClearCart 清空购物车
// @Summary 清空购物车
// @Tags 购物车
// @Param X-Cart-Session header string false "购物车会话"
// @Success 204
// @Router /api/v1/cart [delete]
func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := h.cartReady(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), owner); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
