package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/service"
	"github.com/d60-Lab/order-engine/pkg/apperr"
	"github.com/d60-Lab/order-engine/pkg/response"
)

type orderItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	CustomerName    string             `json:"customer_name" binding:"required,max=100"`
	CustomerPhone   string             `json:"customer_phone" binding:"omitempty,phone"`
	CustomerEmail   string             `json:"customer_email" binding:"omitempty,email"`
	BirthDay        *int               `json:"birth_day" binding:"omitempty,min=1,max=31"`
	BirthMonth      *int               `json:"birth_month" binding:"omitempty,min=1,max=12"`
	BirthYear       *int               `json:"birth_year" binding:"omitempty,min=1900,max=2100"`
	City            string             `json:"city" binding:"required,max=100"`
	Area            string             `json:"area" binding:"max=100"`
	Address         string             `json:"address" binding:"required"`
	LocationDetails string             `json:"location_details"`
	Notes           string             `json:"notes"`
	CouponCode      string             `json:"coupon_code" binding:"max=20"`
	Items           []orderItemRequest `json:"items" binding:"omitempty,dive"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// CreateOrder 下单
// @Summary 创建订单
// @Description items 为空时使用当前购物车内容
// @Tags 订单
// @Accept json
// @Produce json
// @Param X-Cart-Session header string false "购物车会话"
// @Param request body createOrderRequest true "下单信息"
// @Success 201 {object} model.Order
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}

	owner := cartOwner(c)
	items := make([]service.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.LineItem{VariantID: it.VariantID, Quantity: it.Quantity})
	}
	if len(items) == 0 && owner != "" && h.carts != nil {
		lines, err := h.carts.Items(c.Request.Context(), owner)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		for _, l := range lines {
			items = append(items, service.LineItem{VariantID: l.VariantID, Quantity: l.Quantity})
		}
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		Customer: service.CustomerInput{
			Name:            req.CustomerName,
			Phone:           req.CustomerPhone,
			Email:           req.CustomerEmail,
			BirthDay:        req.BirthDay,
			BirthMonth:      req.BirthMonth,
			BirthYear:       req.BirthYear,
			City:            req.City,
			Area:            req.Area,
			Address:         req.Address,
			LocationDetails: req.LocationDetails,
		},
		Notes:      req.Notes,
		CouponCode: req.CouponCode,
		Items:      items,
		CartOwner:  owner,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// TrackOrder 公开订单查询
// @Summary 查询订单
// @Description 提供 phone 时必须与下单电话一致，否则与订单不存在同样返回 404
// @Tags 订单
// @Produce json
// @Param order_number query string true "订单号"
// @Param phone query string false "下单电话"
// @Success 200 {object} model.Order
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/orders/track [get]
func (h *Handler) TrackOrder(c *gin.Context) {
	order, err := h.orders.TrackOrder(c.Request.Context(), c.Query("order_number"), c.Query("phone"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 管理端查询订单
// @Summary 订单详情
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/admin/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 管理端变更状态
// @Summary 变更订单状态
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body updateStatusRequest true "目标状态"
// @Success 200 {object} model.Order
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/v1/admin/orders/{id}/status [patch]
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, model.OrderStatus(req.Status), req.Notes, c.GetString(CtxActor))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.Validation("invalid order id"))
		return 0, false
	}
	return uint(id), true
}
