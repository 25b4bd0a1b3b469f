package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, logger: logger}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// checkout
//
//	@Summary		Оформление заказа из корзины
//	@Description	Создаёт заказ из текущей корзины, атомарно списывая остатки
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	OrderResponse
//	@Failure		400	{object}	ErrorResponse	"Пустая корзина"
//	@Failure		409	{object}	ErrorResponse	"Недостаточно остатков"
//	@Router			/orders [post]
func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := h.orderUsecase.Checkout(r.Context(), identity)
	if err != nil {
		h.logger.Warnf("checkout failed for user %d: %s", identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	h.logger.Infof("order %s created for user %d", order.OrderNumber, identity.UserID)
	WriteSuccess(w, http.StatusCreated, toOrderResponse(order))
}

// listOrders
//
//	@Summary		История заказов
//	@Description	Возвращает заказы вызывающего; администратор видит все заказы
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	OrderResponse
//	@Router			/orders [get]
func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	orders, err := h.orderUsecase.ListOrders(r.Context(), identity)
	if err != nil {
		h.logger.Warnf("list orders failed for user %d: %s", identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderListResponse(orders))
}

// getOrder
//
//	@Summary		Получение заказа
//	@Description	Возвращает заказ по ID, доступен владельцу и администратору
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"ID заказа"
//	@Success		200	{object}	OrderResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/orders/{id} [get]
func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	orderID, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	order, err := h.orderUsecase.GetOrder(r.Context(), identity, orderID)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// cancelOrder
//
//	@Summary		Отмена заказа
//	@Description	Отменяет заказ и возвращает списанные остатки на склад
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"ID заказа"
//	@Success		200	{object}	OrderResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Заказ уже нельзя отменить"
//	@Router			/orders/{id} [delete]
func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	orderID, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	order, err := h.orderUsecase.Cancel(r.Context(), identity, orderID)
	if err != nil {
		h.logger.Warnf("cancel of order %d failed for user %d: %s", orderID, identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	h.logger.Infof("order %s cancelled by user %d", order.OrderNumber, identity.UserID)
	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// updateStatus
//
//	@Summary		Смена статуса заказа
//	@Description	Административный перевод заказа в новый статус
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"ID заказа"
//	@Param			body	body		updateStatusRequest	true	"Целевой статус"
//	@Success		200		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Запрещённый переход"
//	@Router			/orders/{id} [put]
func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	orderID, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	target, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := h.orderUsecase.UpdateStatus(r.Context(), identity, orderID, target)
	if err != nil {
		h.logger.Warnf("status update of order %d to %s failed: %s", orderID, target, err.Error())
		WriteError(w, err)
		return
	}

	h.logger.Infof("order %s moved to %s by admin %d", order.OrderNumber, order.Status, identity.UserID)
	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
