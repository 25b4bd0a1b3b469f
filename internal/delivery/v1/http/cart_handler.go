package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// getCart
//
//	@Summary	Корзина пользователя
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	CartResponse
//	@Router		/cart [get]
func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.cartUsecase.GetCart(r.Context(), identity)
	if err != nil {
		h.logger.Warnf("get cart failed for user %d: %s", identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartResponse(view))
}

// addItem
//
//	@Summary	Добавление товара в корзину
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		addCartItemRequest	true	"Товар и количество"
//	@Success	204		"Добавлено"
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/cart/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := h.cartUsecase.AddItem(r.Context(), identity, req.ProductID, req.Quantity); err != nil {
		h.logger.Warnf("add item %d failed for user %d: %s", req.ProductID, identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// updateItem
//
//	@Summary	Изменение количества товара в корзине
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		productID	path		int						true	"ID товара"
//	@Param		body		body		updateCartItemRequest	true	"Новое количество"
//	@Success	204			"Обновлено"
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/cart/items/{productID} [put]
func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	productID, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := h.cartUsecase.UpdateItem(r.Context(), identity, productID, req.Quantity); err != nil {
		h.logger.Warnf("update item %d failed for user %d: %s", productID, identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removeItem
//
//	@Summary	Удаление товара из корзины
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Param		productID	path	int	true	"ID товара"
//	@Success	204			"Удалено"
//	@Failure	404			{object}	ErrorResponse
//	@Router		/cart/items/{productID} [delete]
func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromCtx(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	productID, err := parseIDParam(r, "productID")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := h.cartUsecase.RemoveItem(r.Context(), identity, productID); err != nil {
		h.logger.Warnf("remove item %d failed for user %d: %s", productID, identity.UserID, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
