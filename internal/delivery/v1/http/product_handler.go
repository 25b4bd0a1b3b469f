package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type setStockRequest struct {
	Stock int64 `json:"stock"`
}

// registerNewProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Создает новый товар в каталоге с изображениями
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name		formData	string	true	"Название товара"
//	@Param			category	formData	string	true	"Категория"
//	@Param			price		formData	number	true	"Цена"
//	@Param			stock		formData	integer	false	"Начальный остаток"
//	@Param			images		formData	file	false	"Изображения товара"
//	@Success		201			{object}	ProductInfoResponse	"Успешное создание"
//	@Failure		400			{object}	ErrorResponse		"Ошибка валидации"
//	@Router			/admin/products [post]
func (p *ProductHandler) registerNewProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 150 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	images, err := parseImages(r.MultipartForm.File["images"])
	if err != nil {
		if !errors.Is(err, e.ErrNoImages) {
			p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
			WriteError(w, err)
			return
		}
	}

	product, err := p.productUsecase.RegisterNewProduct(r.Context(),
		usecase.NewAddNewProductReq(prMeta.Name, prMeta.CategoryName, prMeta.Price, prMeta.Stock, images))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, ProductInfoResponse{
		ID:           product.ID,
		Name:         product.Name,
		CategoryName: prMeta.CategoryName,
		Price:        formatCents(product.Price),
		IsActive:     product.IsActive,
	})
}

// getProducts
//
//	@Summary		Информация о товарах
//	@Description	Возвращает данные товаров по списку ID, с кэшированием
//	@Tags			products
//	@Produce		json
//	@Param			ids	query		string	true	"ID товаров через запятую"
//	@Success		200	{object}	ProductsResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) getProducts(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res, err := p.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq(ids))
	if err != nil {
		p.logger.Warnf("get products failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductsResponse(res))
}

// getProduct
//
//	@Summary	Информация об одном товаре
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductInfoResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	res, err := p.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq([]int64{id}))
	if err != nil {
		p.logger.Warnf("get product %d failed: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	if len(res.Products) == 0 {
		WriteError(w, e.ErrProductNotFound)
		return
	}

	info := res.Products[0]
	WriteSuccess(w, http.StatusOK, ProductInfoResponse{
		ID:           info.ID,
		Name:         info.Name,
		CategoryName: info.CategoryName,
		Price:        formatCents(info.Price),
		IsActive:     info.IsActive,
	})
}

// setStock
//
//	@Summary		Установка остатка товара
//	@Description	Прямое выставление остатка администратором (приёмка склада)
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path	int				true	"ID товара"
//	@Param			body	body	setStockRequest	true	"Новый остаток"
//	@Success		204		"Остаток обновлён"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/admin/products/{id}/stock [put]
func (p *ProductHandler) setStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := p.productUsecase.SetStock(r.Context(), id, req.Stock); err != nil {
		p.logger.Warnf("set stock for product %d failed: %s", id, err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids query parameter is required")
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}
