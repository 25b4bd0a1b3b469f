package usecase

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestValidateProduct(t *testing.T) {
	uc := &ProductUseCase{}

	cases := []struct {
		req     *AddNewProductReq
		wantErr error
	}{
		{NewAddNewProductReq("keyboard", "devices", 599_99, 10, nil), nil},
		// Бесплатный товар допустим, цена ограничена только снизу нулём
		{NewAddNewProductReq("sticker", "merch", 0, 10, nil), nil},
		{NewAddNewProductReq("keyboard", "devices", -1, 10, nil), e.ErrPriceMustBeNonNegative},
		{NewAddNewProductReq("   ", "devices", 100_00, 10, nil), e.ErrProductNameRequired},
		{NewAddNewProductReq("keyboard", "devices", 100_00, -1, nil), e.ErrQuantityMustBePositive},
	}

	for _, tc := range cases {
		err := uc.validateProduct(tc.req)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, "req %+v", tc.req)
			continue
		}
		assert.NoError(t, err, "req %+v", tc.req)
	}
}
