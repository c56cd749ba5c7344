package presenter

import "github.com/wichananm65/pet-shop-checkout/internal/domain/entity"

type ProductPresenter struct{}

func NewProductPresenter() *ProductPresenter {
	return &ProductPresenter{}
}

type ProductResponse struct {
	ID       int    `json:"productId"`
	Name     string `json:"productName"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
}

func (p *ProductPresenter) ToResponse(product *entity.Product) *ProductResponse {
	if product == nil {
		return nil
	}
	return &ProductResponse{
		ID:       product.ID,
		Name:     product.Name,
		Category: product.Category,
		Price:    amount(product.Price),
		Stock:    product.Stock,
	}
}

func (p *ProductPresenter) ToList(products []*entity.Product) []*ProductResponse {
	result := make([]*ProductResponse, 0, len(products))
	for _, product := range products {
		result = append(result, p.ToResponse(product))
	}
	return result
}
