package main

import (
	"github.com/shopspring/decimal"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
)

func seedProducts() []entity.Product {
	return []entity.Product{
		{ID: 1, Name: "Cat Sweater", Category: "Clothes and accessories", Price: decimal.RequireFromString("260"), Stock: 25},
		{ID: 2, Name: "Dog Leash", Category: "Clothes and accessories", Price: decimal.RequireFromString("189.50"), Stock: 40},
		{ID: 3, Name: "Salmon Kibble 2kg", Category: "Food", Price: decimal.RequireFromString("459"), Stock: 60},
		{ID: 4, Name: "Chicken Treats", Category: "Food", Price: decimal.RequireFromString("79"), Stock: 120},
		{ID: 5, Name: "Automatic Feeder", Category: "Electronics", Price: decimal.RequireFromString("1290"), Stock: 8},
		{ID: 6, Name: "Pet Camera", Category: "Electronics", Price: decimal.RequireFromString("1850"), Stock: 5},
		{ID: 7, Name: "Water Fountain", Category: "Electronics", Price: decimal.RequireFromString("690"), Stock: 12},
		{ID: 8, Name: "Scratching Post", Category: "Toys", Price: decimal.RequireFromString("350"), Stock: 15},
	}
}
