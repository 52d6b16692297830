package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ProductSize is a purchasable size variant with its own price.
type ProductSize struct {
	Name  string  `bson:"name" json:"name" validate:"required"`
	Price float64 `bson:"price" json:"price" validate:"required,gt=0"`
}

// ProductAddon is an optional priced extra (frosting, candles, toppings).
type ProductAddon struct {
	Name  string  `bson:"name" json:"name" validate:"required"`
	Price float64 `bson:"price" json:"price" validate:"gte=0"`
}

// Product is a menu item.
type Product struct {
	ID          primitive.ObjectID `json:"productId,omitempty" bson:"_id,omitempty"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category" validate:"required"`
	Price       float64            `bson:"price" json:"price" validate:"required,gt=0"`
	Sizes       []ProductSize      `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Addons      []ProductAddon     `bson:"addons,omitempty" json:"addons,omitempty"`
	Images      []string           `bson:"images" json:"images"`
	IsVeg       bool               `bson:"isVeg" json:"isVeg"`
	Available   bool               `bson:"available" json:"available"`
}

// PriceFor resolves the unit price for a chosen size, falling back to the base
// price when the size is unknown.
func (p Product) PriceFor(size string) float64 {
	for _, s := range p.Sizes {
		if s.Name == size {
			return s.Price
		}
	}
	return p.Price
}
