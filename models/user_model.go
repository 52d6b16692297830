package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	Id       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name" validate:"required"`
	Phone    string             `bson:"phone" json:"phone" validate:"required"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Password string             `bson:"password" json:"-" validate:"required,min=8"`
	Type     string             `bson:"type,omitempty" json:"type,omitempty" validate:"required,oneof=user admin"`
	Cart     []CartItem         `bson:"cart" json:"cart"`
}

// CartItem keeps the chosen customization alongside the product so checkout
// can snapshot prices without another lookup.
type CartItem struct {
	Product  Product          `bson:"product" json:"product" validate:"required"`
	Quantity int              `bson:"quantity" json:"quantity" validate:"required,min=1"`
	Size     string           `bson:"size,omitempty" json:"size,omitempty"`
	Addons   []OrderItemAddon `bson:"addons,omitempty" json:"addons,omitempty"`
}

// LineTotal is the cart line's price: (size price + addons) x quantity.
func (ci CartItem) LineTotal() float64 {
	unit := ci.Product.PriceFor(ci.Size)
	for _, a := range ci.Addons {
		unit += a.Price
	}
	return unit * float64(ci.Quantity)
}
