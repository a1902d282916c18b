package products

type ProductForm struct {
	SKU         string `json:"sku" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Unit        string `json:"unit" validate:"omitempty,max=20"`
	Price       int64  `json:"price" validate:"gte=0"`
	Description string `json:"description" validate:"max=2000"`
}

type ProductPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Unit        *string `json:"unit" validate:"omitempty,min=1,max=20"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

// StockAdjustment adds Delta units (negative to remove) at Location.
type StockAdjustment struct {
	Location string `json:"location" validate:"required,max=100"`
	Delta    int64  `json:"delta" validate:"required"`
}
