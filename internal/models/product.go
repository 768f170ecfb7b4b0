package models

type ProductCategory string

const (
	CategoryFabrics    ProductCategory = "tecidos"
	CategoryBedding    ProductCategory = "cama"
	CategoryCurtains   ProductCategory = "cortinas"
	CategoryMattresses ProductCategory = "colchoes"
	CategoryCushions   ProductCategory = "almofadas"
	CategoryKids       ProductCategory = "crianca"
	CategoryBath       ProductCategory = "banho"
	CategoryOther      ProductCategory = "outros"
)

type ProductType string

// ProductTypeFabric is the only type sold by length; every other type is sold per unit.
const (
	ProductTypeFabric    ProductType = "fabric"
	ProductTypeReadyMade ProductType = "ready_made"
	ProductTypePillow    ProductType = "travesseiro"
	ProductTypeSheet     ProductType = "lencol"
	ProductTypeSet       ProductType = "conjunto"
	ProductTypeQuilt     ProductType = "colcha"
	ProductTypeBlanket   ProductType = "coberto"
	ProductTypeKit       ProductType = "kit"
	ProductTypeTowel     ProductType = "toalha"
	ProductTypeBathrobe  ProductType = "roupao"
	ProductTypeBathTowel ProductType = "toalha_banho"
	ProductTypeFaceTowel ProductType = "toalha_rosto"
	ProductTypeHandTowel ProductType = "toalha_maos"
)

// Product is read-only catalog data. JSON field names follow the mobile
// client's payloads so snapshots written by older app builds still decode.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    ProductCategory `json:"category"`
	Type        ProductType     `json:"type"`
	Price       float64         `json:"price"`
	SalePrice   *float64        `json:"salePrice,omitempty"`
	OnSale      bool            `json:"onSale"`
	InStock     bool            `json:"inStock"`
	Featured    bool            `json:"featured"`
	SKU         string          `json:"sku,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Color       string          `json:"color,omitempty"`
	Pattern     string          `json:"pattern,omitempty"`
	Width       float64         `json:"width,omitempty"`  // cm
	Weight      float64         `json:"weight,omitempty"` // g/m²
	Images      []string        `json:"images,omitempty"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
}

func (p Product) IsLengthSold() bool {
	return p.Type == ProductTypeFabric
}

// EffectiveUnitPrice is the sale price when the product is on sale and a sale
// price is set, otherwise the list price.
func (p Product) EffectiveUnitPrice() float64 {
	if p.OnSale && p.SalePrice != nil {
		return *p.SalePrice
	}

	return p.Price
}

type ProductFilter struct {
	Query    string          `json:"query,omitempty"`
	Category ProductCategory `json:"category,omitempty"`
	InStock  bool            `json:"inStock,omitempty"`
	OnSale   bool            `json:"onSale,omitempty"`
}
