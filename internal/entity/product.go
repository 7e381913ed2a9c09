package entity

import "time"

// Product stock is authoritative at the base level only when the product has
// no variants; otherwise every unit of inventory lives on a variant row.
type Product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SKU       string     `json:"sku"`
	Stock     int        `json:"stock"`
	Variants  []*Variant `json:"variants,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Variant struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
	Stock int    `json:"stock"`
}

func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// FindVariant matches by variant id first, then by SKU equality.
func (p *Product) FindVariant(variantID, sku string) *Variant {
	for _, v := range p.Variants {
		if variantID != "" && v.ID == variantID {
			return v
		}
	}
	for _, v := range p.Variants {
		if sku != "" && v.SKU == sku {
			return v
		}
	}
	return nil
}
