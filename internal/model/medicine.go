package model

type Medicine struct {
	Base
	Name         string `json:"name" db:"name"`
	Description  string `json:"description,omitempty" db:"description"`
	Manufacturer string `json:"manufacturer,omitempty" db:"manufacturer"`
	PriceCents   int64  `json:"price_cents" db:"price_cents"`
	Stock        int    `json:"stock" db:"stock"`
	RequiresRx   bool   `json:"requires_prescription" db:"requires_prescription"`
}

type CreateMedicineRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	Manufacturer string `json:"manufacturer" binding:"max=200"`
	PriceCents   int64  `json:"price_cents" binding:"required,gt=0"`
	Stock        int    `json:"stock" binding:"gte=0"`
	RequiresRx   bool   `json:"requires_prescription"`
}

type UpdateMedicineRequest struct {
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,gt=0"`
	Stock       *int    `json:"stock" binding:"omitempty,gte=0"`
	RequiresRx  *bool   `json:"requires_prescription"`
}

type MedicineFilters struct {
	SearchTerm string `form:"q"`
	InStock    bool   `form:"in_stock"`
}
