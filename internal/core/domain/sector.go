package domain

// Sector is a manufacturing sector businesses belong to and investors declare
// interest in. Public reference data, not user-editable.
type Sector struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultSectors seeds the catalogue on first boot so that profile setup has
// something to offer before an operator curates the list.
var DefaultSectors = []Sector{
	{Name: "Agro-processing", Description: "Value addition for agricultural produce: milling, dairy, fruit and vegetable processing."},
	{Name: "Textiles & Apparel", Description: "Garment manufacturing, fabric production and leather goods."},
	{Name: "Construction Materials", Description: "Cement, steel fabrication, roofing and building products."},
	{Name: "Chemicals & Plastics", Description: "Industrial chemicals, detergents, packaging and plastic goods."},
	{Name: "Metal & Engineering", Description: "Machining, metal fabrication and light engineering works."},
	{Name: "Food & Beverages", Description: "Packaged foods, bottling and beverage production."},
	{Name: "Pharmaceuticals", Description: "Medical supplies and pharmaceutical manufacturing."},
	{Name: "Energy & Electricals", Description: "Solar assembly, electrical equipment and energy products."},
}
