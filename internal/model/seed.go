package model

// SeedProducts returns the starting catalogue loaded when SEED_DATA is enabled.
func SeedProducts() []Product {
	return []Product{
		{
			ID:        1,
			Name:      "Smartphone X",
			Price:     1200,
			Available: true,
			Categories: []Category{
				{ID: 1, Name: "Electrónica", Stock: 50},
				{ID: 2, Name: "Accesorios", Stock: 100},
			},
		},
		{
			ID:        2,
			Name:      "Laptop Pro",
			Price:     2500,
			Available: true,
			Categories: []Category{
				{ID: 1, Name: "Computadoras", Stock: 20},
				{ID: 2, Name: "Electrónica", Stock: 30},
			},
		},
		{
			ID:        3,
			Name:      "Auriculares Inalámbricos",
			Price:     800,
			Available: false,
			Categories: []Category{
				{ID: 1, Name: "Audio", Stock: 75},
				{ID: 2, Name: "Accesorios", Stock: 150},
			},
		},
	}
}
