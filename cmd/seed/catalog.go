package main

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
)

// productNamespace makes generated ids stable across runs.
var productNamespace = uuid.MustParse("6f1c2d0e-6a52-4c1b-9a57-0b8f3c7e4d21")

// line is one product family: the name template is filled with a model from
// models, and each spec key picks one of its values.
type line struct {
	category string
	brands   []string
	models   []string
	name     string
	price    [2]float64
	specs    map[string][]string
}

var lines = []line{
	{
		category: "Procesoare",
		brands:   []string{"AMD"},
		models:   []string{"Ryzen 5 7600", "Ryzen 5 7600X", "Ryzen 7 7700X", "Ryzen 7 7800X3D", "Ryzen 9 7900X", "Ryzen 9 7950X3D"},
		name:     "Procesor %s %s",
		price:    [2]float64{900, 3600},
		specs:    map[string][]string{"socket": {"AM5"}, "cores": {"6", "8", "12", "16"}, "tdp": {"65W", "105W", "120W"}},
	},
	{
		category: "Procesoare",
		brands:   []string{"Intel"},
		models:   []string{"Core i5-13400F", "Core i5-14600K", "Core i7-14700K", "Core i9-14900K"},
		name:     "Procesor %s %s",
		price:    [2]float64{850, 3400},
		specs:    map[string][]string{"socket": {"LGA1700"}, "cores": {"10", "14", "20", "24"}, "tdp": {"65W", "125W"}},
	},
	{
		category: "Placi video",
		brands:   []string{"ASUS", "Gigabyte", "MSI", "Palit"},
		models:   []string{"RTX 4060", "RTX 4060 Ti", "RTX 4070", "RTX 4070 SUPER", "RTX 4080 SUPER", "RTX 4090"},
		name:     "Placa video %s GeForce %s",
		price:    [2]float64{1500, 11000},
		specs:    map[string][]string{"memory": {"8GB", "12GB", "16GB", "24GB"}, "memoryType": {"GDDR6", "GDDR6X"}},
	},
	{
		category: "Placi video",
		brands:   []string{"Sapphire", "PowerColor", "XFX"},
		models:   []string{"RX 7600", "RX 7700 XT", "RX 7800 XT", "RX 7900 XTX"},
		name:     "Placa video %s Radeon %s",
		price:    [2]float64{1400, 5500},
		specs:    map[string][]string{"memory": {"8GB", "12GB", "16GB", "24GB"}, "memoryType": {"GDDR6"}},
	},
	{
		category: "Placi de baza",
		brands:   []string{"ASUS", "Gigabyte", "MSI", "ASRock"},
		models:   []string{"B650", "X670E", "B760", "Z790"},
		name:     "Placa de baza %s %s",
		price:    [2]float64{600, 2800},
		specs:    map[string][]string{"socket": {"AM5", "LGA1700"}, "formFactor": {"ATX", "Micro-ATX", "Mini-ITX"}},
	},
	{
		category: "Memorii RAM",
		brands:   []string{"Kingston", "Corsair", "G.Skill", "Crucial"},
		models:   []string{"DDR5 16GB 5600MHz", "DDR5 32GB 6000MHz", "DDR5 64GB 6000MHz", "DDR4 16GB 3200MHz", "DDR4 32GB 3600MHz"},
		name:     "Memorie %s %s",
		price:    [2]float64{200, 1400},
		specs:    map[string][]string{"type": {"DDR4", "DDR5"}, "kit": {"1x16GB", "2x8GB", "2x16GB", "2x32GB"}},
	},
	{
		category: "Stocare",
		brands:   []string{"Samsung", "WD", "Kingston", "Crucial"},
		models:   []string{"SSD NVMe 500GB", "SSD NVMe 1TB", "SSD NVMe 2TB", "SSD SATA 1TB"},
		name:     "%s %s",
		price:    [2]float64{180, 1100},
		specs:    map[string][]string{"interface": {"NVMe PCIe 4.0", "NVMe PCIe 3.0", "SATA III"}, "formFactor": {"M.2 2280", "2.5\""}},
	},
	{
		category: "Surse",
		brands:   []string{"Seasonic", "Corsair", "be quiet!"},
		models:   []string{"650W", "750W", "850W", "1000W"},
		name:     "Sursa %s %s",
		price:    [2]float64{300, 1300},
		specs:    map[string][]string{"certification": {"80+ Bronze", "80+ Gold", "80+ Platinum"}, "modular": {"Da", "Nu"}},
	},
	{
		category: "Carcase",
		brands:   []string{"NZXT", "Fractal Design", "Lian Li"},
		models:   []string{"H5 Flow", "North", "Lancool 216", "O11 Dynamic"},
		name:     "Carcasa %s %s",
		price:    [2]float64{350, 1000},
		specs:    map[string][]string{"formFactor": {"Mid Tower", "Full Tower"}, "color": {"Negru", "Alb"}},
	},
	{
		category: "Coolere",
		brands:   []string{"Noctua", "Arctic", "DeepCool"},
		models:   []string{"NH-D15", "Liquid Freezer III 240", "AK620", "NH-U12S"},
		name:     "Cooler %s %s",
		price:    [2]float64{150, 700},
		specs:    map[string][]string{"type": {"Aer", "Lichid"}, "socket": {"AM5", "LGA1700"}},
	},
	{
		category: "Monitoare",
		brands:   []string{"Dell", "LG", "Samsung", "AOC"},
		models:   []string{"24\" 144Hz", "27\" 165Hz", "27\" 240Hz", "32\" 4K"},
		name:     "Monitor %s %s",
		price:    [2]float64{600, 4200},
		specs:    map[string][]string{"panel": {"IPS", "VA", "OLED"}, "resolution": {"1920x1080", "2560x1440", "3840x2160"}},
	},
	{
		category: "Periferice",
		brands:   []string{"Logitech", "Razer", "SteelSeries"},
		models:   []string{"G Pro X Superlight", "DeathAdder V3", "Apex 7", "BlackWidow V4"},
		name:     "%s %s",
		price:    [2]float64{200, 900},
		specs:    map[string][]string{"connection": {"Wireless", "USB"}},
	},
}

// generate builds perLine products for every product line. The same seed
// and perLine always produce the same catalog.
func generate(seed int64, perLine int, now time.Time) []domain.Product {
	rng := rand.New(rand.NewSource(seed))
	products := make([]domain.Product, 0, perLine*len(lines))

	for li, l := range lines {
		for i := 0; i < perLine; i++ {
			brand := l.brands[rng.Intn(len(l.brands))]
			model := l.models[rng.Intn(len(l.models))]

			specs := make(map[string]string, len(l.specs))
			for _, key := range sortedSpecKeys(l.specs) {
				values := l.specs[key]
				specs[key] = values[rng.Intn(len(values))]
			}

			price := l.price[0] + rng.Float64()*(l.price[1]-l.price[0])
			stock := rng.Intn(25)
			if rng.Intn(6) == 0 {
				stock = 0
			}

			name := fmt.Sprintf(l.name, brand, model)
			id := uuid.NewSHA1(productNamespace, []byte(fmt.Sprintf("%d:%d:%d", seed, li, i)))
			created := now.Add(-time.Duration(rng.Intn(365*24)) * time.Hour)

			products = append(products, domain.Product{
				ID:          id.String(),
				Name:        name,
				Brand:       brand,
				Category:    l.category,
				Description: fmt.Sprintf("%s, garantie 24 luni.", name),
				Price:       math.Round(price*100) / 100,
				Stock:       stock,
				Rating:      math.Round((3+rng.Float64()*2)*10) / 10,
				NumReviews:  rng.Intn(400),
				Image:       fmt.Sprintf("https://cdn.computerbazaar.ro/products/%s.jpg", id),
				Attributes:  specs,
				CreatedAt:   created.UTC(),
				UpdatedAt:   created.UTC(),
			})
		}
	}
	return products
}

func sortedSpecKeys(specs map[string][]string) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
