package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/avyhea/avyhea-backend/config"
	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/avyhea/avyhea-backend/pkg/util"
	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Seeds the database with an admin account and a starter catalog.
// With an XLSX path as the first argument, products are imported from
// that file instead of the built-in list. Expected columns:
// name | description | price | stock | category | colors (comma separated)
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	gdb := db.GetDB()

	if err := seedAdmin(gdb); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}

	var products []model.Product
	if len(os.Args) > 1 {
		fmt.Printf("Reading product catalog: %s\n", os.Args[1])
		products, err = readProductsFromXLSX(gdb, os.Args[1])
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	} else {
		products, err = defaultCatalog(gdb)
		if err != nil {
			log.Fatal("Failed to build default catalog:", err)
		}
	}

	created := 0
	for i := range products {
		var existing model.Product
		err := gdb.Where("name = ?", products[i].Name).First(&existing).Error
		if err == nil {
			continue // already seeded
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal("Failed to check existing product:", err)
		}
		if err := gdb.Create(&products[i]).Error; err != nil {
			log.Fatal("Failed to create product:", err)
		}
		created++
	}

	fmt.Printf("Seed completed: %d new products\n", created)
}

func seedAdmin(gdb *gorm.DB) error {
	email := getEnvDefault("SEED_ADMIN_EMAIL", "admin@avyhea.com")

	var existing model.User
	err := gdb.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Println("Admin user already exists, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(getEnvDefault("SEED_ADMIN_PASSWORD", "changeme"))
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := gdb.Create(admin).Error; err != nil {
		return err
	}
	fmt.Printf("Created admin user: %s\n", email)
	return nil
}

// findOrCreateCategory keeps category names unique across repeat runs
func findOrCreateCategory(gdb *gorm.DB, name string) (*model.Category, error) {
	var category model.Category
	err := gdb.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = model.Category{Name: name}
	if err := gdb.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func defaultCatalog(gdb *gorm.DB) ([]model.Product, error) {
	type entry struct {
		name        string
		description string
		price       float64
		stock       int
		category    string
		colors      []string
	}

	entries := []entry{
		{"Stoneware Mug", "Hand thrown stoneware mug, 350ml", 100, 40, "Ceramics", []string{"blue", "cream"}},
		{"Glazed Vase", "Tall glazed vase with drip finish", 250, 15, "Ceramics", []string{"green"}},
		{"Serving Bowl", "Wide serving bowl, dishwasher safe", 180, 25, "Ceramics", []string{"white", "black"}},
		{"Wool Blanket", "Heavy woven wool blanket, 130x180cm", 400, 10, "Textiles", []string{"grey", "rust"}},
		{"Linen Cushion", "Washed linen cushion cover", 90, 30, "Textiles", []string{"natural", "olive"}},
		{"Oak Cutting Board", "End grain oak cutting board", 220, 12, "Woodwork", nil},
	}

	var products []model.Product
	for _, e := range entries {
		category, err := findOrCreateCategory(gdb, e.category)
		if err != nil {
			return nil, err
		}
		products = append(products, model.Product{
			Name:          e.name,
			Description:   e.description,
			Price:         e.price,
			Stock:         e.stock,
			CategoryID:    category.ID,
			Colors:        pq.StringArray(e.colors),
			AverageRating: model.DefaultProductRating,
		})
	}
	return products, nil
}

func readProductsFromXLSX(gdb *gorm.DB, filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows found in XLSX file")
	}

	var products []model.Product
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[0])
		price, priceErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		stock, stockErr := strconv.Atoi(strings.TrimSpace(row[3]))
		categoryName := strings.TrimSpace(row[4])
		if name == "" || categoryName == "" || priceErr != nil || stockErr != nil {
			skipped++
			continue
		}

		category, err := findOrCreateCategory(gdb, categoryName)
		if err != nil {
			return nil, err
		}

		var colors []string
		if len(row) > 5 {
			for _, c := range strings.Split(row[5], ",") {
				if c = strings.TrimSpace(c); c != "" {
					colors = append(colors, c)
				}
			}
		}

		products = append(products, model.Product{
			Name:          name,
			Description:   strings.TrimSpace(row[1]),
			Price:         price,
			Stock:         stock,
			CategoryID:    category.ID,
			Colors:        pq.StringArray(colors),
			AverageRating: model.DefaultProductRating,
		})
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d malformed rows\n", skipped)
	}
	return products, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
