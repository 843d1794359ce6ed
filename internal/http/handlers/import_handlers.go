package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/repo"
)

// Expected CSV header, in order. Barcode, cost_price, threshold and
// category_id may be left empty per row.
var importHeader = []string{"sku", "barcode", "name", "price", "cost_price", "quantity", "threshold", "category_id"}

// ImportProductsHandler godoc
// @Summary Bulk-import products from CSV
// @Description Rows that fail validation are reported and skipped; valid rows are imported. Each imported row logs an initial movement with the import reason.
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {string} string "Invalid file"
// @Router /products/import [post]
func ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "could not parse form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	products, rowErrors, err := parseProductsCSV(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	imported := 0
	for _, p := range products {
		created, err := productRepo.Create(p)
		if err != nil {
			desc := "could not import product"
			if errors.Is(err, repo.ErrDuplicatedValueUnique) {
				desc = "sku or barcode duplicated"
			}
			rowErrors = append(rowErrors, ProductValidationError{
				Field:       p.SKU,
				Description: desc,
			})
			continue
		}
		imported++

		if created.Quantity > 0 {
			if err := movementRepo.Log(created.ID, created.Quantity, models.MovementReasonImport); err != nil {
				zap.L().Warn("failed to log import movement",
					zap.Int("product_id", created.ID), zap.Error(err))
			}
		}
	}

	writeJSON(w, http.StatusOK, ImportProductsResult{
		ImportedProductsCount: imported,
		Errors:                rowErrors,
	})
}

func parseProductsCSV(r io.Reader) ([]models.Product, []ProductValidationError, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.New("could not read CSV header")
	}
	if len(header) != len(importHeader) {
		return nil, nil, fmt.Errorf("expected header %s", strings.Join(importHeader, ","))
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != importHeader[i] {
			return nil, nil, fmt.Errorf("expected header %s", strings.Join(importHeader, ","))
		}
	}

	var (
		products  []models.Product
		rowErrors []ProductValidationError
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, ProductValidationError{
				Field:       fmt.Sprintf("line %d", line),
				Description: "malformed CSV row",
			})
			continue
		}

		p, rowErr := productFromRecord(record)
		if rowErr != "" {
			rowErrors = append(rowErrors, ProductValidationError{
				Field:       fmt.Sprintf("line %d", line),
				Description: rowErr,
			})
			continue
		}
		products = append(products, p)
	}
	return products, rowErrors, nil
}

func productFromRecord(record []string) (models.Product, string) {
	get := func(i int) string { return strings.TrimSpace(record[i]) }

	p := models.Product{
		SKU:       get(0),
		Name:      get(2),
		CreatedAt: time.Now().Format(time.RFC3339),
		UpdatedAt: time.Now().Format(time.RFC3339),
	}
	if p.SKU == "" {
		return p, "sku is required"
	}
	if p.Name == "" {
		return p, "name is required"
	}
	if barcode := get(1); barcode != "" {
		p.Barcode = &barcode
	}

	price, err := strconv.ParseFloat(get(3), 64)
	if err != nil || price <= 0 {
		return p, "price must be a positive number"
	}
	p.Price = price

	if s := get(4); s != "" {
		cost, err := strconv.ParseFloat(s, 64)
		if err != nil || cost < 0 {
			return p, "cost_price must be a non-negative number"
		}
		p.CostPrice = cost
	}

	qty, err := strconv.Atoi(get(5))
	if err != nil || qty < 0 {
		return p, "quantity must be a non-negative integer"
	}
	p.Quantity = qty

	if s := get(6); s != "" {
		threshold, err := strconv.Atoi(s)
		if err != nil || threshold < 0 {
			return p, "threshold must be a non-negative integer"
		}
		p.Threshold = threshold
	}

	if s := get(7); s != "" {
		categoryID, err := strconv.Atoi(s)
		if err != nil {
			return p, "category_id must be an integer"
		}
		p.CategoryID = &categoryID
	}
	return p, ""
}
