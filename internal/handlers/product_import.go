package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
)

/* =======================
   ROW MODEL
======================= */

// importRow is one parsed CSV line, keyed by the header names the admin
// template ships with: name, description, price, category, year, condition,
// country, stock, bestseller, image.
type importRow struct {
	Line   int
	Fields map[string]string
}

type skippedRow struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

type importReport struct {
	Inserted int          `json:"inserted"`
	Skipped  []skippedRow `json:"skipped"`
}

var importRequiredColumns = []string{"name", "price", "category", "stock"}

/* =======================
   PURE ROW PROCESSING
======================= */

func readImportHeader(record []string) (map[int]string, error) {
	columns := make(map[int]string, len(record))
	seen := map[string]struct{}{}
	for i, cell := range record {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		columns[i] = name
		seen[name] = struct{}{}
	}
	for _, required := range importRequiredColumns {
		if _, ok := seen[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}
	return columns, nil
}

func rowFromRecord(line int, columns map[int]string, record []string) importRow {
	fields := make(map[string]string, len(columns))
	for i, name := range columns {
		if i < len(record) {
			fields[name] = strings.TrimSpace(record[i])
		}
	}
	return importRow{Line: line, Fields: fields}
}

// validateImportRow turns a row into a product, or an explanation of why it
// was skipped. Duplicate checks happen in the caller against taken, the
// case-insensitive set of names already in the DB or earlier in this file.
func validateImportRow(row importRow, taken map[string]struct{}) (models.Product, string) {
	name := row.Fields["name"]
	if name == "" {
		return models.Product{}, "Missing required field: name"
	}

	nameLower := strings.ToLower(name)
	if _, dup := taken[nameLower]; dup {
		return models.Product{}, "Duplicate name"
	}

	priceRaw := row.Fields["price"]
	if priceRaw == "" {
		return models.Product{}, "Missing required field: price"
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price <= 0 {
		return models.Product{}, "Invalid price"
	}

	categories := parseCategoryField(row.Fields["category"])
	if len(categories) == 0 {
		return models.Product{}, "Missing required field: category"
	}

	stockRaw := row.Fields["stock"]
	if stockRaw == "" {
		return models.Product{}, "Missing required field: stock"
	}
	stock, err := strconv.Atoi(stockRaw)
	if err != nil || stock < 0 {
		return models.Product{}, "Invalid stock"
	}

	product := models.Product{
		Name:         name,
		NameLower:    nameLower,
		Description:  row.Fields["description"],
		Price:        price,
		Category:     models.StringList(categories),
		Country:      row.Fields["country"],
		Stock:        stock,
		RewardPoints: rewardPointsFor(price),
	}

	if yearRaw := row.Fields["year"]; yearRaw != "" {
		year, err := strconv.Atoi(yearRaw)
		if err != nil {
			return models.Product{}, "Invalid year"
		}
		product.Year = year
	}

	if condition := row.Fields["condition"]; condition != "" {
		if !isValidCondition(condition) {
			return models.Product{}, "Invalid condition"
		}
		product.Condition = condition
	}

	if bestRaw := row.Fields["bestseller"]; bestRaw != "" {
		best, err := strconv.ParseBool(strings.ToLower(bestRaw))
		if err != nil {
			return models.Product{}, "Invalid bestseller flag"
		}
		product.Bestseller = best
	}

	if image := row.Fields["image"]; image != "" {
		product.Images = []string{image}
	}

	return product, ""
}

// processImportRows streams records from the reader, validating and
// de-duplicating as it goes. It never buffers the whole file.
func processImportRows(r *csv.Reader, taken map[string]struct{}, now time.Time) ([]interface{}, importReport, error) {
	header, err := r.Read()
	if err != nil {
		return nil, importReport{}, fmt.Errorf("empty file")
	}
	columns, err := readImportHeader(header)
	if err != nil {
		return nil, importReport{}, err
	}

	report := importReport{Skipped: []skippedRow{}}
	docs := make([]interface{}, 0)
	line := 1

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, skippedRow{Line: line, Reason: "Malformed row"})
			continue
		}

		row := rowFromRecord(line, columns, record)
		product, reason := validateImportRow(row, taken)
		if reason != "" {
			report.Skipped = append(report.Skipped, skippedRow{
				Line:   line,
				Name:   row.Fields["name"],
				Reason: reason,
			})
			continue
		}

		taken[product.NameLower] = struct{}{}
		product.CreatedAt = now
		product.UpdatedAt = now
		docs = append(docs, product)
	}

	return docs, report, nil
}

/* =======================
   HANDLER
======================= */

// BulkAddProducts imports a CSV of specimens uploaded as the "file" form
// field. Bad rows are skipped and reported; the insert uses ordered:false so
// one rejected document cannot abort the rest of the batch.
func BulkAddProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/bulk-add"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "CSV file required")
			return
		}

		opened, err := file.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "could not read file")
			return
		}
		defer opened.Close()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		taken, err := existingProductNames(ctx, db)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		reader := csv.NewReader(opened)
		reader.FieldsPerRecord = -1

		docs, report, err := processImportRows(reader, taken, time.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if len(docs) > 0 {
			res, err := db.Collection("products").InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
			if err != nil {
				// A bulk write error still reports the documents that made
				// it; anything else is a hard failure.
				if _, ok := err.(mongo.BulkWriteException); !ok {
					respondError(c, http.StatusInternalServerError, route, "db error")
					return
				}
				log.Println("[PRODUCT] [ERROR] bulk insert partial failure:", err)
			}
			if res != nil {
				report.Inserted = len(res.InsertedIDs)
			}
		}

		log.Printf("[PRODUCT] [INFO] bulk import: %d inserted, %d skipped", report.Inserted, len(report.Skipped))
		respondSuccess(c, http.StatusOK, "Import complete", gin.H{
			"inserted": report.Inserted,
			"skipped":  report.Skipped,
		})
	}
}

func existingProductNames(ctx context.Context, db *mongo.Database) (map[string]struct{}, error) {
	cursor, err := db.Collection("products").Find(
		ctx,
		bson.M{"isDeleted": bson.M{"$ne": true}},
		options.Find().SetProjection(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	taken := map[string]struct{}{}
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		taken[strings.ToLower(strings.TrimSpace(doc.Name))] = struct{}{}
	}
	return taken, cursor.Err()
}
