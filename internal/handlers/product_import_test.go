package handlers

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"philabasket/internal/models"
)

func TestReadImportHeaderRequiresColumns(t *testing.T) {
	_, err := readImportHeader([]string{"name", "price", "category"})
	if err == nil {
		t.Fatal("expected error for missing stock column")
	}
	if !strings.Contains(err.Error(), "stock") {
		t.Fatalf("expected error to name the missing column, got %v", err)
	}
}

func TestReadImportHeaderIsCaseInsensitive(t *testing.T) {
	columns, err := readImportHeader([]string{"Name", " PRICE ", "Category", "Stock", "Year"})
	if err != nil {
		t.Fatalf("readImportHeader returned error: %v", err)
	}
	if columns[0] != "name" || columns[1] != "price" || columns[4] != "year" {
		t.Fatalf("unexpected column map: %v", columns)
	}
}

func importRowFor(fields map[string]string) importRow {
	return importRow{Line: 2, Fields: fields}
}

func TestValidateImportRowHappyPath(t *testing.T) {
	product, reason := validateImportRow(importRowFor(map[string]string{
		"name":       "Penny Black 1840",
		"price":      "1500.50",
		"category":   "Great Britain, Classics",
		"stock":      "3",
		"year":       "1840",
		"condition":  "Used",
		"bestseller": "true",
	}), map[string]struct{}{})
	if reason != "" {
		t.Fatalf("expected row accepted, got reason %q", reason)
	}
	if product.NameLower != "penny black 1840" {
		t.Fatalf("unexpected nameLower %q", product.NameLower)
	}
	if len(product.Category) != 2 {
		t.Fatalf("expected 2 categories, got %v", product.Category)
	}
	if product.RewardPoints != 150 {
		t.Fatalf("expected 150 reward points, got %d", product.RewardPoints)
	}
	if !product.Bestseller {
		t.Fatal("expected bestseller flag set")
	}
}

func TestValidateImportRowDuplicateNameCaseInsensitive(t *testing.T) {
	taken := map[string]struct{}{"penny black 1840": {}}
	_, reason := validateImportRow(importRowFor(map[string]string{
		"name":     "PENNY BLACK 1840",
		"price":    "100",
		"category": "Classics",
		"stock":    "1",
	}), taken)
	if reason != "Duplicate name" {
		t.Fatalf("expected Duplicate name, got %q", reason)
	}
}

func TestValidateImportRowRejectsBadValues(t *testing.T) {
	tests := []struct {
		fields map[string]string
		want   string
	}{
		{map[string]string{"price": "100", "category": "C", "stock": "1"}, "Missing required field: name"},
		{map[string]string{"name": "A", "price": "abc", "category": "C", "stock": "1"}, "Invalid price"},
		{map[string]string{"name": "A", "price": "0", "category": "C", "stock": "1"}, "Invalid price"},
		{map[string]string{"name": "A", "price": "-5", "category": "C", "stock": "1"}, "Invalid price"},
		{map[string]string{"name": "A", "price": "10", "category": "C", "stock": "-1"}, "Invalid stock"},
		{map[string]string{"name": "A", "price": "10", "category": "C", "stock": "x"}, "Invalid stock"},
		{map[string]string{"name": "A", "price": "10", "category": "C", "stock": "1", "year": "MDCCCXL"}, "Invalid year"},
		{map[string]string{"name": "A", "price": "10", "category": "C", "stock": "1", "condition": "Shiny"}, "Invalid condition"},
		{map[string]string{"name": "A", "price": "10", "category": "C", "stock": "1", "bestseller": "yep"}, "Invalid bestseller flag"},
		{map[string]string{"name": "A", "price": "10", "category": " , ", "stock": "1"}, "Missing required field: category"},
	}
	for _, tt := range tests {
		_, reason := validateImportRow(importRowFor(tt.fields), map[string]struct{}{})
		if reason != tt.want {
			t.Fatalf("fields %v: expected %q, got %q", tt.fields, tt.want, reason)
		}
	}
}

func TestValidateImportRowAcceptsJSONCategoryList(t *testing.T) {
	product, reason := validateImportRow(importRowFor(map[string]string{
		"name":     "Inverted Jenny",
		"price":    "200",
		"category": `["USA","Airmail","usa"]`,
		"stock":    "1",
	}), map[string]struct{}{})
	if reason != "" {
		t.Fatalf("expected row accepted, got %q", reason)
	}
	if len(product.Category) != 2 {
		t.Fatalf("expected case-insensitive dedupe to 2 categories, got %v", product.Category)
	}
}

func TestProcessImportRowsSkipsAndDeduplicatesWithinFile(t *testing.T) {
	input := strings.Join([]string{
		"name,price,category,stock",
		"Penny Black,1500,Classics,2",
		"penny black,900,Classics,1",
		"Blue Mauritius,,Classics,1",
		"Cape Triangle,75.5,Classics,4",
	}, "\n")

	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1

	docs, report, err := processImportRows(reader, map[string]struct{}{}, time.Now())
	if err != nil {
		t.Fatalf("processImportRows returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 accepted rows, got %d", len(docs))
	}
	if len(report.Skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %v", report.Skipped)
	}
	if report.Skipped[0].Reason != "Duplicate name" {
		t.Fatalf("expected Duplicate name first, got %q", report.Skipped[0].Reason)
	}
	if report.Skipped[1].Reason != "Missing required field: price" {
		t.Fatalf("expected missing price second, got %q", report.Skipped[1].Reason)
	}

	first, ok := docs[0].(models.Product)
	if !ok {
		t.Fatalf("expected models.Product docs, got %T", docs[0])
	}
	if first.Name != "Penny Black" {
		t.Fatalf("unexpected first product %q", first.Name)
	}
}

func TestProcessImportRowsRespectsExistingNames(t *testing.T) {
	input := "name,price,category,stock\nPenny Black,1500,Classics,2\n"
	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1

	taken := map[string]struct{}{"penny black": {}}
	docs, report, err := processImportRows(reader, taken, time.Now())
	if err != nil {
		t.Fatalf("processImportRows returned error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected 0 accepted rows, got %d", len(docs))
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Reason != "Duplicate name" {
		t.Fatalf("expected Duplicate name skip, got %v", report.Skipped)
	}
}

func TestProcessImportRowsEmptyFile(t *testing.T) {
	reader := csv.NewReader(strings.NewReader(""))
	reader.FieldsPerRecord = -1

	_, _, err := processImportRows(reader, map[string]struct{}{}, time.Now())
	if err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestProcessImportRowsMissingColumnHeader(t *testing.T) {
	reader := csv.NewReader(strings.NewReader("name,price\nA,10\n"))
	reader.FieldsPerRecord = -1

	_, _, err := processImportRows(reader, map[string]struct{}{}, time.Now())
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
}
