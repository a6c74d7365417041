package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRewardPointsForFloors(t *testing.T) {
	tests := []struct {
		price float64
		want  int
	}{
		{0, 0},
		{-10, 0},
		{9.99, 0},
		{10, 1},
		{155, 15},
		{159.9, 15},
	}
	for _, tt := range tests {
		if got := rewardPointsFor(tt.price); got != tt.want {
			t.Fatalf("rewardPointsFor(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestIsValidConditionCaseInsensitive(t *testing.T) {
	for _, condition := range []string{"Mint", "mint", "USED", "Fine Used", "on cover"} {
		if !isValidCondition(condition) {
			t.Fatalf("expected %q to be valid", condition)
		}
	}
	if isValidCondition("Pristine") {
		t.Fatal("expected unknown condition to be rejected")
	}
}

func TestParseCategoryFieldCommaList(t *testing.T) {
	got := parseCategoryField(" Classics , Great Britain ,classics,")
	want := []string{"Classics", "Great Britain"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCategoryFieldJSONArray(t *testing.T) {
	got := parseCategoryField(`["Airmail", "USA", "airmail"]`)
	want := []string{"Airmail", "USA"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCategoryFieldEmpty(t *testing.T) {
	if got := parseCategoryField("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestNormalizeProductDocumentLegacyShapes(t *testing.T) {
	product, err := normalizeProductDocument(bson.M{
		"name":     "Penny Black",
		"price":    1500.0,
		"category": "Classics",
		"image":    "https://cdn.example/penny.jpg",
		"stock":    int32(3),
	})
	if err != nil {
		t.Fatalf("normalizeProductDocument returned error: %v", err)
	}
	if len(product.Category) != 1 || product.Category[0] != "Classics" {
		t.Fatalf("expected string category lifted to list, got %v", product.Category)
	}
	if len(product.Images) != 1 {
		t.Fatalf("expected string image lifted to list, got %v", product.Images)
	}
	if product.Stock != 3 || !product.InStock {
		t.Fatalf("expected stock 3 in stock, got stock=%d inStock=%v", product.Stock, product.InStock)
	}
}

func TestNormalizeProductDocumentMissingStock(t *testing.T) {
	product, err := normalizeProductDocument(bson.M{
		"name":  "Blue Mauritius",
		"price": 900.0,
	})
	if err != nil {
		t.Fatalf("normalizeProductDocument returned error: %v", err)
	}
	if product.Stock != 0 || product.InStock {
		t.Fatalf("expected out of stock, got stock=%d inStock=%v", product.Stock, product.InStock)
	}
}

func TestParseMultipartProductRequestTracksSetFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("name", " Penny Black ")
	_ = writer.WriteField("price", "1500.50")
	_ = writer.WriteField("stock", "3")
	_ = writer.WriteField("bestseller", "TRUE")
	_ = writer.WriteField("category", "Classics,Great Britain")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/product/add", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parseMultipartProductRequest(c)
	if err != nil {
		t.Fatalf("parseMultipartProductRequest returned error: %v", err)
	}
	if !parsed.NameSet || parsed.Name != "Penny Black" {
		t.Fatalf("expected trimmed name, got %+v", parsed)
	}
	if !parsed.PriceSet || parsed.Price != 1500.50 {
		t.Fatalf("expected price 1500.50, got %+v", parsed)
	}
	if !parsed.BestsellerSet || !parsed.Bestseller {
		t.Fatalf("expected bestseller=true, got %+v", parsed)
	}
	if !parsed.CategorySet || len(parsed.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", parsed.Categories)
	}
	if parsed.DescriptionSet || parsed.YearSet || parsed.ConditionSet {
		t.Fatalf("expected absent fields unset, got %+v", parsed)
	}
}

func TestParseMultipartProductRequestRejectsBadPrice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("price", "free")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/product/add", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if _, err := parseMultipartProductRequest(c); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}
