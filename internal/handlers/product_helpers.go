package handlers

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"philabasket/internal/models"
)

// rewardPointsFor derives the PTS earned per unit: 10% of price, floored.
// Recomputed on every product write so the stored value never drifts.
func rewardPointsFor(price float64) int {
	if price <= 0 {
		return 0
	}
	return int(math.Floor(price * 0.10))
}

func isValidCondition(condition string) bool {
	for _, known := range models.ValidConditions() {
		if strings.EqualFold(condition, known) {
			return true
		}
	}
	return false
}

// parseCategoryField accepts either a JSON string array or a comma list,
// matching what the admin SPA and CSV files send.
func parseCategoryField(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err == nil {
			return normalizeCategories(values)
		}
	}

	return normalizeCategories(strings.Split(trimmed, ","))
}

func normalizeCategories(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)

	for _, v := range values {
		name := strings.TrimSpace(v)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// normalizeProductDocument tolerates legacy field shapes (string category,
// numeric stock variants, single image string) before decoding.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	if cat, ok := raw["category"].(string); ok {
		raw["category"] = []string{cat}
	}

	if img, ok := raw["image"].(string); ok {
		raw["image"] = []string{img}
	}

	if val, ok := raw["stock"]; ok {
		switch typed := val.(type) {
		case int32:
			raw["stock"] = int(typed)
		case int64:
			raw["stock"] = int(typed)
		case float64:
			raw["stock"] = int(typed)
		case int:
			raw["stock"] = typed
		default:
			raw["stock"] = 0
		}
	} else {
		raw["stock"] = 0
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.InStock = p.Stock > 0

	return p, nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
