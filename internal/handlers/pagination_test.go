package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsOversizedLimit(t *testing.T) {
	if _, _, err := parsePaginationParams("2", "500"); err == nil {
		t.Fatal("expected error for limit above 100")
	}
}

func TestParsePaginationParamsRejectsGarbage(t *testing.T) {
	if _, _, err := parsePaginationParams("abc", "10"); err == nil {
		t.Fatal("expected error for non-numeric page")
	}
	if _, _, err := parsePaginationParams("0", "10"); err == nil {
		t.Fatal("expected error for page 0")
	}
}
