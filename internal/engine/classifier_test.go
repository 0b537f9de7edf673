package engine

import (
	"errors"
	"testing"

	"koinochrista/internal/core"
)

func TestClassify(t *testing.T) {
	catalog := Catalog{
		1: {ID: 1, Name: "Θέρμανση", GroupType: core.GroupOperational, CategoryType: "heating", Pool: core.PoolResident, Method: core.DistributeConsumption},
		2: {ID: 2, Name: "Ανελκυστήρας", GroupType: core.GroupFixed, Pool: core.PoolShared, Method: core.DistributeMills},
	}

	cls, err := catalog.Classify(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.Pool != core.PoolResident || cls.Group != "heating" || cls.Method != core.DistributeConsumption {
		t.Fatalf("unexpected classification: %+v", cls)
	}

	// Group label falls back to the category name when no fine-grained type
	// is set.
	cls, err = catalog.Classify(2, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.Group != "Ανελκυστήρας" {
		t.Fatalf("expected name fallback, got %q", cls.Group)
	}
}

func TestClassifyUnknownCategory(t *testing.T) {
	catalog := Catalog{}
	_, err := catalog.Classify(42, 7)
	var unknown *core.UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCategoryError, got %v", err)
	}
	if unknown.CategoryID != 42 || unknown.RecordID != 7 {
		t.Fatalf("unexpected error detail: %+v", unknown)
	}
}

func TestClassifyInvalidReferenceData(t *testing.T) {
	catalog := Catalog{
		5: {ID: 5, Name: "broken", Pool: "landlord", Method: core.DistributeEqual},
		6: {ID: 6, Name: "broken too", Pool: core.PoolShared, Method: "percentage"},
	}
	for _, id := range []int64{5, 6} {
		var unknown *core.UnknownCategoryError
		if _, err := catalog.Classify(id, 1); !errors.As(err, &unknown) {
			t.Fatalf("category %d: expected UnknownCategoryError, got %v", id, err)
		}
	}
}
