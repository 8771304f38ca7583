package config

import (
	"testing"

	"columnstore/internal/keytype"
)

func gdeltDataset() DatasetConfig {
	return DatasetConfig{
		Name: "gdelt",
		Columns: map[string]ColumnType{
			"year":      ColumnInt,
			"month":     ColumnInt,
			"actor1":    ColumnString,
			"eventCode": ColumnString,
		},
		PartitionKeyColumns: []string{"year"},
		RowKeyColumns:       []string{"month"},
	}
}

func TestValidateRejectsNegativeLimit(t *testing.T) {
	cfg := &Config{InqueryPartitionsLimit: -1}
	if err := cfg.Validate(); err != ErrInvalidLimit {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestValidateRejectsDuplicateDataset(t *testing.T) {
	ds := gdeltDataset()
	cfg := &Config{Datasets: []DatasetConfig{ds, ds}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate dataset name")
	}
}

func TestValidateRejectsKeyColumnMissingFromSchema(t *testing.T) {
	ds := gdeltDataset()
	ds.RowKeyColumns = []string{"missing"}
	cfg := &Config{Datasets: []DatasetConfig{ds}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for undeclared key column")
	}
}

func TestValidateAcceptsWellFormedDataset(t *testing.T) {
	cfg := &Config{Datasets: []DatasetConfig{gdeltDataset()}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEffectiveInqueryPartitionsLimitDefaults(t *testing.T) {
	if got := EffectiveInqueryPartitionsLimit(nil); got != DefaultInqueryPartitionsLimit {
		t.Errorf("got %d, want %d", got, DefaultInqueryPartitionsLimit)
	}
	if got := EffectiveInqueryPartitionsLimit(&Config{}); got != DefaultInqueryPartitionsLimit {
		t.Errorf("got %d, want %d", got, DefaultInqueryPartitionsLimit)
	}
	if got := EffectiveInqueryPartitionsLimit(&Config{InqueryPartitionsLimit: 10}); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestDatasetConfigToProjection(t *testing.T) {
	ds := gdeltDataset()
	all := []string{"year", "month", "actor1", "eventCode"}
	proj, err := ds.ToProjection(all)
	if err != nil {
		t.Fatalf("ToProjection: %v", err)
	}
	if len(proj.PartitionKey) != 1 || proj.PartitionKey[0].Name != "year" || proj.PartitionKey[0].Type != keytype.Int {
		t.Errorf("unexpected partition key: %+v", proj.PartitionKey)
	}
	if len(proj.RowKey) != 1 || proj.RowKey[0].Name != "month" {
		t.Errorf("unexpected row key: %+v", proj.RowKey)
	}
	if len(proj.DataColumns) != 2 {
		t.Errorf("expected 2 data columns, got %d: %+v", len(proj.DataColumns), proj.DataColumns)
	}
}

func TestDatasetConfigToProjectionUnknownColumnType(t *testing.T) {
	ds := gdeltDataset()
	ds.Columns["year"] = ColumnType("bogus")
	all := []string{"year", "month", "actor1", "eventCode"}
	if _, err := ds.ToProjection(all); err == nil {
		t.Fatal("expected error for unknown column type")
	}
}
