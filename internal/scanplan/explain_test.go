package scanplan

import (
	"strings"
	"testing"
)

func TestExplainPlanReportsKinds(t *testing.T) {
	proj := gdeltProjection(t, []string{"actor1Code"}, []string{"year", "month"})
	filters := []Filter{
		{Column: "actor1Code", Op: EqualTo, Value: "USA"},
		{Column: "year", Op: EqualTo, Value: "1979"},
	}

	pscan, cscan, lines, err := ExplainPlan(proj, filters, 64)
	if err != nil {
		t.Fatalf("ExplainPlan: %v", err)
	}
	if pscan.Kind != Single {
		t.Fatalf("expected Single, got %v", pscan.Kind)
	}
	if cscan.Kind != RowKeyRange {
		t.Fatalf("expected RowKeyRange (year alone is a valid row-key prefix), got %v", cscan.Kind)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "partition scan: single") {
		t.Errorf("expected partition scan line, got: %s", joined)
	}
	if !strings.Contains(joined, "chunk scan: row_key_range") {
		t.Errorf("expected chunk scan line, got: %s", joined)
	}
}

func TestExplainPlanSurfacesDegradationDiagnostic(t *testing.T) {
	proj := gdeltProjection(t, []string{"actor1Code", "actor2Code"}, nil)
	filters := []Filter{
		{Column: "actor1Code", Op: In, Values: []any{"USA", "RUS"}},
		{Column: "actor2Code", Op: In, Values: []any{"a", "b", "c"}},
	}

	_, _, lines, err := ExplainPlan(proj, filters, 4)
	if err != nil {
		t.Fatalf("ExplainPlan: %v", err)
	}

	found := false
	for _, l := range lines {
		if strings.Contains(l, "combination count exceeds limit") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a degradation diagnostic line, got: %v", lines)
	}
}
