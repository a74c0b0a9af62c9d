package catalog

import "testing"

func testSchema() FieldSchema {
	return FieldSchema{Sections: []Section{{
		Key: "chemistry", Label: "Chemistry",
		Fields: []Field{
			{Key: "glucose", Label: "Glucose", Type: FieldNumeric, Unit: "mg/dL", ReferenceRange: "70-100"},
			{Key: "flag", Label: "Flag", Type: FieldEnum, Options: []string{"normal", "high", "low"}},
			{Key: "comment", Label: "Comment", Type: FieldString},
		},
	}}}
}

func TestValidateResults(t *testing.T) {
	fs := testSchema()

	got, err := ValidateResults(fs, map[string]interface{}{
		"glucose": 95,
		"flag":    "high",
		"comment": "fasting",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got["glucose"] != float64(95) {
		t.Fatalf("glucose = %v (%T), want float64 95", got["glucose"], got["glucose"])
	}
	if got["flag"] != "high" || got["comment"] != "fasting" {
		t.Fatalf("unexpected normalization: %v", got)
	}
}

func TestValidateResultsCoercion(t *testing.T) {
	fs := testSchema()

	got, err := ValidateResults(fs, map[string]interface{}{"glucose": "101.5"})
	if err != nil {
		t.Fatalf("numeric string rejected: %v", err)
	}
	if got["glucose"] != 101.5 {
		t.Fatalf("glucose = %v, want 101.5", got["glucose"])
	}

	// Empty enum value is allowed.
	got, err = ValidateResults(fs, map[string]interface{}{"flag": ""})
	if err != nil {
		t.Fatalf("empty enum rejected: %v", err)
	}
	if got["flag"] != "" {
		t.Fatalf("flag = %v", got["flag"])
	}

	// Nil values are dropped.
	got, err = ValidateResults(fs, map[string]interface{}{"glucose": nil})
	if err != nil {
		t.Fatalf("nil value rejected: %v", err)
	}
	if _, present := got["glucose"]; present {
		t.Fatal("nil value kept in normalized results")
	}
}

func TestValidateResultsFailures(t *testing.T) {
	fs := testSchema()

	cases := []struct {
		name    string
		results map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"sodium": 140}},
		{"non-numeric", map[string]interface{}{"glucose": "high"}},
		{"enum outside options", map[string]interface{}{"flag": "critical"}},
		{"enum non-string", map[string]interface{}{"flag": 1}},
		{"string non-string", map[string]interface{}{"comment": 3.2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateResults(fs, tc.results); err == nil {
				t.Fatalf("accepted %v", tc.results)
			}
		})
	}
}

func TestFieldByKey(t *testing.T) {
	fs := testSchema()
	if _, ok := fs.FieldByKey("glucose"); !ok {
		t.Fatal("glucose not found")
	}
	if _, ok := fs.FieldByKey("sodium"); ok {
		t.Fatal("sodium found")
	}
}
