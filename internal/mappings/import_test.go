package mappings

import (
	"strings"
	"testing"

	"pennyflow/internal/core"
)

func existingCategories() []core.Category {
	return []core.Category{
		{Key: "groceries", Label: "Groceries", Bucket: core.BucketMandatory},
		{Key: "coffee", Label: "Coffee", Bucket: core.BucketDiscretionary},
		{Key: core.UnknownCategoryKey, Label: "Unknown", Bucket: core.BucketUnknown},
	}
}

func TestParseCSVSkipsRowsWithoutMerchant(t *testing.T) {
	csvText := strings.Join([]string{
		"Merchant,Category,Type",
		"TESCO STORES,Groceries,mandatory",
		",Groceries,mandatory",
		"Costa,Coffee,discretionary",
		"Sainsburys,Groceries,mandatory",
		"***,Coffee,discretionary",
		"Aldi,Groceries,mandatory",
		"Lidl,Groceries,mandatory",
		"Waitrose,Groceries,mandatory",
		"Nero,Coffee,discretionary",
		"Pret,Coffee,discretionary",
	}, "\n")

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if out.Result.ImportedRows != 8 {
		t.Errorf("imported rows = %d, want 8", out.Result.ImportedRows)
	}
	if out.Result.SkippedRows != 2 {
		t.Errorf("skipped rows = %d, want 2", out.Result.SkippedRows)
	}
	if len(out.Rules) != 8 {
		t.Errorf("rules = %d, want 8", len(out.Rules))
	}
	if out.Result.ImportedCategories != 0 {
		t.Errorf("new categories = %d, want 0", out.Result.ImportedCategories)
	}
}

func TestParseCSVNormalizesMerchantsAndKeys(t *testing.T) {
	csvText := "Merchant,Category,Type\nTESCO   STORES--1234,Eating Out,discretionary\n"

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if len(out.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(out.Rules))
	}
	rule := out.Rules[0]
	if rule.MerchantKey != "tesco stores 1234" {
		t.Errorf("merchant key = %q", rule.MerchantKey)
	}
	if rule.CategoryKey != "eating_out" {
		t.Errorf("category key = %q, want eating_out", rule.CategoryKey)
	}
	if rule.CategoryType != core.BucketDiscretionary {
		t.Errorf("bucket = %q", rule.CategoryType)
	}
	if rule.OwnerID != "owner-1" {
		t.Errorf("owner = %q", rule.OwnerID)
	}

	// Eating Out is not in the owner's table, so the import introduces it.
	if len(out.Categories) != 1 || out.Categories[0].Key != "eating_out" {
		t.Fatalf("new categories = %+v", out.Categories)
	}
	if out.Categories[0].Bucket != core.BucketDiscretionary {
		t.Errorf("new category bucket = %q", out.Categories[0].Bucket)
	}
}

func TestParseCSVHeaderAliases(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"canonical", "Merchant,Category,Type"},
		{"alternate names", "Merchant Name,Category Label,Category Type"},
		{"underscores", "merchant_name,category_label,category_type"},
		{"bucket column", "Name,Category,Bucket"},
		{"reordered", "Type,Merchant,Category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var csvText string
			if strings.HasPrefix(tt.header, "Type") {
				csvText = tt.header + "\nmandatory,Tesco,Groceries\n"
			} else {
				csvText = tt.header + "\nTesco,Groceries,mandatory\n"
			}

			out, err := ParseCSV("owner-1", csvText, existingCategories())
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if len(out.Rules) != 1 {
				t.Fatalf("rules = %d, want 1", len(out.Rules))
			}
			rule := out.Rules[0]
			if rule.MerchantKey != "tesco" || rule.CategoryKey != "groceries" || rule.CategoryType != core.BucketMandatory {
				t.Errorf("rule = %+v", rule)
			}
		})
	}
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	csvText := "Merchant;Category;Type\nTesco;Groceries;mandatory\nCosta;Coffee;discretionary\n"

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(out.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(out.Rules))
	}
	if out.Rules[0].MerchantKey != "tesco" || out.Rules[1].MerchantKey != "costa" {
		t.Errorf("rules = %+v", out.Rules)
	}
}

func TestParseCSVByteOrderMark(t *testing.T) {
	csvText := "\ufeffMerchant,Category,Type\nTesco,Groceries,mandatory\n"

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(out.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(out.Rules))
	}
}

func TestParseCSVLaterRowWins(t *testing.T) {
	csvText := strings.Join([]string{
		"Merchant,Category,Type",
		"Tesco,Groceries,mandatory",
		"Tesco,Eating Out,discretionary",
	}, "\n")

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(out.Rules) != 1 {
		t.Fatalf("rules = %d, want 1 after dedupe", len(out.Rules))
	}
	if out.Rules[0].CategoryKey != "eating_out" {
		t.Errorf("category = %q, later row should win", out.Rules[0].CategoryKey)
	}
	// Both rows still count as imported.
	if out.Result.ImportedRows != 2 || out.Result.ImportedMerchants != 1 {
		t.Errorf("result = %+v", out.Result)
	}
}

func TestParseCSVMissingBucketFallsBackToCategoryTable(t *testing.T) {
	csvText := "Merchant,Category\nTesco,Groceries\nAcme,\n"

	out, err := ParseCSV("owner-1", csvText, existingCategories())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(out.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(out.Rules))
	}
	if out.Rules[0].CategoryType != core.BucketMandatory {
		t.Errorf("known category bucket = %q, want mandatory", out.Rules[0].CategoryType)
	}
	// No label and no bucket: the row maps to the unknown category.
	if out.Rules[1].CategoryKey != core.UnknownCategoryKey {
		t.Errorf("blank category = %q, want unknown", out.Rules[1].CategoryKey)
	}
	if out.Rules[1].CategoryType != core.BucketUnknown {
		t.Errorf("blank bucket = %q, want unknown", out.Rules[1].CategoryType)
	}
}

func TestParseCSVErrors(t *testing.T) {
	if _, err := ParseCSV("owner-1", "", nil); err == nil {
		t.Error("empty input should error")
	}
	if _, err := ParseCSV("owner-1", "Foo,Bar\nx,y\n", nil); err == nil {
		t.Error("missing merchant column should error")
	}

	out, err := ParseCSV("owner-1", "Merchant,Category,Type", nil)
	if err != nil {
		t.Fatalf("header-only input: %v", err)
	}
	if out.Result.ImportedRows != 0 {
		t.Errorf("header-only imported = %d, want 0", out.Result.ImportedRows)
	}
}

func TestKeyFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Eating Out", "eating_out"},
		{"Groceries", "groceries"},
		{"Pet/Dog", "pet_dog"},
		{"  Long   Term  Saving ", "long_term_saving"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := keyFromLabel(tt.label); got != tt.want {
			t.Errorf("keyFromLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
