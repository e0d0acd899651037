// Package mappings handles bulk import and export of merchant/category/bucket
// rules. Import is row-level fault-tolerant: malformed rows are counted and
// skipped, valid rows are applied.
package mappings

import (
	"encoding/csv"
	"fmt"
	"strings"

	"pennyflow/internal/core"
)

// ImportResult reports what a CSV import did.
type ImportResult struct {
	ImportedRows       int `json:"importedRows"`
	ImportedMerchants  int `json:"importedMerchants"`
	ImportedCategories int `json:"importedCategories"`
	SkippedRows        int `json:"skippedRows"`
}

// ParsedMappings is the outcome of parsing a mapping CSV: merchant rules plus
// any categories the rows introduced that the owner's table lacks.
type ParsedMappings struct {
	Rules      []core.MerchantRule
	Categories []core.Category
	Result     ImportResult
}

// header aliases, all compared after normalization
var (
	merchantHeaders = []string{"merchant", "merchant name", "merchant key", "name"}
	categoryHeaders = []string{"category", "category label", "category name"}
	typeHeaders     = []string{"type", "category type", "categorytype"}
	bucketHeaders   = []string{"bucket", "category bucket"}
)

// ParseCSV reads a mapping CSV. The header row may contain any of
// Merchant/Type/Category/Bucket (case-insensitive, alternate names tolerated)
// in any order; the delimiter is sniffed between comma and semicolon. Rows
// without a merchant key are skipped, not fatal.
func ParseCSV(ownerID, csvText string, existing []core.Category) (ParsedMappings, error) {
	var out ParsedMappings

	csvText = strings.TrimSpace(csvText)
	if csvText == "" {
		return out, core.NewFieldError("csv", fmt.Errorf("empty input"))
	}

	reader := csv.NewReader(strings.NewReader(csvText))
	reader.Comma = sniffDelimiter(csvText)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return out, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return out, nil // header-only or empty
	}

	cols := mapColumns(records[0])
	if cols.merchant < 0 {
		return out, core.NewFieldError("csv", fmt.Errorf("no merchant column in header"))
	}

	known := make(map[string]core.Category, len(existing))
	for _, c := range existing {
		known[c.Key] = c
	}
	seenRules := make(map[string]int)
	newCategories := make(map[string]core.Category)

	for _, record := range records[1:] {
		merchantRaw := field(record, cols.merchant)
		merchantKey := core.NormalizeMerchant(merchantRaw)
		if merchantKey == "" {
			out.Result.SkippedRows++
			continue
		}

		label := field(record, cols.category)
		bucket := core.ParseBucket(firstNonEmpty(field(record, cols.bucket), field(record, cols.ctype)))

		categoryKey := keyFromLabel(label)
		if categoryKey == "" {
			categoryKey = core.UnknownCategoryKey
		}

		if cat, ok := known[categoryKey]; ok {
			if label == "" {
				label = cat.Label
			}
			if bucket == core.BucketUnassigned {
				bucket = cat.Bucket
			}
		} else if _, pending := newCategories[categoryKey]; !pending && categoryKey != core.UnknownCategoryKey {
			catBucket := bucket
			if catBucket == core.BucketUnassigned {
				catBucket = core.BucketUnknown
			}
			newCategories[categoryKey] = core.Category{
				Key:    categoryKey,
				Label:  firstNonEmpty(label, categoryKey),
				Bucket: catBucket,
			}
		}
		if bucket == core.BucketUnassigned {
			bucket = core.BucketUnknown
		}

		rule := core.MerchantRule{
			OwnerID:       ownerID,
			MerchantKey:   merchantKey,
			CategoryKey:   categoryKey,
			CategoryLabel: firstNonEmpty(label, categoryKey),
			CategoryType:  bucket,
		}
		// Later rows overwrite earlier ones for the same merchant.
		if i, ok := seenRules[merchantKey]; ok {
			out.Rules[i] = rule
		} else {
			seenRules[merchantKey] = len(out.Rules)
			out.Rules = append(out.Rules, rule)
		}
		out.Result.ImportedRows++
	}

	for _, cat := range newCategories {
		out.Categories = append(out.Categories, cat)
	}
	out.Result.ImportedMerchants = len(out.Rules)
	out.Result.ImportedCategories = len(out.Categories)
	return out, nil
}

type columns struct {
	merchant, category, ctype, bucket int
}

func mapColumns(header []string) columns {
	cols := columns{merchant: -1, category: -1, ctype: -1, bucket: -1}
	for i, raw := range header {
		h := normalizeHeader(raw)
		switch {
		case cols.merchant < 0 && matches(h, merchantHeaders):
			cols.merchant = i
		case cols.category < 0 && matches(h, categoryHeaders):
			cols.category = i
		case cols.ctype < 0 && matches(h, typeHeaders):
			cols.ctype = i
		case cols.bucket < 0 && matches(h, bucketHeaders):
			cols.bucket = i
		}
	}
	return cols
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " ")
}

func matches(h string, aliases []string) bool {
	for _, a := range aliases {
		if h == a {
			return true
		}
	}
	return false
}

func sniffDelimiter(csvText string) rune {
	firstLine := csvText
	if i := strings.IndexByte(csvText, '\n'); i >= 0 {
		firstLine = csvText[:i]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// keyFromLabel derives a stable category key from a display label:
// "Eating Out" -> "eating_out".
func keyFromLabel(label string) string {
	normalized := core.NormalizeMerchant(label)
	return strings.ReplaceAll(normalized, " ", "_")
}
