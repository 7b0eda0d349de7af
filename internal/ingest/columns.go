package ingest

import (
	"math"
	"strconv"
	"strings"

	"card-catalog/internal/catalog"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/common/validation"
)

// ManaBox export column headers.
const (
	ColBinderName            = "Binder Name"
	ColBinderType            = "Binder Type"
	ColName                  = "Name"
	ColSetCode               = "Set code"
	ColSetName               = "Set name"
	ColCollectorNumber       = "Collector number"
	ColFoil                  = "Foil"
	ColRarity                = "Rarity"
	ColQuantity              = "Quantity"
	ColManaboxID             = "ManaBox ID"
	ColScryfallID            = "Scryfall ID"
	ColPurchasePrice         = "Purchase price"
	ColMisprint              = "Misprint"
	ColAltered               = "Altered"
	ColCondition             = "Condition"
	ColLanguage              = "Language"
	ColPurchasePriceCurrency = "Purchase price currency"
)

// header maps column names to their position in a record.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, col := range cols {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if _, dup := h[col]; !dup {
			h[col] = i
		}
	}
	return h
}

// row is one CSV record bound to its header and source line.
type row struct {
	h      header
	fields []string
	line   int
	log    logging.Logger
}

func (r row) get(col string) string {
	i, ok := r.h[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) warnUnparsable(col, value string, err error) {
	r.log.Warn("Ignoring unparsable cell",
		logging.Int("line", r.line),
		logging.String("column", col),
		logging.String("value", value),
		logging.Err(err),
	)
}

func (r row) intField(col string) *int {
	v := r.get(col)
	if v == "" {
		return nil
	}
	n, err := parseWholeNumber(v)
	if err != nil || n != int64(int(n)) {
		r.warnUnparsable(col, v, err)
		return nil
	}
	i := int(n)
	return &i
}

func (r row) int64Field(col string) *int64 {
	v := r.get(col)
	if v == "" {
		return nil
	}
	n, err := parseWholeNumber(v)
	if err != nil {
		r.warnUnparsable(col, v, err)
		return nil
	}
	return &n
}

// parseWholeNumber accepts integers and whole floats. Spreadsheet round trips
// turn 3 into 3.0.
func parseWholeNumber(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(v, 64)
	if ferr != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, err
	}
	return int64(f), nil
}

func (r row) floatField(col string) *float64 {
	v := r.get(col)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.warnUnparsable(col, v, err)
		return nil
	}
	return &f
}

func (r row) boolField(col string) *bool {
	v := r.get(col)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.warnUnparsable(col, v, err)
		return nil
	}
	return &b
}

// card maps the row to a catalog card. It reports false when the row has no
// usable card name and must be skipped.
func (r row) card() (catalog.Card, bool) {
	name := r.get(ColName)
	if name == "" || name == validation.UnknownCardName {
		return catalog.Card{}, false
	}

	return catalog.Card{
		BinderName:            r.get(ColBinderName),
		BinderType:            r.get(ColBinderType),
		Name:                  name,
		SetCode:               r.get(ColSetCode),
		SetName:               r.get(ColSetName),
		CollectorNumber:       r.get(ColCollectorNumber),
		Foil:                  r.get(ColFoil),
		Rarity:                r.get(ColRarity),
		Quantity:              r.intField(ColQuantity),
		ManaboxID:             r.int64Field(ColManaboxID),
		ScryfallID:            r.get(ColScryfallID),
		PurchasePrice:         r.floatField(ColPurchasePrice),
		Misprint:              r.boolField(ColMisprint),
		Altered:               r.boolField(ColAltered),
		Condition:             r.get(ColCondition),
		Language:              r.get(ColLanguage),
		PurchasePriceCurrency: r.get(ColPurchasePriceCurrency),
	}, true
}
