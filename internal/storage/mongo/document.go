package mongo

import (
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"card-catalog/internal/catalog"
)

// cardDocument is the shape cards are written in. Empty fields are left out of
// the document entirely.
type cardDocument struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	BinderName            string             `bson:"binder_name,omitempty"`
	BinderType            string             `bson:"binder_type,omitempty"`
	Name                  string             `bson:"name"`
	SetCode               string             `bson:"set_code,omitempty"`
	SetName               string             `bson:"set_name,omitempty"`
	CollectorNumber       string             `bson:"collector_number,omitempty"`
	Foil                  string             `bson:"foil,omitempty"`
	Rarity                string             `bson:"rarity,omitempty"`
	Quantity              *int               `bson:"quantity,omitempty"`
	ManaboxID             *int64             `bson:"manabox_id,omitempty"`
	ScryfallID            string             `bson:"scryfall_id,omitempty"`
	PurchasePrice         *float64           `bson:"purchase_price,omitempty"`
	Misprint              *bool              `bson:"misprint,omitempty"`
	Altered               *bool              `bson:"altered,omitempty"`
	Condition             string             `bson:"condition,omitempty"`
	Language              string             `bson:"language,omitempty"`
	PurchasePriceCurrency string             `bson:"purchase_price_currency,omitempty"`
}

func fromCard(card catalog.Card) cardDocument {
	doc := cardDocument{
		BinderName:            card.BinderName,
		BinderType:            card.BinderType,
		Name:                  card.Name,
		SetCode:               card.SetCode,
		SetName:               card.SetName,
		CollectorNumber:       card.CollectorNumber,
		Foil:                  card.Foil,
		Rarity:                card.Rarity,
		Quantity:              card.Quantity,
		ManaboxID:             card.ManaboxID,
		ScryfallID:            card.ScryfallID,
		PurchasePrice:         card.PurchasePrice,
		Misprint:              card.Misprint,
		Altered:               card.Altered,
		Condition:             card.Condition,
		Language:              card.Language,
		PurchasePriceCurrency: card.PurchasePriceCurrency,
	}
	if oid, err := primitive.ObjectIDFromHex(card.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

// cardFromRaw reads a stored card without trusting field types. Collections
// written by other loaders hold numbers in text columns and NaN for blank
// cells; those values are converted where possible and otherwise left out.
// The names of fields that could not be used are returned.
func cardFromRaw(raw bson.Raw) (catalog.Card, []string) {
	var (
		card    catalog.Card
		dropped []string
	)

	elems, err := raw.Elements()
	if err != nil {
		return card, []string{"<document>"}
	}

	for _, elem := range elems {
		key, val := elem.Key(), elem.Value()
		if isBlank(val) {
			continue
		}

		ok := true
		switch key {
		case "_id":
			card.ID, ok = idValue(val)
		case "binder_name":
			card.BinderName, ok = stringValue(val)
		case "binder_type":
			card.BinderType, ok = stringValue(val)
		case "name":
			card.Name, ok = stringValue(val)
		case "set_code":
			card.SetCode, ok = stringValue(val)
		case "set_name":
			card.SetName, ok = stringValue(val)
		case "collector_number":
			card.CollectorNumber, ok = stringValue(val)
		case "foil":
			card.Foil, ok = stringValue(val)
		case "rarity":
			card.Rarity, ok = stringValue(val)
		case "quantity":
			var n int64
			if n, ok = intValue(val); ok {
				q := int(n)
				card.Quantity = &q
			}
		case "manabox_id":
			var n int64
			if n, ok = intValue(val); ok {
				card.ManaboxID = &n
			}
		case "scryfall_id":
			card.ScryfallID, ok = stringValue(val)
		case "purchase_price":
			var f float64
			if f, ok = floatValue(val); ok {
				card.PurchasePrice = &f
			}
		case "misprint":
			var b bool
			if b, ok = boolValue(val); ok {
				card.Misprint = &b
			}
		case "altered":
			var b bool
			if b, ok = boolValue(val); ok {
				card.Altered = &b
			}
		case "condition":
			card.Condition, ok = stringValue(val)
		case "language":
			card.Language, ok = stringValue(val)
		case "purchase_price_currency":
			card.PurchasePriceCurrency, ok = stringValue(val)
		}
		if !ok {
			dropped = append(dropped, key)
		}
	}
	return card, dropped
}

// isBlank reports values that mean "no data": null, undefined and NaN.
func isBlank(val bson.RawValue) bool {
	switch val.Type {
	case bsontype.Null, bsontype.Undefined:
		return true
	case bsontype.Double:
		return math.IsNaN(val.Double())
	}
	return false
}

func idValue(val bson.RawValue) (string, bool) {
	if oid, ok := val.ObjectIDOK(); ok {
		return oid.Hex(), true
	}
	return stringValue(val)
}

func stringValue(val bson.RawValue) (string, bool) {
	switch val.Type {
	case bsontype.String:
		return val.StringValue(), true
	case bsontype.Int32:
		return strconv.FormatInt(int64(val.Int32()), 10), true
	case bsontype.Int64:
		return strconv.FormatInt(val.Int64(), 10), true
	case bsontype.Double:
		f := val.Double()
		if math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func intValue(val bson.RawValue) (int64, bool) {
	switch val.Type {
	case bsontype.Int32:
		return int64(val.Int32()), true
	case bsontype.Int64:
		return val.Int64(), true
	case bsontype.Double:
		f := val.Double()
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case bsontype.String:
		n, err := strconv.ParseInt(strings.TrimSpace(val.StringValue()), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func floatValue(val bson.RawValue) (float64, bool) {
	switch val.Type {
	case bsontype.Double:
		f := val.Double()
		return f, !math.IsInf(f, 0)
	case bsontype.Int32:
		return float64(val.Int32()), true
	case bsontype.Int64:
		return float64(val.Int64()), true
	case bsontype.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.StringValue()), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func boolValue(val bson.RawValue) (bool, bool) {
	switch val.Type {
	case bsontype.Boolean:
		return val.Boolean(), true
	case bsontype.String:
		b, err := strconv.ParseBool(strings.TrimSpace(val.StringValue()))
		return b, err == nil
	}
	return false, false
}
