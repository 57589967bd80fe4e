package model

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrNotObject is reported for rows that are not JSON objects.
var ErrNotObject = errors.New("row is not a JSON object")

// RowWarning records a row that NormalizeAll skipped.
type RowWarning struct {
	Index int
	Err   error
}

func (w RowWarning) String() string { return fmt.Sprintf("row %d: %v", w.Index, w.Err) }

// Normalize maps a raw row onto an OrderRecord using the paths in s. It never
// fails: absent, null or mistyped values fall back to the schema defaults.
func Normalize(raw RawOrder, s *Schema) OrderRecord {
	row := gjson.ParseBytes(raw)
	d := s.Defaults
	return OrderRecord{
		OrderID:        str(row, s.OrderID, ""),
		Status:         Label{Name: str(row, s.StatusName, ""), Key: str(row, s.StatusKey, "")},
		OrderType:      Label{Name: str(row, s.OrderTypeName, ""), Key: str(row, s.OrderTypeKey, "")},
		CreatedAt:      str(row, s.CreatedAt, ""),
		PaidAt:         str(row, s.PaidAt, ""),
		ExpiredAt:      str(row, s.ExpiredAt, d.ExpiredAt),
		DeliverPattern: Label{Name: str(row, s.DeliverPatternName, ""), Key: str(row, s.DeliverPatternKey, "")},
		Buyer: Party{
			ID:    str(row, s.BuyerID, ""),
			Name:  str(row, s.BuyerName, ""),
			Phone: str(row, s.BuyerPhone, ""),
		},
		Seller: Party{
			ID:    str(row, s.SellerID, ""),
			Name:  str(row, s.SellerName, ""),
			Phone: str(row, s.SellerPhone, ""),
		},
		Receiver: Receiver{
			Name:     str(row, s.ReceiverName, ""),
			Phone:    str(row, s.ReceiverPhone, ""),
			Address:  str(row, s.ReceiverAddress, ""),
			Province: str(row, s.ReceiverProvince, ""),
			City:     str(row, s.ReceiverCity, ""),
			District: str(row, s.ReceiverDistrict, ""),
		},
		Pricing: Pricing{
			OrderPrice:         num(row, s.OrderPrice),
			ExpressPrice:       num(row, s.ExpressPrice),
			PaidPrice:          num(row, s.PaidPrice),
			OriginalPrice:      num(row, s.OriginalPrice),
			AfterDiscountPrice: num(row, s.AfterDiscountPrice),
		},
		Products:         products(row, s),
		AvailableActions: actions(row, s),
		ProductNum:       str(row, s.ProductNum, d.ProductNum),
		RelatedID:        str(row, s.RelatedID, ""),
		RelatedType:      str(row, s.RelatedType, ""),
		PageGroup:        str(row, s.PageGroup, ""),
	}
}

// NormalizeAll normalizes every row, skipping (and reporting) rows that are not
// objects or whose normalization panics. Surviving rows keep their relative order.
func NormalizeAll(rows []RawOrder, s *Schema) ([]OrderRecord, []RowWarning) {
	out := make([]OrderRecord, 0, len(rows))
	var warnings []RowWarning
	for i, raw := range rows {
		rec, err := normalizeRow(raw, s)
		if err != nil {
			warnings = append(warnings, RowWarning{Index: i, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, warnings
}

func normalizeRow(raw RawOrder, s *Schema) (rec OrderRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("normalize panicked: %v", r)
		}
	}()
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return OrderRecord{}, ErrNotObject
	}
	return Normalize(raw, s), nil
}

func products(row gjson.Result, s *Schema) []ProductRecord {
	out := []ProductRecord{}
	for _, p := range objects(row, s.Products) {
		out = append(out, ProductRecord{
			ProductID:   str(p, s.ProductID, ""),
			ProductName: str(p, s.ProductName, ""),
			Description: str(p, s.ProductDescription, ""),
			ImageURL:    image(p, s),
			UnitPrice:   num(p, s.ProductUnitPrice),
			TotalPrice:  num(p, s.ProductTotalPrice),
			Amount:      integer(p, s.ProductAmount, s.Defaults.ProductAmount),
			SpecValues:  specValues(p, s),
		})
	}
	return out
}

func image(product gjson.Result, s *Schema) string {
	if u := str(product, s.ProductCover, ""); u != "" {
		return u
	}
	return str(product, s.ProductCoverAlt, "")
}

func specValues(product gjson.Result, s *Schema) []SpecValue {
	out := []SpecValue{}
	for _, v := range objects(product, s.SpecValues) {
		out = append(out, SpecValue{
			Name:       str(v, "name", ""),
			Value:      str(v, "value", ""),
			Color:      str(v, "color", ""),
			LabelColor: str(v, "labelColor", ""),
		})
	}
	return out
}

func actions(row gjson.Result, s *Schema) []Action {
	out := []Action{}
	for _, a := range objects(row, s.Actions) {
		out = append(out, Action{
			Action:     str(a, "action", ""),
			ActionName: str(a, "actionName", ""),
		})
	}
	return out
}

// objects returns the object elements of the array at path; anything else is dropped.
func objects(from gjson.Result, path string) []gjson.Result {
	if path == "" {
		return nil
	}
	v := from.Get(path)
	if !v.IsArray() {
		return nil
	}
	var out []gjson.Result
	for _, e := range v.Array() {
		if e.IsObject() {
			out = append(out, e)
		}
	}
	return out
}

func lookup(from gjson.Result, path string) (gjson.Result, bool) {
	if path == "" {
		return gjson.Result{}, false
	}
	v := from.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return v, true
}

// str accepts JSON strings and numbers; numbers keep their source text so
// timestamps and IDs survive untouched.
func str(from gjson.Result, path string, def string) string {
	v, ok := lookup(from, path)
	if !ok {
		return def
	}
	switch v.Type {
	case gjson.String, gjson.Number:
		return v.String()
	}
	return def
}

// num reads a finite number; NaN and infinities (e.g. "NaN" or 1e999) count as absent.
func num(from gjson.Result, path string) float64 {
	v, ok := lookup(from, path)
	if !ok {
		return 0
	}
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func integer(from gjson.Result, path string, def int64) int64 {
	v, ok := lookup(from, path)
	if !ok {
		return def
	}
	switch v.Type {
	case gjson.Number:
		return v.Int()
	case gjson.String:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return def
		}
		return n
	}
	return def
}
