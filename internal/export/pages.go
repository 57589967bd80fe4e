package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"orderview/internal/model"
)

// Page is one captured page of the order-list API.
type Page struct {
	Number int
	Rows   []model.RawOrder
}

// ReadPages reads a merged page file: [{page, response:{code, data:{rowList}}}].
func ReadPages(file string) ([]Page, []string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", file)
	}
	pages, skipped, err := ParsePages(data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse %s", file)
	}
	return pages, skipped, nil
}

// ParsePages extracts the pages of a merged page file. Pages without a numeric
// page number, with a non-integer or failure code or without a rowList are skipped and
// described in the returned notes.
func ParsePages(data []byte) ([]Page, []string, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrap(err, "invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, nil, errors.New("merged page file must contain a JSON array")
	}
	var (
		pages   []Page
		skipped []string
	)
	for i, p := range doc.Array() {
		page, reason := parsePage(p)
		if reason != "" {
			skipped = append(skipped, fmt.Sprintf("entry %d: %s", i, reason))
			continue
		}
		pages = append(pages, page)
	}
	return pages, skipped, nil
}

func parsePage(p gjson.Result) (Page, string) {
	if !p.IsObject() {
		return Page{}, "not an object"
	}
	num := p.Get("page")
	if num.Type != gjson.Number {
		return Page{}, "no page number"
	}
	if code := p.Get("response.code"); code.Exists() && code.Type != gjson.Null {
		if code.Type != gjson.Number || code.Float() != float64(code.Int()) {
			return Page{}, fmt.Sprintf("page %d has non-integer code %s", num.Int(), code.Raw)
		}
		if code.Int() != 0 {
			return Page{}, fmt.Sprintf("page %d reports failure code %d", num.Int(), code.Int())
		}
	}
	list := p.Get("response.data.rowList")
	if !list.IsArray() {
		return Page{}, fmt.Sprintf("page %d has no rowList", num.Int())
	}
	page := Page{Number: int(num.Int())}
	for _, row := range list.Array() {
		page.Rows = append(page.Rows, model.RawOrder(row.Raw))
	}
	return page, ""
}
