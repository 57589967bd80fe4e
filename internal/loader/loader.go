package loader

import (
	"encoding/json"
	"io"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"orderview/internal/model"
	"orderview/internal/paging"
)

// MaxUploadSize is the largest accepted upload, 16 MiB.
const MaxUploadSize int64 = 16 << 20

// Dataset is the outcome of one successful load.
type Dataset struct {
	// Source describes where the records came from, e.g. "export:orders.json".
	Source   string
	Schema   *model.Schema
	Records  []model.OrderRecord
	Warnings []model.RowWarning
}

// Mode is the pagination mode the dataset's source calls for.
func (d Dataset) Mode() paging.Mode {
	if d.Schema == nil {
		return paging.FixedSize
	}
	return d.Schema.Mode
}

// Upload describes a user-supplied payload file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReadExport reads and normalizes a pre-generated export file.
func ReadExport(file string) (Dataset, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Dataset{}, newError(KindLoad, err, "cannot read export file %s", file)
	}
	ds, err := ParseExport(data)
	if err != nil {
		return Dataset{}, err
	}
	ds.Source = "export:" + file
	return ds, nil
}

// ParseExport normalizes an export document: a JSON array of {page, orderInfo, products}.
// An empty array is a valid, empty dataset.
func ParseExport(data []byte) (Dataset, error) {
	doc, err := parse(data)
	if err != nil {
		return Dataset{}, err
	}
	if !doc.IsArray() {
		return Dataset{}, newError(KindSchema, nil, "export file must contain a JSON array of orders")
	}
	return normalize(rows(doc), model.ExportSchema, "export")
}

// ReadUpload validates an upload before reading it, then parses it as an API payload.
func ReadUpload(u Upload) (Dataset, error) {
	if err := ValidateUpload(u.Name, u.ContentType, u.Size); err != nil {
		return Dataset{}, err
	}
	data, err := io.ReadAll(io.LimitReader(u.Body, MaxUploadSize+1))
	if err != nil {
		return Dataset{}, newError(KindLoad, err, "cannot read uploaded file %s", u.Name)
	}
	// the declared size is client-supplied
	if int64(len(data)) > MaxUploadSize {
		return Dataset{}, tooLarge(int64(len(data)))
	}
	ds, err := ParsePayload(data)
	if err != nil {
		return Dataset{}, err
	}
	ds.Source = "upload:" + u.Name
	return ds, nil
}

// ParsePayload normalizes an order-list API response {code, data:{rowList}}.
// The response must report code 0 and carry at least one row.
func ParsePayload(data []byte) (Dataset, error) {
	doc, err := parse(data)
	if err != nil {
		return Dataset{}, err
	}
	if !doc.IsObject() {
		return Dataset{}, newError(KindSchema, nil, "payload must be a JSON object with code and data.rowList")
	}
	if err := checkCode(doc); err != nil {
		return Dataset{}, err
	}
	list := doc.Get("data.rowList")
	if !list.IsArray() {
		return Dataset{}, newError(KindSchema, nil, "payload has no data.rowList array")
	}
	rs := rows(list)
	if len(rs) == 0 {
		return Dataset{}, newError(KindSchema, nil, "payload data.rowList is empty")
	}
	return normalize(rs, model.APISchema, "upload")
}

// ValidateUpload rejects files over MaxUploadSize and files that are neither
// JSON/plain text by media type nor named *.json, *.txt or without extension.
func ValidateUpload(name, contentType string, size int64) error {
	if size > MaxUploadSize {
		return tooLarge(size)
	}
	if allowedMediaType(contentType) || allowedExtension(name) {
		return nil
	}
	return newError(KindValidation, nil, "unsupported file type %q (%s): upload a .json or .txt file", name, contentType)
}

func tooLarge(size int64) *Error {
	return newError(KindValidation, nil, "file is %.1f MiB, larger than the %d MiB limit",
		float64(size)/(1<<20), MaxUploadSize>>20)
}

func allowedMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || mt == "text/plain"
}

func allowedExtension(name string) bool {
	switch strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(name, `\`, "/")))) {
	case "", ".json", ".txt":
		return true
	}
	return false
}

func parse(data []byte) (gjson.Result, error) {
	// encoding/json reports where the syntax breaks; gjson does not.
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return gjson.Result{}, newError(KindParse, err, "invalid JSON")
	}
	return gjson.ParseBytes(data), nil
}

func checkCode(doc gjson.Result) error {
	code := doc.Get("code")
	if !code.Exists() || code.Type == gjson.Null {
		return newError(KindSchema, nil, "payload has no response code")
	}
	if code.Type != gjson.Number || code.Float() != float64(code.Int()) {
		return newError(KindSchema, nil, "payload response code %s is not an integer", code.Raw)
	}
	if c := code.Int(); c != 0 {
		if msg := doc.Get("message").String(); msg != "" {
			return newError(KindSchema, nil, "payload reports failure code %d: %s", c, msg)
		}
		return newError(KindSchema, nil, "payload reports failure code %d", c)
	}
	return nil
}

func rows(list gjson.Result) []model.RawOrder {
	var out []model.RawOrder
	list.ForEach(func(_, v gjson.Result) bool {
		out = append(out, model.RawOrder(v.Raw))
		return true
	})
	return out
}

func normalize(rs []model.RawOrder, s *model.Schema, source string) (Dataset, error) {
	records, warnings := model.NormalizeAll(rs, s)
	if len(rs) > 0 && len(records) == 0 {
		return Dataset{}, newError(KindSchema, errors.Wrapf(ErrNoValidOrders, "%d rows skipped", len(warnings)),
			"no valid orders in %s", source)
	}
	return Dataset{Source: source, Schema: s, Records: records, Warnings: warnings}, nil
}
