package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// ManifestName is the run manifest written next to the export file.
const ManifestName = "export.manifest.json"

// Manifest describes the latest export run.
type Manifest struct {
	Output               string `json:"output"`
	Count                int    `json:"count"`
	Duplicates           int    `json:"duplicates"`
	Skipped              int    `json:"skipped"`
	LastOrderID          string `json:"lastOrderId"`
	CreatedAtEpochSecond int64  `json:"createdAt"`
}

// WriteManifest stores m as dir/ManifestName, stamping CreatedAtEpochSecond.
func WriteManifest(dir string, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	m.CreatedAtEpochSecond = time.Now().UTC().Unix()
	out, err := os.Create(filepath.Join(dir, ManifestName))
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return errors.Wrap(err, "encode")
	}
	return nil
}

func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return Manifest{}, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(err, "unmarshal manifest")
	}
	return m, nil
}
