// Package input turns the configured input source (spec §4.12 point 2:
// "Creates input via Input loader per config (file|blob, csv|json|text)")
// into Document rows with stable, content-hashed ids, so re-ingesting the
// same file twice produces the same id rather than a duplicate row.
// Concrete blob/file I/O backends are explicitly out of scope for the core
// per spec.md §1; this package only covers the local-filesystem "file"
// case needed to drive an end-to-end run from cmd/graphrag.
package input

import (
	"crypto/sha512"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
)

// jsonRow is the shape expected of each element of a ".json" input file
// (the format is chosen by file extension).
type jsonRow struct {
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Load reads every file matching cfg.FilePattern beneath cfg.BasePath and
// converts it into Document rows. Row text is hashed into the document id
// (sha512, matching the chunker's textUnitID convention) so loading the
// same file content twice is idempotent at the table level.
func Load(cfg config.InputConfig) ([]types.Document, error) {
	if cfg.Type != "" && cfg.Type != "file" {
		return nil, pipelineerr.New(pipelineerr.ConfigError, "unsupported input type (only \"file\" is implemented)", map[string]any{"type": cfg.Type})
	}

	pattern := cfg.FilePattern
	if pattern == "" {
		pattern = "*"
	}

	var paths []string
	err := filepath.WalkDir(cfg.BasePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.InputError, "walking input base path", err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, pipelineerr.New(pipelineerr.InputError, "no input files matched", map[string]any{"base_path": cfg.BasePath, "pattern": pattern})
	}

	var docs []types.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.InputError, "reading input file", err)
		}

		rows, err := parseFile(path, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, rows...)
	}
	for i := range docs {
		docs[i].HumanReadableID = int64(i)
	}
	return docs, nil
}

func parseFile(path string, data []byte) ([]types.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(path, data)
	case ".csv":
		return parseCSV(path, data)
	default:
		return []types.Document{newDocument(filepath.Base(path), string(data), nil)}, nil
	}
}

func parseJSON(path string, data []byte) ([]types.Document, error) {
	var rows []jsonRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ParseFailed, "parsing json input file "+path, err)
	}
	docs := make([]types.Document, 0, len(rows))
	for _, row := range rows {
		title := row.Title
		if title == "" {
			title = filepath.Base(path)
		}
		docs = append(docs, newDocument(title, row.Text, row.Metadata))
	}
	return docs, nil
}

func parseCSV(path string, data []byte) ([]types.Document, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ParseFailed, "parsing csv input file "+path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	textCol, titleCol := -1, -1
	for i, col := range header {
		switch col {
		case "text":
			textCol = i
		case "title":
			titleCol = i
		}
	}
	if textCol < 0 {
		return nil, pipelineerr.New(pipelineerr.InputError, "csv input file has no \"text\" column", map[string]any{"path": path})
	}

	docs := make([]types.Document, 0, len(records)-1)
	for _, row := range records[1:] {
		title := filepath.Base(path)
		if titleCol >= 0 && titleCol < len(row) {
			title = row[titleCol]
		}
		docs = append(docs, newDocument(title, row[textCol], nil))
	}
	return docs, nil
}

func newDocument(title, text string, metadata map[string]string) types.Document {
	h := sha512.Sum512([]byte(text))
	return types.Document{
		ID:       hex.EncodeToString(h[:]),
		Title:    title,
		Type:     "text",
		Text:     text,
		Metadata: metadata,
	}
}
