package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadTextFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello world")
	writeFile(t, dir, "b.txt", "second document")

	docs, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.txt"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "hello world", docs[0].Text)
	assert.NotEmpty(t, docs[0].ID)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
	assert.Equal(t, int64(0), docs[0].HumanReadableID)
	assert.Equal(t, int64(1), docs[1].HumanReadableID)
}

func TestLoadJSONRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rows.json", `[{"title":"A","text":"alpha"},{"title":"B","text":"beta"}]`)

	docs, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.json"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].Title)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, "B", docs[1].Title)
}

func TestLoadCSVRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rows.csv", "title,text\nfirst,one\nsecond,two\n")

	docs, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.csv"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Title)
	assert.Equal(t, "one", docs[0].Text)
	assert.Equal(t, "second", docs[1].Title)
	assert.Equal(t, "two", docs[1].Text)
}

func TestLoadCSVMissingTextColumnErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rows.csv", "title,body\nfirst,one\n")

	_, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.csv"})
	require.Error(t, err)
}

func TestLoadNoMatchesErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.txt"})
	require.Error(t, err)
}

func TestLoadSameContentProducesSameID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "repeated content")
	writeFile(t, dir, "sub", "")
	os.Remove(filepath.Join(dir, "sub"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub"), "b.txt", "repeated content")

	docs, err := Load(config.InputConfig{Type: "file", BasePath: dir, FilePattern: "*.txt"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, docs[0].ID, docs[1].ID)
}

func TestLoadUnsupportedTypeErrors(t *testing.T) {
	_, err := Load(config.InputConfig{Type: "blob"})
	require.Error(t, err)
}
