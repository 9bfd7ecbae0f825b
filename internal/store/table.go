package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// ParquetTables wraps a Storage with typed columnar read/write, implementing
// interfaces.TableStorage. Table names map to "<name>.parquet" keys, and
// column layout comes entirely from the `parquet` struct tags on the
// types package's record structs (spec §3).
type ParquetTables struct {
	interfaces.Storage
}

// NewParquetTables adapts an existing Storage into a TableStorage.
func NewParquetTables(s interfaces.Storage) *ParquetTables {
	return &ParquetTables{Storage: s}
}

// WriteTable encodes rows (a slice of one of the pipeline's record types)
// and writes it to "<name>.parquet" beneath the wrapped Storage. TableStorage
// is a plain interface, so its methods can't be generic; WriteTable switches
// on the concrete row type to call parquet.Write[T] with T fixed, the same
// per-type instantiation the teacher's loadParquet[T] does for reads.
func (t *ParquetTables) WriteTable(ctx context.Context, name string, rows any) error {
	var buf bytes.Buffer
	var err error
	switch r := rows.(type) {
	case []types.Document:
		err = parquet.Write(&buf, r)
	case []types.TextUnit:
		err = parquet.Write(&buf, r)
	case []types.Entity:
		err = parquet.Write(&buf, r)
	case []types.Relationship:
		err = parquet.Write(&buf, r)
	case []types.Community:
		err = parquet.Write(&buf, r)
	case []types.CommunityReport:
		err = parquet.Write(&buf, r)
	default:
		return pipelineerr.New(pipelineerr.StorageError, fmt.Sprintf("WriteTable: unsupported row type %T for table %q", rows, name), nil)
	}
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "encoding parquet table", err)
	}
	return t.Storage.Set(ctx, name+".parquet", buf.Bytes())
}

// ReadTable reads "<name>.parquet" and decodes it into out, a pointer to a
// slice of the same row type WriteTable was called with.
func (t *ParquetTables) ReadTable(ctx context.Context, name string, out any) error {
	data, err := t.Storage.Get(ctx, name+".parquet")
	if err != nil {
		return err
	}
	r := bytes.NewReader(data)
	size := int64(len(data))

	switch o := out.(type) {
	case *[]types.Document:
		*o, err = parquet.Read[types.Document](r, size)
	case *[]types.TextUnit:
		*o, err = parquet.Read[types.TextUnit](r, size)
	case *[]types.Entity:
		*o, err = parquet.Read[types.Entity](r, size)
	case *[]types.Relationship:
		*o, err = parquet.Read[types.Relationship](r, size)
	case *[]types.Community:
		*o, err = parquet.Read[types.Community](r, size)
	case *[]types.CommunityReport:
		*o, err = parquet.Read[types.CommunityReport](r, size)
	default:
		return pipelineerr.New(pipelineerr.StorageError, fmt.Sprintf("ReadTable: unsupported row type %T for table %q", out, name), nil)
	}
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "decoding parquet table", err)
	}
	return nil
}

var _ interfaces.TableStorage = (*ParquetTables)(nil)
