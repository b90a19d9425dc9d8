package transfer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/godoo/godoo-rpc/internal/objstore"
	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// SNAPSHOTS
// Source records are archived to object storage before a transfer writes
// anything, so a bad run can be audited against what the source held.
// =============================================================================

// Snapshotter archives source records to an object store.
type Snapshotter struct {
	Store  objstore.Store
	Bucket string
	Prefix string
	Log    *zap.Logger

	runID string
	now   func() time.Time
}

// NewSnapshotter builds a snapshotter writing under bucket/prefix. One run
// id covers all snapshots of the same runner.
func NewSnapshotter(store objstore.Store, bucket, prefix string, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshotter{
		Store:  store,
		Bucket: bucket,
		Prefix: prefix,
		Log:    logger,
		runID:  uuid.New().String(),
		now:    time.Now,
	}
}

// Snapshot reads the records and writes one Parquet part per model under
// prefix/model/dt=<date>/run=<id>/. Falls back to gzipped JSONL when the
// Parquet encode fails.
func (s *Snapshotter) Snapshot(ctx context.Context, source *odoo.Client, model string, ids []int64) error {
	if err := s.Store.EnsureBucket(ctx, s.Bucket); err != nil {
		return err
	}

	records, err := source.Model(model).Read(ctx, ids, nil)
	if err != nil {
		return fmt.Errorf("read %s for snapshot: %w", model, err)
	}
	if len(records) == 0 {
		return nil
	}

	fields := snapshotFields(records)
	rows := make([]map[string]any, len(records))
	for i, record := range records {
		row := make(map[string]any, len(fields))
		for _, field := range fields {
			row[field] = snapshotCell(record[field])
		}
		rows[i] = row
	}

	keyBase := objstore.JoinKey(
		s.Prefix,
		model,
		fmt.Sprintf("dt=%s", s.now().UTC().Format("2006-01-02")),
		fmt.Sprintf("run=%s", s.runID),
	)

	data, err := encodeParquet(fields, rows)
	key := keyBase + "/part-000000.parquet"
	if err != nil {
		s.Log.Warn("parquet snapshot failed, falling back to jsonl",
			zap.String("model", model), zap.Error(err))
		data, err = encodeJSONLGz(rows)
		if err != nil {
			return fmt.Errorf("encode snapshot for %s: %w", model, err)
		}
		key = keyBase + "/part-000000.jsonl.gz"
	}

	if err := s.Store.PutObject(ctx, s.Bucket, key, data); err != nil {
		return err
	}
	s.Log.Info("wrote snapshot",
		zap.String("model", model),
		zap.Int("records", len(rows)),
		zap.String("key", key))
	return nil
}

// snapshotFields is the sorted union of record keys.
func snapshotFields(records []map[string]any) []string {
	seen := map[string]bool{}
	for _, record := range records {
		for field := range record {
			seen[field] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// snapshotCell renders any read value as a string pointer; nil stays a
// Parquet null.
func snapshotCell(value any) *string {
	if value == nil {
		return nil
	}
	if b, ok := value.(bool); ok && !b {
		return nil // Odoo's false means unset
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(raw)
		}
	}
	return &s
}

func encodeParquet(fields []string, rows []map[string]any) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(snapshotSchema(fields), pfw, 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
		if err := pw.Write(string(raw)); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	_ = pfw.Close()
	return buf.Bytes(), nil
}

func snapshotSchema(fields []string) string {
	specs := make([]map[string]string, 0, len(fields))
	for _, field := range fields {
		specs = append(specs, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", field),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": specs,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func encodeJSONLGz(rows []map[string]any) ([]byte, error) {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	enc := json.NewEncoder(gz)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
