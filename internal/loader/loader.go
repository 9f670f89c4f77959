package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"ppdmloader/internal/dbclient"
	"ppdmloader/internal/domain"
	"ppdmloader/internal/etl"
	_ "ppdmloader/internal/etl/sources"
	"ppdmloader/internal/fetch"
	"ppdmloader/internal/wells"
)

// DefaultFormat is the etl source type used when a dataset names none.
const DefaultFormat = "dbf_archive"

// Config describes one loader run.
type Config struct {
	Surface         fetch.Dataset
	BottomHole      fetch.Dataset
	WellTable       string
	FallbackLength  int
	ReferenceTables []domain.ReferenceTable
}

// ConnectFunc opens the destination store. The loader closes what it returns.
type ConnectFunc func(ctx context.Context) (dbclient.Connector, error)

// Result is what a run read, reconciled and wrote.
type Result struct {
	Stats   domain.RunStats `json:"stats"`
	Sources []string        `json:"sources"`
	Limits  wells.Limits    `json:"limits"`
}

// SchemaReport is the outcome of resolving the well table's column lengths.
type SchemaReport struct {
	Table   string         `json:"table"`
	Lengths map[string]int `json:"lengths"`
	Limits  wells.Limits   `json:"limits"`
	// Missing lists required columns that fell back to the default length.
	Missing []string `json:"missing,omitempty"`
}

// Loader runs the pipeline: resolve limits, fetch both datasets, normalize,
// reconcile, derive reference values, then persist.
type Loader struct {
	cfg     Config
	fetcher *fetch.Fetcher
	connect ConnectFunc
	engine  *etl.Engine
	logger  *zap.Logger
}

// New creates a Loader.
func New(cfg Config, fetcher *fetch.Fetcher, connect ConnectFunc, logger *zap.Logger) *Loader {
	if cfg.WellTable == "" {
		cfg.WellTable = "WELL"
	}
	if len(cfg.ReferenceTables) == 0 {
		cfg.ReferenceTables = domain.DefaultReferenceTables()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		cfg:     cfg,
		fetcher: fetcher,
		connect: connect,
		engine:  &etl.Engine{},
		logger:  logger.Named("loader"),
	}
}

// Run executes one full load. On failure the partial result is returned
// alongside an error wrapping ErrSourceUnavailable or ErrPersistence.
// Rows written before a failure stay written.
func (l *Loader) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{Stats: domain.RunStats{Inserted: map[string]int{}}}

	conn, err := l.connect(ctx)
	if err != nil {
		return res, persistenceError("connect", err)
	}
	defer conn.Close()

	report := l.resolveSchema(ctx, conn)
	res.Limits = report.Limits

	// ── Extract ──
	surfacePath, surfaceRows, err := l.extract(ctx, l.cfg.Surface, wells.SurfaceFields,
		&etl.RequireTransform{Field: wells.FieldAPI},
		etl.NewDedupeTransform(wells.FieldAPI))
	if err != nil {
		return res, err
	}
	res.Sources = append(res.Sources, surfacePath)

	bottomPath, bottomRows, err := l.extract(ctx, l.cfg.BottomHole, wells.BottomHoleFields,
		&etl.RequireTransform{Field: wells.FieldAPI})
	if err != nil {
		return res, err
	}
	res.Sources = append(res.Sources, bottomPath)

	// ── Normalize ──
	surface := make([]domain.SurfaceLocation, len(surfaceRows.Records))
	for i, rec := range surfaceRows.Records {
		surface[i] = wells.SurfaceFromRecord(rec, report.Limits)
	}
	bottomHole := make([]domain.BottomHoleLocation, len(bottomRows.Records))
	for i, rec := range bottomRows.Records {
		bottomHole[i] = wells.BottomHoleFromRecord(rec, report.Limits)
	}
	res.Stats.SurfaceRead = surfaceRows.RowsRead
	res.Stats.BottomHoleRead = bottomRows.RowsRead

	// ── Reconcile ──
	rec := wells.Reconcile(surface, bottomHole, report.Limits)
	for _, uwi := range rec.Orphans {
		l.logger.Debug("bottom-hole location matches no surface well", zap.String("uwi", uwi))
	}
	res.Stats.WellsReconciled = len(rec.Wells)
	res.Stats.BottomHoleMerged = rec.Merged
	res.Stats.SidetracksInferred = rec.Sidetracks
	res.Stats.OrphansDropped = len(rec.Orphans)

	l.logger.Info("datasets reconciled",
		zap.Int("surface", len(surface)),
		zap.Int("bottomHole", len(bottomHole)),
		zap.Int("wells", len(rec.Wells)),
		zap.Int("merged", rec.Merged),
		zap.Int("sidetracks", rec.Sidetracks),
		zap.Int("orphans", len(rec.Orphans)))

	// ── Derive ──
	substituted := wells.SubstituteUnknown(rec.Wells, report.Limits)
	refs := wells.DeriveReferences(rec.Wells, l.cfg.ReferenceTables)
	l.logger.Debug("reference values derived", zap.Int("unknownSubstituted", substituted))

	// ── Persist ──
	if err := l.persist(ctx, conn, refs, rec.Wells, &res.Stats); err != nil {
		return res, err
	}

	l.logger.Info("load complete",
		zap.Any("inserted", res.Stats.Inserted),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// ResolveSchema reports the column lengths the next run would apply.
func (l *Loader) ResolveSchema(ctx context.Context) (*SchemaReport, error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return nil, persistenceError("connect", err)
	}
	defer conn.Close()
	return l.resolveSchema(ctx, conn), nil
}

// resolveSchema never fails: an unreadable table yields fallback limits.
func (l *Loader) resolveSchema(ctx context.Context, conn dbclient.Connector) *SchemaReport {
	lengths, err := conn.ColumnLengths(ctx, l.cfg.WellTable)
	if err != nil {
		l.logger.Warn("column metadata unavailable, using fallback lengths",
			zap.String("table", l.cfg.WellTable), zap.Error(err))
		lengths = map[string]int{}
	}

	fallback := l.cfg.FallbackLength
	if fallback <= 0 {
		fallback = wells.DefaultFallbackLength
	}
	lim, missing := wells.ResolveLimits(lengths, fallback)
	for _, col := range missing {
		l.logger.Warn("column length not reported, using fallback",
			zap.String("table", l.cfg.WellTable),
			zap.String("column", col),
			zap.Int("fallback", fallback))
	}
	return &SchemaReport{Table: l.cfg.WellTable, Lengths: lengths, Limits: lim, Missing: missing}
}

// Preview returns the first maxRows records of a dataset without persisting.
// dataset is the configured name of the surface or bottom-hole dataset.
func (l *Loader) Preview(ctx context.Context, dataset string, maxRows int) ([]etl.Record, *etl.Schema, error) {
	var ds fetch.Dataset
	switch dataset {
	case l.cfg.Surface.Name:
		ds = l.cfg.Surface
	case l.cfg.BottomHole.Name:
		ds = l.cfg.BottomHole
	default:
		return nil, nil, fmt.Errorf("%w %q: want %s or %s",
			ErrUnknownDataset, dataset, l.cfg.Surface.Name, l.cfg.BottomHole.Name)
	}
	path, err := l.fetcher.Fetch(ctx, ds)
	if err != nil {
		return nil, nil, sourceError(ds.Name, err)
	}
	records, schema, err := l.engine.Preview(ctx, formatOf(ds), ds.SourceConfig(path), maxRows)
	if err != nil {
		return records, schema, sourceError(ds.Name, err)
	}
	return records, schema, nil
}

// extract reads a dataset, renames configured columns, keeps only fields
// and then applies ts.
func (l *Loader) extract(ctx context.Context, ds fetch.Dataset, fields []string, ts ...etl.Transformer) (string, *etl.Extraction, error) {
	path, err := l.fetcher.Fetch(ctx, ds)
	if err != nil {
		return "", nil, sourceError(ds.Name, err)
	}
	var chain []etl.Transformer
	if len(ds.Columns) > 0 {
		chain = append(chain, &etl.RenameTransform{Mapping: ds.Columns})
	}
	chain = append(chain, &etl.SelectTransform{Fields: fields})
	chain = append(chain, ts...)

	ex, err := l.engine.Extract(ctx, formatOf(ds), ds.SourceConfig(path), chain)
	if err != nil {
		return path, nil, sourceError(ds.Name, err)
	}
	l.logger.Info("dataset read",
		zap.String("dataset", ds.Name),
		zap.String("path", path),
		zap.Int("rows", ex.RowsRead),
		zap.Int("kept", len(ex.Records)))
	return path, ex, nil
}

// persist writes every reference table before the well table.
func (l *Loader) persist(ctx context.Context, conn dbclient.Connector, refs []wells.ReferenceSet, ws []domain.Well, stats *domain.RunStats) error {
	for _, set := range refs {
		b := referenceBatch(set)
		n, err := conn.InsertIfAbsent(ctx, b)
		if err != nil {
			return persistenceError(b.Table, err)
		}
		stats.Inserted[b.Table] += n
		l.logger.Info("reference table written",
			zap.String("table", b.Table), zap.Int("values", len(b.Rows)), zap.Int("inserted", n))
	}

	b := wellBatch(l.cfg.WellTable, ws)
	n, err := conn.InsertIfAbsent(ctx, b)
	if err != nil {
		return persistenceError(b.Table, err)
	}
	stats.Inserted[b.Table] += n
	l.logger.Info("well table written",
		zap.String("table", b.Table), zap.Int("wells", len(b.Rows)), zap.Int("inserted", n))
	return nil
}

// referenceBatch lays out discriminator columns first, in name order,
// then the key and value columns.
func referenceBatch(set wells.ReferenceSet) dbclient.Batch {
	t := set.Table
	discriminators := make([]string, 0, len(t.Discriminators))
	for col := range t.Discriminators {
		discriminators = append(discriminators, col)
	}
	sort.Strings(discriminators)

	columns := append(discriminators, t.KeyAttribute)
	withValue := t.ValueAttribute != "" && t.ValueAttribute != t.KeyAttribute
	if withValue {
		columns = append(columns, t.ValueAttribute)
	}

	b := dbclient.Batch{Table: t.Table, Key: t.KeyAttribute, Columns: columns}
	for _, v := range set.Values {
		row := make([]any, 0, len(columns))
		for _, col := range discriminators {
			row = append(row, t.Discriminators[col])
		}
		row = append(row, v.Key)
		if withValue {
			row = append(row, v.Value)
		}
		b.Rows = append(b.Rows, row)
	}
	return b
}

func wellBatch(table string, ws []domain.Well) dbclient.Batch {
	b := dbclient.Batch{Table: table, Key: domain.ColUWI, Columns: domain.WellColumns}
	b.Rows = make([][]any, len(ws))
	for i := range ws {
		b.Rows[i] = ws[i].Values()
	}
	return b
}

func formatOf(ds fetch.Dataset) string {
	if ds.Format == "" {
		return DefaultFormat
	}
	return ds.Format
}
