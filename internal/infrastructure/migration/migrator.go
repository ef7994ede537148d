package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrator rewrites the legacy integer-keyed store into the UUID-keyed
// schema. The rewrite is idempotent: once the identifier columns are
// text-typed the engine short-circuits to a no-op.
//
// Steps 1-4 (snapshot, parallel table creation, row copy, foreign-key
// rewrite) are protected by the snapshot: any failure restores the
// pre-migration state. Step 5, the table swap, runs inside a single
// transaction so a partially swapped store is never observable.
type Migrator struct {
	db          *gorm.DB
	snapshotter shared.Snapshotter
	validator   *Validator
	logger      *zap.Logger
}

// Result summarizes a migration run
type Result struct {
	Migrated   bool             `json:"migrated"`
	RowCounts  map[string]int64 `json:"rowCounts"`
	Validation *Report          `json:"validation,omitempty"`
}

// NewMigrator creates a migration engine over the given store
func NewMigrator(db *gorm.DB, snapshotter shared.Snapshotter, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:          db,
		snapshotter: snapshotter,
		validator:   NewValidator(db, logger),
		logger:      logger.Named("migration"),
	}
}

// IsComplete probes the identifier column type of the entity tables.
// Integer-typed ids mean the legacy layout is still in place. A store
// without entity tables has nothing to migrate and counts as complete.
func (m *Migrator) IsComplete(ctx context.Context) (bool, error) {
	for _, spec := range tableSpecs {
		exists, err := tableExists(ctx, m.db, spec.Name)
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}

		idType, err := m.idColumnType(ctx, spec.Name)
		if err != nil {
			return false, err
		}
		if strings.Contains(strings.ToUpper(idType), "INT") {
			return false, nil
		}
	}
	return true, nil
}

// Run performs the full migration and validates the result. Calling Run
// on an already migrated store is a no-op.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	complete, err := m.IsComplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to probe migration state: %w", err)
	}
	if complete {
		m.logger.Info("Store already UUID-keyed, nothing to migrate")
		return &Result{Migrated: false}, nil
	}

	// Step 1: snapshot for full restore on any failure.
	handle, err := m.snapshotter.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store before migration: %w", err)
	}

	result, err := m.migrate(ctx)
	if err != nil {
		m.logger.Error("Migration failed, restoring snapshot", zap.Error(err))
		if restoreErr := m.snapshotter.Restore(ctx, handle); restoreErr != nil {
			return nil, fmt.Errorf("migration failed (%v) and restore failed: %w", err, restoreErr)
		}
		return nil, shared.NewDomainError("MIGRATION_STEP_FAILED", err.Error())
	}

	if err := m.snapshotter.Discard(handle); err != nil {
		m.logger.Warn("Failed to discard migration snapshot", zap.Error(err))
	}

	report, err := m.validator.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("post-migration validation failed to run: %w", err)
	}
	result.Validation = report

	m.logger.Info("Migration completed",
		zap.Bool("valid", report.Passed),
		zap.Any("row_counts", result.RowCounts),
	)
	return result, nil
}

// migrate runs steps 2-5: parallel tables, row copy with id mapping,
// foreign-key rewrite, atomic swap.
func (m *Migrator) migrate(ctx context.Context) (*Result, error) {
	db := m.db.WithContext(ctx)

	// Old-id to new-id mappings, per entity table. Discarded on return.
	idMaps := make(map[string]map[int64]string, len(tableSpecs))
	defaults := make(map[string]string, len(tableSpecs))
	counts := make(map[string]int64, len(tableSpecs))

	// Steps 2-4 per table, in dependency order so every parent mapping
	// exists before its referencing tables are copied.
	for _, spec := range tableSpecs {
		if err := m.copyTable(ctx, spec, idMaps, defaults); err != nil {
			m.dropStaging(db)
			return nil, fmt.Errorf("table %s: %w", spec.Name, err)
		}
	}

	// Record counts must survive the rewrite exactly.
	for _, spec := range tableSpecs {
		exists, err := tableExists(ctx, m.db, spec.Name)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		var oldCount, newCount int64
		if err := db.Table(spec.Name).Count(&oldCount).Error; err != nil {
			return nil, err
		}
		if err := db.Table(stagingName(spec.Name)).Count(&newCount).Error; err != nil {
			return nil, err
		}
		if oldCount != newCount {
			m.dropStaging(db)
			return nil, fmt.Errorf("table %s: row count changed during copy (%d -> %d)", spec.Name, oldCount, newCount)
		}
		counts[spec.Name] = newCount
	}

	// Step 5: atomic swap. A failure here rolls the transaction back and
	// the caller restores the snapshot.
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, spec := range tableSpecs {
			exists, err := tableExists(ctx, tx, spec.Name)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
			if err := tx.Exec(fmt.Sprintf("DROP TABLE %q", spec.Name)).Error; err != nil {
				return fmt.Errorf("failed to drop legacy table %s: %w", spec.Name, err)
			}
			if err := tx.Exec(fmt.Sprintf("ALTER TABLE %q RENAME TO %q", stagingName(spec.Name), spec.Name)).Error; err != nil {
				return fmt.Errorf("failed to swap in table %s: %w", spec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 6: mapping structures go out of scope here.
	return &Result{Migrated: true, RowCounts: counts}, nil
}

// copyTable creates the UUID-shaped staging table and copies every row,
// generating a fresh UUID per row and rewriting foreign keys through the
// parent mappings.
func (m *Migrator) copyTable(ctx context.Context, spec tableSpec, idMaps map[string]map[int64]string, defaults map[string]string) error {
	db := m.db.WithContext(ctx)
	idMaps[spec.Name] = make(map[int64]string)

	exists, err := tableExists(ctx, m.db, spec.Name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := db.Exec(m.stagingDDL(spec)).Error; err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	var rows []map[string]any
	if err := db.Table(spec.Name).Order("id ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read legacy rows: %w", err)
	}

	for _, row := range rows {
		oldID, err := asInt64(row["id"])
		if err != nil {
			return fmt.Errorf("legacy id %v: %w", row["id"], err)
		}

		newID := uuid.NewString()
		idMaps[spec.Name][oldID] = newID
		if _, ok := defaults[spec.Name]; !ok {
			defaults[spec.Name] = newID
		}

		newRow := map[string]any{
			"id":         newID,
			"created_at": row["created_at"],
			"updated_at": row["updated_at"],
		}
		// NULL payload values are left out so the staging column
		// defaults apply instead of an explicit NULL.
		for _, col := range spec.Columns {
			if value := row[col.Name]; value != nil {
				newRow[col.Name] = value
			}
		}
		for _, fk := range spec.ForeignKeys {
			mapped, err := m.remapForeignKey(fk, row[fk.Column], idMaps, defaults)
			if err != nil {
				return fmt.Errorf("row %d, column %s: %w", oldID, fk.Column, err)
			}
			newRow[fk.Column] = mapped
		}

		if err := db.Table(stagingName(spec.Name)).Create(newRow).Error; err != nil {
			return fmt.Errorf("failed to copy row %d: %w", oldID, err)
		}
	}

	return nil
}

// remapForeignKey translates one legacy foreign-key value. References to
// a missing parent are remapped to the parent table's designated default
// row when the reference is required, and nulled when it is optional or
// soft.
func (m *Migrator) remapForeignKey(fk foreignKeySpec, value any, idMaps map[string]map[int64]string, defaults map[string]string) (any, error) {
	if value == nil {
		if fk.Required {
			return m.fallbackParent(fk, defaults)
		}
		return nil, nil
	}

	oldID, err := asInt64(value)
	if err != nil {
		return nil, err
	}

	if newID, ok := idMaps[fk.RefTable][oldID]; ok {
		return newID, nil
	}

	if fk.Required {
		return m.fallbackParent(fk, defaults)
	}
	return nil, nil
}

func (m *Migrator) fallbackParent(fk foreignKeySpec, defaults map[string]string) (any, error) {
	if def, ok := defaults[fk.RefTable]; ok {
		m.logger.Warn("Dangling required reference remapped to default parent",
			zap.String("column", fk.Column),
			zap.String("parent_table", fk.RefTable),
		)
		return def, nil
	}
	return nil, fmt.Errorf("no %s row available as default parent", fk.RefTable)
}

// stagingDDL builds the UUID-shaped table definition
func (m *Migrator) stagingDDL(spec tableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %q (id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME", stagingName(spec.Name))
	for _, col := range spec.Columns {
		fmt.Fprintf(&b, ", %q %s", col.Name, col.SQLType)
	}
	for _, fk := range spec.ForeignKeys {
		fmt.Fprintf(&b, ", %q TEXT", fk.Column)
	}
	b.WriteString(")")
	return b.String()
}

// dropStaging removes any staging tables left by a failed copy so the
// snapshot restore starts clean.
func (m *Migrator) dropStaging(db *gorm.DB) {
	for _, spec := range tableSpecs {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", stagingName(spec.Name))).Error; err != nil {
			m.logger.Warn("Failed to drop staging table", zap.String("table", spec.Name), zap.Error(err))
		}
	}
}

func tableExists(ctx context.Context, db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// idColumnType returns the declared type of a table's id column
func (m *Migrator) idColumnType(ctx context.Context, table string) (string, error) {
	var columns []struct {
		Name string
		Type string
	}
	if err := m.db.WithContext(ctx).Raw(fmt.Sprintf("PRAGMA table_info(%q)", table)).Scan(&columns).Error; err != nil {
		return "", err
	}
	for _, col := range columns {
		if col.Name == "id" {
			return col.Type, nil
		}
	}
	return "", fmt.Errorf("table %s has no id column", table)
}

func stagingName(table string) string {
	return table + "_v2"
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer identifier, got %T", v)
	}
}
