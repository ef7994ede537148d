package migration

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Validation rule names
const (
	RuleUUIDFormat    = "uuid_format"
	RuleForeignKeys   = "foreign_keys"
	RuleDataIntegrity = "data_integrity"
)

// nilUUID is the reserved all-zero identifier; it must never appear in
// active use.
const nilUUID = "00000000-0000-0000-0000-000000000000"

// uuidPattern matches a lowercase hyphenated 8-4-4-4-12 identifier
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// RuleResult is the outcome of one validation rule
type RuleResult struct {
	Rule      string   `json:"rule"`
	Passed    bool     `json:"passed"`
	Message   string   `json:"message"`
	Offending []string `json:"offending,omitempty"`
}

// Report aggregates all rule results; it passes only if every rule passes
type Report struct {
	Passed  bool         `json:"passed"`
	Results []RuleResult `json:"results"`
}

// Validator runs the post-migration and post-import structural checks
type Validator struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewValidator creates a validator over the given store
func NewValidator(db *gorm.DB, logger *zap.Logger) *Validator {
	return &Validator{db: db, logger: logger.Named("validator")}
}

// Validate runs every rule and aggregates the results
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	report := &Report{Passed: true}

	checks := []func(context.Context) (RuleResult, error){
		v.checkUUIDFormat,
		v.checkForeignKeys,
		v.checkDataIntegrity,
	}
	for _, check := range checks {
		result, err := check(ctx)
		if err != nil {
			return nil, err
		}
		if !result.Passed {
			report.Passed = false
			v.logger.Warn("Integrity rule failed",
				zap.String("rule", result.Rule),
				zap.Int("offending", len(result.Offending)),
			)
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// checkUUIDFormat verifies that every identifier and foreign-key value
// matches the expected UUID pattern.
func (v *Validator) checkUUIDFormat(ctx context.Context) (RuleResult, error) {
	result := RuleResult{Rule: RuleUUIDFormat, Passed: true, Message: "all identifiers are well-formed UUIDs"}

	for _, spec := range tableSpecs {
		exists, err := tableExists(ctx, v.db, spec.Name)
		if err != nil {
			return result, err
		}
		if !exists {
			continue
		}

		columns := []string{"id"}
		for _, fk := range spec.ForeignKeys {
			columns = append(columns, fk.Column)
		}
		for _, column := range columns {
			var values []string
			err := v.db.WithContext(ctx).
				Table(spec.Name).
				Where(fmt.Sprintf("%q IS NOT NULL", column)).
				Pluck(column, &values).Error
			if err != nil {
				return result, fmt.Errorf("failed to read %s.%s: %w", spec.Name, column, err)
			}
			for _, value := range values {
				if !uuidPattern.MatchString(value) {
					result.Offending = append(result.Offending, fmt.Sprintf("%s.%s=%s", spec.Name, column, value))
				}
			}
		}
	}

	if len(result.Offending) > 0 {
		result.Passed = false
		result.Message = fmt.Sprintf("%d malformed identifiers", len(result.Offending))
	}
	return result, nil
}

// checkForeignKeys verifies via outer join that no non-null reference
// points at a missing parent row. Soft references are exempt.
func (v *Validator) checkForeignKeys(ctx context.Context) (RuleResult, error) {
	result := RuleResult{Rule: RuleForeignKeys, Passed: true, Message: "all foreign keys resolve to existing parents"}

	for _, spec := range tableSpecs {
		exists, err := tableExists(ctx, v.db, spec.Name)
		if err != nil {
			return result, err
		}
		if !exists {
			continue
		}

		for _, fk := range spec.ForeignKeys {
			if fk.Soft {
				continue
			}
			parentExists, err := tableExists(ctx, v.db, fk.RefTable)
			if err != nil {
				return result, err
			}

			var orphans []string
			query := fmt.Sprintf(
				`SELECT c.id FROM %q c LEFT JOIN %q p ON c.%q = p.id WHERE c.%q IS NOT NULL AND p.id IS NULL`,
				spec.Name, fk.RefTable, fk.Column, fk.Column,
			)
			if !parentExists {
				// Without a parent table every non-null reference dangles.
				query = fmt.Sprintf(`SELECT id FROM %q WHERE %q IS NOT NULL`, spec.Name, fk.Column)
			}
			if err := v.db.WithContext(ctx).Raw(query).Scan(&orphans).Error; err != nil {
				return result, fmt.Errorf("failed to check %s.%s: %w", spec.Name, fk.Column, err)
			}
			for _, id := range orphans {
				result.Offending = append(result.Offending, fmt.Sprintf("%s.%s orphan row %s", spec.Name, fk.Column, id))
			}
		}
	}

	if len(result.Offending) > 0 {
		result.Passed = false
		result.Message = fmt.Sprintf("%d orphaned references", len(result.Offending))
	}
	return result, nil
}

// checkDataIntegrity verifies that no table holds duplicate identifiers
// and that the reserved nil UUID is not in active use.
func (v *Validator) checkDataIntegrity(ctx context.Context) (RuleResult, error) {
	result := RuleResult{Rule: RuleDataIntegrity, Passed: true, Message: "no duplicate or nil identifiers"}

	for _, spec := range tableSpecs {
		exists, err := tableExists(ctx, v.db, spec.Name)
		if err != nil {
			return result, err
		}
		if !exists {
			continue
		}

		var duplicates []string
		query := fmt.Sprintf(`SELECT id FROM %q GROUP BY id HAVING COUNT(*) > 1`, spec.Name)
		if err := v.db.WithContext(ctx).Raw(query).Scan(&duplicates).Error; err != nil {
			return result, fmt.Errorf("failed to check duplicates in %s: %w", spec.Name, err)
		}
		for _, id := range duplicates {
			result.Offending = append(result.Offending, fmt.Sprintf("%s duplicate id %s", spec.Name, id))
		}

		var nilCount int64
		err = v.db.WithContext(ctx).
			Table(spec.Name).
			Where("id = ?", nilUUID).
			Count(&nilCount).Error
		if err != nil {
			return result, fmt.Errorf("failed to check nil UUID in %s: %w", spec.Name, err)
		}
		if nilCount > 0 {
			result.Offending = append(result.Offending, fmt.Sprintf("%s uses the nil UUID", spec.Name))
		}
	}

	if len(result.Offending) > 0 {
		result.Passed = false
		result.Message = fmt.Sprintf("%d integrity violations", len(result.Offending))
	}
	return result, nil
}
