package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the validation errors as one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable validates a single table definition. A table needs exactly
// one primary key column and unique column names.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}

	if len(t.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: "table has no columns",
		})
	}

	switch pk := t.PrimaryKey(); len(pk) {
	case 0:
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	case 1:
	default:
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = c.Name
		}
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: fmt.Sprintf("table has %d primary keys: %s", len(pk), strings.Join(names, ", ")),
		})
	}

	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true

		if c.Ref != "" && !c.Indexed {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "reference column is not indexed",
			})
		}
	}

	return result
}

// ValidateSchema validates all tables in a schema.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	tableNames := make(map[string]bool)
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.Ref != "" && !tableNames[c.Ref] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  c.Name,
					Message: fmt.Sprintf("references non-existent table %q", c.Ref),
				})
			}
		}
	}

	return result
}
