package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps driver and GORM errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// forUpdate adds a row lock on dialects that support SELECT ... FOR UPDATE.
// SQLite serializes writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// updateWithVersion writes the columns only when the row still carries the stored version.
// The row is moved to next and ErrConcurrencyConflict is returned when another writer got there first.
func updateWithVersion(tx *gorm.DB, model any, id uuid.UUID, stored, next int, columns map[string]any) error {
	columns["version"] = next
	columns["updated_at"] = time.Now()
	result := tx.Model(model).
		Where("id = ? AND version = ?", id, stored).
		Updates(columns)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// filterSpec describes how a shared.Filter maps onto one table
type filterSpec struct {
	// searchColumns are matched case-insensitively against Filter.Search
	searchColumns []string
	// columns maps equality filter keys to column names
	columns map[string]string
	// dateColumn is compared against the "date_from" and "date_to" filters
	dateColumn  string
	sortFields  map[string]bool
	defaultSort string
}

// where applies search and equality filters
func (s filterSpec) where(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" && len(s.searchColumns) > 0 {
		pattern := "%" + strings.ToLower(search) + "%"
		conds := make([]string, 0, len(s.searchColumns))
		args := make([]any, 0, len(s.searchColumns))
		for _, col := range s.searchColumns {
			conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	for key, value := range filter.Filters {
		if col, ok := s.columns[key]; ok {
			if values, ok := value.([]string); ok {
				if len(values) > 0 {
					query = query.Where(col+" IN ?", values)
				}
				continue
			}
			query = query.Where(col+" = ?", value)
			continue
		}
		if s.dateColumn == "" {
			continue
		}
		switch key {
		case "date_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where(s.dateColumn+" >= ?", t)
			}
		case "date_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where(s.dateColumn+" <= ?", t)
			}
		}
	}
	return query
}

// page applies ordering and pagination on top of where
func (s filterSpec) page(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = s.where(query, filter)
	field := ValidateSortField(filter.OrderBy, s.sortFields, s.defaultSort)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if field != "id" {
		query = query.Order("id ASC")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
