// Package store provides a SQLite-backed cache for parsed project fixtures
// and the ledger of manually recorded expenses.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

const dateLayout = "2006-01-02"

// Cache provides SQLite-backed project caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version < schemaVersion {
		if _, err := db.Exec(dropFixtureTablesSQL); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs     int64
	SizeBytes   int64
	ParseErrors int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.ParseErrors); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces every project previously cached for path with projects
// and records the file's tracking info, all in one transaction.
func (c *Cache) SaveFile(path string, projects []model.Project, fi FileInfo) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM expenses WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM projects WHERE file_path = ?", path); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	seen := make(map[string]struct{}, len(projects))
	for seq, p := range projects {
		// A repeated ID within one file keeps its first record.
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		_, err = tx.Exec(`INSERT INTO projects
			(file_path, project_id, seq, title, description, client, category, status,
			 budget, spent, start_date, end_date, parsed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, p.ID, seq, p.Title, p.Description, p.Client, p.Category, string(p.Status),
			p.Budget.String(), p.Spent.String(), formatDate(p.StartDate), formatDate(p.EndDate), now,
		)
		if err != nil {
			return err
		}

		for i, e := range p.Expenses {
			_, err = tx.Exec(`INSERT INTO expenses
				(file_path, project_id, seq, expense_id, description, amount, category, expense_date)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				path, p.ID, i, e.ID, e.Description, e.Amount.String(), e.Category, formatDate(e.Date),
			)
			if err != nil {
				return err
			}
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, parse_errors)
		VALUES (?, ?, ?, ?)`, path, fi.MtimeNs, fi.SizeBytes, fi.ParseErrors)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAllProjects reads all cached projects with their fixture expenses,
// in file order.
// Manual expenses are not merged here.
func (c *Cache) LoadAllProjects() ([]model.Project, error) {
	rows, err := c.db.Query(`SELECT
		project_id, file_path, title, description, client, category, status,
		budget, spent, start_date, end_date
		FROM projects ORDER BY file_path, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var description, client, category, startStr, endStr sql.NullString
		var status, budgetStr, spentStr string

		err := rows.Scan(&p.ID, &p.FilePath, &p.Title, &description, &client, &category, &status,
			&budgetStr, &spentStr, &startStr, &endStr)
		if err != nil {
			return nil, err
		}

		p.Description = description.String
		p.Client = client.String
		p.Category = category.String
		p.Status = model.ParseStatus(status)
		if p.Budget, err = decimal.NewFromString(budgetStr); err != nil {
			return nil, fmt.Errorf("project %s budget: %w", p.ID, err)
		}
		if p.Spent, err = decimal.NewFromString(spentStr); err != nil {
			return nil, fmt.Errorf("project %s spent: %w", p.ID, err)
		}
		p.StartDate = parseDate(startStr)
		p.EndDate = parseDate(endStr)

		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load expenses
	expRows, err := c.db.Query(`SELECT
		file_path, project_id, expense_id, description, amount, category, expense_date
		FROM expenses ORDER BY file_path, project_id, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = expRows.Close() }()

	type projectKey struct{ file, id string }
	projectIdx := make(map[projectKey]int, len(projects))
	for i, p := range projects {
		projectIdx[projectKey{p.FilePath, p.ID}] = i
	}

	for expRows.Next() {
		var file string
		e, err := scanExpense(expRows, &file)
		if err != nil {
			return nil, err
		}
		if idx, ok := projectIdx[projectKey{file, e.ProjectID}]; ok {
			projects[idx].Expenses = append(projects[idx].Expenses, e)
		}
	}

	return projects, expRows.Err()
}

// DeleteFile removes a file's cached projects and its tracking entry.
func (c *Cache) DeleteFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM expenses WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM projects WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// ProjectCount returns the number of cached projects.
func (c *Cache) ProjectCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

// AddExpense records a manual expense. Manual expenses are independent of
// the fixture cache and survive reparses.
func (c *Cache) AddExpense(e model.Expense) error {
	if e.ID == "" || e.ProjectID == "" {
		return fmt.Errorf("expense needs an id and a project id")
	}
	_, err := c.db.Exec(`INSERT INTO manual_expenses
		(expense_id, project_id, description, amount, category, expense_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Description, e.Amount.String(), e.Category, formatDate(e.Date),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving expense %s: %w", e.ID, err)
	}
	return nil
}

// ManualExpenses returns every manual expense, oldest first.
func (c *Cache) ManualExpenses() ([]model.Expense, error) {
	rows, err := c.db.Query(`SELECT
		project_id, expense_id, description, amount, category, expense_date
		FROM manual_expenses ORDER BY expense_date, created_at, expense_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		e.Manual = true
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteExpense removes a manual expense. It reports whether a row existed.
func (c *Cache) DeleteExpense(id string) (bool, error) {
	res, err := c.db.Exec("DELETE FROM manual_expenses WHERE expense_id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanExpense scans an expense row. Leading columns not part of the
// expense, such as a file path, are scanned into prefix.
func scanExpense(s scanner, prefix ...any) (model.Expense, error) {
	var e model.Expense
	var description, category sql.NullString
	var amountStr, dateStr string
	dest := append(prefix, &e.ProjectID, &e.ID, &description, &amountStr, &category, &dateStr)
	if err := s.Scan(dest...); err != nil {
		return e, err
	}
	e.Description = description.String
	e.Category = category.String
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return e, fmt.Errorf("expense %s amount: %w", e.ID, err)
	}
	e.Amount = amount
	e.Date, _ = time.Parse(dateLayout, dateStr)
	return e, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s.String)
	return t
}
