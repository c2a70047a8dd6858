package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "projects.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleProject(id string) model.Project {
	return model.Project{
		ID:        id,
		Title:     "Hotel Renovation",
		Category:  "facilities",
		Status:    model.StatusInProgress,
		Budget:    decimal.RequireFromString("120000"),
		Spent:     decimal.RequireFromString("146400.25"),
		StartDate: day(2023, 1, 15),
		EndDate:   day(2023, 6, 30),
		Expenses: []model.Expense{
			{ID: "e2", ProjectID: id, Amount: decimal.NewFromInt(28000), Date: day(2023, 3, 5), Category: "Labor"},
			{ID: "e1", ProjectID: id, Amount: decimal.NewFromInt(45000), Date: day(2023, 2, 10), Category: "Materials"},
		},
	}
}

func TestSaveFile_LoadAllProjects(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1")}, FileInfo{MtimeNs: 42, SizeBytes: 100}); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	projects, err := c.LoadAllProjects()
	if err != nil {
		t.Fatalf("LoadAllProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(projects))
	}

	p := projects[0]
	if !p.Spent.Equal(decimal.RequireFromString("146400.25")) {
		t.Errorf("Spent = %s, want exact 146400.25", p.Spent)
	}
	if p.Status != model.StatusInProgress {
		t.Errorf("Status = %q", p.Status)
	}
	if !p.EndDate.Equal(day(2023, 6, 30)) {
		t.Errorf("EndDate = %v", p.EndDate)
	}
	if p.FilePath != "/data/a.yaml" {
		t.Errorf("FilePath = %q", p.FilePath)
	}
	// fixture order is preserved
	if len(p.Expenses) != 2 || p.Expenses[0].ID != "e2" {
		t.Errorf("Expenses = %+v, want e2 then e1", p.Expenses)
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	if fi := tracked["/data/a.yaml"]; fi.MtimeNs != 42 || fi.SizeBytes != 100 {
		t.Errorf("tracked = %+v", fi)
	}
}

func TestSaveFile_ReplacesFileContents(t *testing.T) {
	c := openTestCache(t)

	_ = c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1"), sampleProject("2")}, FileInfo{MtimeNs: 1})
	if err := c.SaveFile("/data/a.yaml", []model.Project{sampleProject("2")}, FileInfo{MtimeNs: 2}); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	n, err := c.ProjectCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("ProjectCount = %d, want 1 after reparse dropped project 1", n)
	}
}

func TestSaveFile_SameIDInTwoFiles(t *testing.T) {
	c := openTestCache(t)

	alpha := sampleProject("1")
	alpha.Title = "Alpha"
	beta := sampleProject("1")
	beta.Title = "Beta"
	beta.Expenses = beta.Expenses[:1]

	if err := c.SaveFile("/data/a.yaml", []model.Project{alpha}, FileInfo{}); err != nil {
		t.Fatalf("SaveFile a: %v", err)
	}
	if err := c.SaveFile("/data/b.yaml", []model.Project{beta}, FileInfo{}); err != nil {
		t.Fatalf("SaveFile b: %v", err)
	}

	projects, err := c.LoadAllProjects()
	if err != nil {
		t.Fatalf("LoadAllProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	if projects[0].Title != "Alpha" || len(projects[0].Expenses) != 2 {
		t.Errorf("a.yaml project = %s with %d expenses, want Alpha with 2", projects[0].Title, len(projects[0].Expenses))
	}
	if projects[1].Title != "Beta" || len(projects[1].Expenses) != 1 {
		t.Errorf("b.yaml project = %s with %d expenses, want Beta with 1", projects[1].Title, len(projects[1].Expenses))
	}

	if err := c.DeleteFile("/data/b.yaml"); err != nil {
		t.Fatal(err)
	}
	projects, _ = c.LoadAllProjects()
	if len(projects) != 1 || projects[0].Title != "Alpha" || len(projects[0].Expenses) != 2 {
		t.Errorf("after deleting b.yaml: %+v", projects)
	}
}

func TestSaveFile_RepeatedIDKeepsFirst(t *testing.T) {
	c := openTestCache(t)

	first := sampleProject("7")
	first.Title = "First"
	second := sampleProject("7")
	second.Title = "Second"
	if err := c.SaveFile("/data/a.yaml", []model.Project{first, second}, FileInfo{}); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	projects, err := c.LoadAllProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Title != "First" || len(projects[0].Expenses) != 2 {
		t.Errorf("projects = %+v, want only First with its 2 expenses", projects)
	}
}

func TestOpen_RebuildsOldFixtureTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`
		CREATE TABLE projects (project_id TEXT PRIMARY KEY, file_path TEXT NOT NULL);
		INSERT INTO projects VALUES ('1', '/data/a.yaml');
		CREATE TABLE file_tracker (file_path TEXT PRIMARY KEY, mtime_ns INTEGER NOT NULL, size_bytes INTEGER NOT NULL);
		INSERT INTO file_tracker VALUES ('/data/a.yaml', 1, 1);
		CREATE TABLE manual_expenses (
			expense_id TEXT PRIMARY KEY, project_id TEXT NOT NULL, description TEXT,
			amount TEXT NOT NULL, category TEXT, expense_date TEXT NOT NULL, created_at TEXT NOT NULL);
		INSERT INTO manual_expenses VALUES ('m-1', '1', 'Permit', '10', 'Fees', '2023-04-01', '2023-04-01T00:00:00Z');`)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = c.Close() }()

	if tracked, _ := c.GetTrackedFiles(); len(tracked) != 0 {
		t.Errorf("tracked = %v, want old tracking dropped", tracked)
	}
	if err := c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1")}, FileInfo{}); err != nil {
		t.Fatalf("SaveFile on rebuilt schema: %v", err)
	}
	manual, err := c.ManualExpenses()
	if err != nil {
		t.Fatal(err)
	}
	if len(manual) != 1 || manual[0].ID != "m-1" {
		t.Errorf("manual = %+v, want m-1 kept", manual)
	}
}

func TestDeleteFile(t *testing.T) {
	c := openTestCache(t)
	_ = c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1")}, FileInfo{})

	if err := c.DeleteFile("/data/a.yaml"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	tracked, _ := c.GetTrackedFiles()
	if len(tracked) != 0 {
		t.Errorf("tracked = %v, want empty", tracked)
	}
	if n, _ := c.ProjectCount(); n != 0 {
		t.Errorf("ProjectCount = %d, want 0", n)
	}
}

func TestManualExpenses_SurviveReparse(t *testing.T) {
	c := openTestCache(t)
	_ = c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1")}, FileInfo{})

	manual := model.Expense{
		ID:          "m-1",
		ProjectID:   "1",
		Description: "Permit fee",
		Amount:      decimal.RequireFromString("350.10"),
		Category:    "Fees",
		Date:        day(2023, 4, 1),
	}
	if err := c.AddExpense(manual); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if err := c.AddExpense(manual); err == nil {
		t.Error("duplicate expense id accepted")
	}

	_ = c.SaveFile("/data/a.yaml", []model.Project{sampleProject("1")}, FileInfo{MtimeNs: 9})

	got, err := c.ManualExpenses()
	if err != nil {
		t.Fatalf("ManualExpenses: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d manual expenses, want 1", len(got))
	}
	if !got[0].Manual || !got[0].Amount.Equal(manual.Amount) || got[0].Description != "Permit fee" {
		t.Errorf("manual expense = %+v", got[0])
	}

	ok, err := c.DeleteExpense("m-1")
	if err != nil || !ok {
		t.Fatalf("DeleteExpense = %v, %v", ok, err)
	}
	if ok, _ := c.DeleteExpense("m-1"); ok {
		t.Error("DeleteExpense reported a second delete")
	}
}

func TestAddExpense_RequiresIDs(t *testing.T) {
	c := openTestCache(t)
	if err := c.AddExpense(model.Expense{ID: "x"}); err == nil {
		t.Fatal("expected error for missing project id")
	}
}
