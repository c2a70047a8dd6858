package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// syntheticProjects builds n valid projects spread over 2023.
func syntheticProjects(n int) []model.Project {
	projects := make([]model.Project, n)
	for i := range projects {
		start := time.Date(2023, time.Month(1+i%6), 1+i%28, 0, 0, 0, 0, time.UTC)
		projects[i] = model.Project{
			ID:        fmt.Sprint(i + 1),
			Title:     fmt.Sprintf("Project %d", i+1),
			Budget:    decimal.NewFromInt(int64(50000 + i*100)),
			Spent:     decimal.NewFromInt(int64(10000 + i*137)),
			StartDate: start,
			EndDate:   start.AddDate(0, 8, 0),
		}
	}
	return projects
}

func BenchmarkAnalyze(b *testing.B) {
	projects := syntheticProjects(5000)
	asOf := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reports := Analyze(projects, budget.Default, asOf)
		_ = Summarize(reports)
	}
}

func BenchmarkLoad(b *testing.B) {
	dir := b.TempDir()
	for f := 0; f < 50; f++ {
		var sb strings.Builder
		sb.WriteString("projects:\n")
		for p := 0; p < 40; p++ {
			fmt.Fprintf(&sb, "  - id: f%dp%d\n    budget: 1000\n    startDate: 2023-01-01\n    endDate: 2023-12-31\n", f, p)
			sb.WriteString("    expenses:\n      - {amount: 12.5, date: 2023-02-01}\n      - {amount: 40, date: 2023-03-01}\n")
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%02d.yaml", f)), []byte(sb.String()), 0o600); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(dir, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}
