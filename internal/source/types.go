package source

// RawFile is the top-level shape of a project fixture file.
type RawFile struct {
	Projects []RawProject `yaml:"projects"`
}

// RawProject is one project record as written in a fixture. Older fixtures
// use name/totalBudget/dueDate; both spellings are accepted.
type RawProject struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Client      string       `yaml:"client"`
	Category    string       `yaml:"category"`
	Status      string       `yaml:"status"`
	Budget      string       `yaml:"budget"`
	TotalBudget string       `yaml:"totalBudget"`
	Spent       string       `yaml:"spent"`
	StartDate   string       `yaml:"startDate"`
	EndDate     string       `yaml:"endDate"`
	DueDate     string       `yaml:"dueDate"`
	Expenses    []RawExpense `yaml:"expenses"`
}

// RawExpense is one expense line in a fixture.
type RawExpense struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Category    string `yaml:"category"`
	Date        string `yaml:"date"`
}

// DiscoveredFile represents a fixture file found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string // file name without extension
}
