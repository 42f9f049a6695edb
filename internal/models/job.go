package models

import "strings"

// NotAvailable is written in place of a field that could not be read from a listing.
const NotAvailable = "N/A"

type BudgetType string

const (
	BudgetHourly  BudgetType = "Hourly"
	BudgetFixed   BudgetType = "Fixed-price"
	BudgetUnknown BudgetType = "Unknown"
)

// ClassifyBudget maps the raw job-type label shown on a listing to a BudgetType.
// "Hourly" wins over "Fixed" when both appear.
func ClassifyBudget(label string) BudgetType {
	switch {
	case strings.Contains(label, "Hourly"):
		return BudgetHourly
	case strings.Contains(label, "Fixed"):
		return BudgetFixed
	default:
		return BudgetUnknown
	}
}

type Budget struct {
	Type   BudgetType `json:"type"`
	Amount string     `json:"amount"`
}

// JobRecord is one listing as captured from a search results page.
type JobRecord struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Posted          string   `json:"posted"`
	Budget          Budget   `json:"budget"`
	ExperienceLevel string   `json:"experience_level"`
	Duration        string   `json:"duration"`
	Description     string   `json:"description"`
	Skills          []string `json:"skills"`
	PageNumber      int      `json:"page_number"`
}
