package export

import (
	"strconv"
	"strings"

	"github.com/jimezsa/upjobs/internal/models"
)

// SkillSeparator joins the skills list into one column.
const SkillSeparator = ", "

// Columns is the fixed header of every tabular export.
var Columns = []string{
	"title",
	"url",
	"posted",
	"budget_type",
	"budget_amount",
	"experience_level",
	"duration",
	"description",
	"skills",
	"page_number",
}

// FlatRow is a JobRecord reduced to string columns.
type FlatRow struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	Posted          string `json:"posted"`
	BudgetType      string `json:"budget_type"`
	BudgetAmount    string `json:"budget_amount"`
	ExperienceLevel string `json:"experience_level"`
	Duration        string `json:"duration"`
	Description     string `json:"description"`
	Skills          string `json:"skills"`
	PageNumber      string `json:"page_number"`
}

func Flatten(record models.JobRecord) FlatRow {
	return FlatRow{
		Title:           record.Title,
		URL:             record.URL,
		Posted:          record.Posted,
		BudgetType:      string(record.Budget.Type),
		BudgetAmount:    record.Budget.Amount,
		ExperienceLevel: record.ExperienceLevel,
		Duration:        record.Duration,
		Description:     record.Description,
		Skills:          strings.Join(record.Skills, SkillSeparator),
		PageNumber:      strconv.Itoa(record.PageNumber),
	}
}

func FlattenAll(records []models.JobRecord) []FlatRow {
	rows := make([]FlatRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, Flatten(record))
	}
	return rows
}

// Values returns the row in Columns order.
func (r FlatRow) Values() []string {
	return []string{
		r.Title,
		r.URL,
		r.Posted,
		r.BudgetType,
		r.BudgetAmount,
		r.ExperienceLevel,
		r.Duration,
		r.Description,
		r.Skills,
		r.PageNumber,
	}
}
