package models

// SearchParams captures the normalized inputs of a scrape run.
type SearchParams struct {
	Query    string
	Target   int
	PageSize int
}

// Pages returns ceil(Target / PageSize), never less than one.
func (p SearchParams) Pages() int {
	size := p.PageSize
	if size <= 0 {
		size = 10
	}
	if p.Target <= 0 {
		return 1
	}
	return (p.Target + size - 1) / size
}
