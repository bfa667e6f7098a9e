package entities

// PageAudit lists how each selector set resolves on a fetched page
type PageAudit struct {
	URL     string       `json:"url"`
	Title   string       `json:"title"`
	Entries []AuditEntry `json:"entries"`
}

// AuditEntry - resolution of one selector set
type AuditEntry struct {
	Set     string   `json:"set"`
	Matched *Locator `json:"matched,omitempty"` // first locator with a match
	Count   int      `json:"count"`
	Errors  []string `json:"errors,omitempty"`
}

// Missing returns the sets that matched nothing
func (p PageAudit) Missing() []string {
	var missing []string
	for _, e := range p.Entries {
		if e.Matched == nil {
			missing = append(missing, e.Set)
		}
	}
	return missing
}
