package storefront

import (
	"context"
	"fmt"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// Audit reports which locator of every selector set resolves first on doc.
// Unlike Resolve it keeps the locator errors so broken selectors show up.
func (h *Helpers) Audit(ctx context.Context, doc interfaces.Document, url, title string) entities.PageAudit {
	audit := entities.PageAudit{URL: url, Title: title}
	for _, set := range h.opts.Selectors.All() {
		entry := entities.AuditEntry{Set: set.Name}
		for _, loc := range set.Locators {
			els, err := locate(ctx, doc, loc)
			if err != nil {
				entry.Errors = append(entry.Errors, fmt.Sprintf("%s: %v", loc, err))
				continue
			}
			if len(els) > 0 {
				matched := loc
				entry.Matched = &matched
				entry.Count = len(els)
				break
			}
		}
		audit.Entries = append(audit.Entries, entry)
	}
	h.logger.WithField("url", url).Infof("audited %d selector sets, %d missing", len(audit.Entries), len(audit.Missing()))
	return audit
}
