package interfaces

import "storefront_e2e/domain/entities"

// ReportStore persists suite run artifacts
type ReportStore interface {
	// SaveReport saves a run report
	SaveReport(report *entities.RunReport) error

	// LoadReport loads a run report by id
	LoadReport(id string) (*entities.RunReport, error)

	// LatestReport loads the most recently saved report
	LatestReport() (*entities.RunReport, error)

	// SaveScreenshot stores a screenshot and returns its path
	SaveScreenshot(runID, name string, png []byte) (string, error)
}
