package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

const (
	reportFile     = "report.json"
	latestFile     = "latest"
	screenshotsDir = "screenshots"
)

// ErrNoReports is returned by LatestReport before any report was saved
var ErrNoReports = errors.New("no reports saved")

type reportStore struct {
	dir string
}

// NewReportStore - creates report storage under dir; an empty dir defaults to ~/.storefront_e2e/reports
func NewReportStore(dir string) (interfaces.ReportStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(homeDir, ".storefront_e2e", "reports")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	return &reportStore{dir: dir}, nil
}

// SaveReport - writes the report and marks it as the latest
func (s *reportStore) SaveReport(report *entities.RunReport) error {
	if report.ID == "" {
		return errors.New("report has no id")
	}
	runDir := filepath.Join(s.dir, report.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(runDir, reportFile), data, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, latestFile), []byte(report.ID), 0644)
}

// LoadReport - loads a report by run id
func (s *reportStore) LoadReport(id string) (*entities.RunReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(id), reportFile))
	if err != nil {
		return nil, err
	}

	var report entities.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// LatestReport - loads the report saved last
func (s *reportStore) LatestReport() (*entities.RunReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, latestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReports
		}
		return nil, err
	}
	return s.LoadReport(strings.TrimSpace(string(data)))
}

// SaveScreenshot - stores a PNG under the run directory
func (s *reportStore) SaveScreenshot(runID, name string, png []byte) (string, error) {
	dir := filepath.Join(s.dir, filepath.Base(runID), screenshotsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, safeName(name)+".png")
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}
