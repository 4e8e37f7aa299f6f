package loader

import (
	"context"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

// FileSource serves the test log and the limits summary from CSV files through
// a shared Loader.
type FileSource struct {
	loader     *Loader
	testsPath  string
	limitsPath string
}

func NewFileSource(loader *Loader, testsPath, limitsPath string) *FileSource {
	return &FileSource{
		loader:     loader,
		testsPath:  testsPath,
		limitsPath: limitsPath,
	}
}

func (s *FileSource) TestRecords(ctx context.Context) ([]models.TestRecord, error) {
	records, _, err := s.loader.LoadTestRecords(ctx, s.testsPath)
	return records, err
}

func (s *FileSource) LimitsRecords(ctx context.Context) (*models.LimitsDataset, error) {
	dataset, _, err := s.loader.LoadLimitsRecords(ctx, s.limitsPath)
	return dataset, err
}
