package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Processor finds the test-log files an import should consider.
type Processor interface {
	ScanForFiles(rootPath string) ([]string, error)
}

type FileProcessor struct{}

func NewFileProcessor() *FileProcessor {
	return &FileProcessor{}
}

// ScanForFiles returns rootPath itself when it is a file, otherwise every .csv
// file below it in lexical order.
func (fp *FileProcessor) ScanForFiles(rootPath string) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", rootPath, err)
	}
	if !info.IsDir() {
		return []string{rootPath}, nil
	}

	log.WithField("path", rootPath).Info("Scanning for files")
	var paths []string
	err = filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	sort.Strings(paths)
	log.Infof("Found %d files to process", len(paths))
	return paths, nil
}
