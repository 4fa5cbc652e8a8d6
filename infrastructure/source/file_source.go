package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/isectech/disaster-recovery/domain/entity"
)

// FileSource loads disaster scenario definitions from YAML files at process
// start. Path may point at a single file or a directory of *.yaml/*.yml
// files.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a file-backed scenario source
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// scenarioFile is the on-disk document shape. RTO/RPO are duration strings
// ("30m", "4h") rather than raw nanoseconds.
type scenarioFile struct {
	Scenarios []scenarioDoc `yaml:"scenarios"`
}

type scenarioDoc struct {
	ID           string                   `yaml:"id"`
	Name         string                   `yaml:"name"`
	Severity     entity.ScenarioSeverity  `yaml:"severity"`
	Procedure    entity.RecoveryProcedure `yaml:"procedure"`
	EstimatedRTO string                   `yaml:"estimated_rto"`
	EstimatedRPO string                   `yaml:"estimated_rpo"`
}

// Load reads every scenario document under the configured path
func (f *FileSource) Load(ctx context.Context) ([]entity.DisasterScenario, error) {
	files, err := f.resolveFiles()
	if err != nil {
		return nil, err
	}

	var scenarios []entity.DisasterScenario
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := f.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("loading scenarios from %s: %w", file, err)
		}
		scenarios = append(scenarios, loaded...)
	}

	f.logger.Info("Scenario definitions loaded",
		zap.String("path", f.path),
		zap.Int("files", len(files)),
		zap.Int("scenarios", len(scenarios)))
	return scenarios, nil
}

func (f *FileSource) resolveFiles() ([]string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("scenario path %s: %w", f.path, err)
	}
	if !info.IsDir() {
		return []string{f.path}, nil
	}

	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, fmt.Errorf("scenario directory %s: %w", f.path, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(f.path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (f *FileSource) loadFile(path string) ([]entity.DisasterScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc scenarioFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	scenarios := make([]entity.DisasterScenario, 0, len(doc.Scenarios))
	for _, sd := range doc.Scenarios {
		rto, err := parseOptionalDuration(sd.EstimatedRTO)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: estimated_rto: %w", sd.ID, err)
		}
		rpo, err := parseOptionalDuration(sd.EstimatedRPO)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: estimated_rpo: %w", sd.ID, err)
		}
		scenarios = append(scenarios, entity.DisasterScenario{
			ID:           sd.ID,
			Name:         sd.Name,
			Severity:     sd.Severity,
			Procedure:    sd.Procedure,
			EstimatedRTO: rto,
			EstimatedRPO: rpo,
		})
	}
	return scenarios, nil
}

func parseOptionalDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
