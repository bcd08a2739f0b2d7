// Package report serializes job results to a report file.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/runner"
)

// Write stores all results under path, as one YAML document when the
// path ends in .yaml/.yml and as an indented JSON array otherwise.
func Write(path string, results []runner.JobResult) error {
	logger := logging.GetLogger("report")

	data, err := marshal(path, results)
	if err != nil {
		return errors.Wrap(err, errors.ErrReportWrite, "failed to serialize report")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrReportWrite, "failed to write report to %s", path)
	}

	logger.Info().Str("path", path).Int("results", len(results)).Msg("Report written")
	return nil
}

func marshal(path string, results []runner.JobResult) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(results)
	default:
		return json.MarshalIndent(results, "", "    ")
	}
}
