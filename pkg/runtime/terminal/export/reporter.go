package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

const (
	ColumnEntityType = "Entity Type"
	ColumnEntityName = "Entity Name"
	ColumnDepartment = "Department"
)

var Header = []string{ColumnEntityType, ColumnEntityName, ColumnDepartment}

// Reporter writes a critical list as the CSV consumed by the group sync
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

// Handle writes the header and one row per entity, all tagged with groupName
func (r *Reporter) Handle(list domain.CriticalList, groupName string) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range list {
		if err := w.Write([]string{e.ClassName, e.DisplayName, groupName}); err != nil {
			return fmt.Errorf("failed to write csv record for %s: %w", e.UUID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// FileName appends the .csv extension unless present
func FileName(base string) string {
	if strings.HasSuffix(strings.ToLower(base), ".csv") {
		return base
	}
	return base + ".csv"
}

// WriteFile overwrites <base>.csv and returns its path
func WriteFile(base string, list domain.CriticalList, groupName string) (string, error) {
	path := FileName(base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := NewReporter(f).Handle(list, groupName); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
