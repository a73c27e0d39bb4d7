package console

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

// ReporterOptions control what reaches the console. Everything is logged regardless.
type ReporterOptions struct {
	// Quiet suppresses informational output; errors are still printed
	Quiet bool
	// Trace attaches the wrapped error chain to logged errors
	Trace bool
	// Warn prints warnings, prefixed with "Warning: "
	Warn bool
}

func DefaultReporterOptions() ReporterOptions {
	return ReporterOptions{Warn: true}
}

// Reporter prints run messages to the console and mirrors them to a structured logger
type Reporter struct {
	writer io.Writer
	logger zerolog.Logger
	opts   ReporterOptions
}

func NewReporter(writer io.Writer, logger zerolog.Logger, opts ReporterOptions) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer, logger: logger, opts: opts}
}

func (r *Reporter) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Info().Msg(msg)
	if !r.opts.Quiet {
		fmt.Fprintln(r.writer, msg)
	}
}

func (r *Reporter) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Warn().Msg(msg)
	if !r.opts.Quiet && r.opts.Warn {
		fmt.Fprintf(r.writer, "Warning: %s\n", msg)
	}
}

// Fatal reports an error that ends the run. It is printed even when quiet.
func (r *Reporter) Fatal(err error) {
	event := r.logger.Error().Err(err)
	if r.opts.Trace {
		event = event.Strs("chain", errorChain(err))
	}
	event.Msg("run failed")
	fmt.Fprintf(r.writer, "Fatal Error: %v\n", err)
}

// Interrupted ends the current console line after a cancelled run
func (r *Reporter) Interrupted() {
	r.logger.Info().Msg("interrupted")
	fmt.Fprintln(r.writer)
}

type categoryTotal struct {
	Category string
	Total    int
}

var summaryTemplate = template.Must(template.New("summary").Parse(`
{{range .}}{{.Category}}: {{.Total}}
{{end}}`))

// Summary prints one "<category>: <total>" line per change category, sorted by category
func (r *Reporter) Summary(summary domain.ChangeSummary) error {
	totals := make([]categoryTotal, 0, len(summary))
	for _, category := range slices.Sorted(maps.Keys(summary)) {
		total := summary.Total(category)
		totals = append(totals, categoryTotal{Category: category, Total: total})
		r.logger.Info().Str("category", category).Int("total", total).Msg("group changes")
	}
	if r.opts.Quiet {
		return nil
	}

	if err := summaryTemplate.Execute(r.writer, totals); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

func errorChain(err error) []string {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, err.Error())
	}
	return chain
}
