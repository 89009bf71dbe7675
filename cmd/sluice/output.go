package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/sluice/pkg/connector/registry"
	"github.com/ajitpratap0/sluice/pkg/json"
	"github.com/ajitpratap0/sluice/pkg/orchestrator"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// encode writes v as json or yaml; ok is false for the table format
func encode(w io.Writer, v interface{}, format string) (ok bool, err error) {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case outputTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputTable, outputJSON, outputYAML)
	}
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func renderRunReport(w io.Writer, report *orchestrator.RunReport, format string) error {
	if ok, err := encode(w, report, format); ok {
		return err
	}
	t := newTable(w, "Run", table.Row{"Job", "Status", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	for _, r := range report.Results {
		t.AppendRow(table.Row{r.Name, colorStatus(string(r.Status)), r.Duration.Round(time.Millisecond), r.Error})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d failed", len(report.Failed())), report.Duration.Round(time.Millisecond), ""})
	t.Render()
	return nil
}

func renderDebugReport(w io.Writer, report *orchestrator.DebugReport, format string) error {
	if ok, err := encode(w, report, format); ok {
		return err
	}
	t := newTable(w, "Jobs", table.Row{"Job", "Creatable", "Source", "Target", "Errors"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 80}})
	for _, d := range report.Jobs {
		t.AppendRow(table.Row{
			d.Name,
			colorStatus(fmt.Sprint(d.Creatable)),
			colorStatus(d.SourceConnectable.String()),
			colorStatus(d.TargetConnectable.String()),
			strings.Join(d.Errors, "\n"),
		})
	}
	s := report.Summary
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d requested", s.Requested),
		fmt.Sprintf("%d created", s.Created),
		fmt.Sprintf("%d healthy", s.Healthy),
		"", "",
	})
	t.Render()

	if len(report.Unnamed) > 0 {
		u := newTable(w, "Job specs without a name", table.Row{"Position", "Source", "Target"})
		for _, spec := range report.Unnamed {
			u.AppendRow(table.Row{spec.Position, spec.Source, spec.Target})
		}
		u.Render()
	}
	return nil
}

func renderConnectors(w io.Writer, infos []*registry.ConnectorInfo, format string) error {
	if ok, err := encode(w, infos, format); ok {
		return err
	}
	t := newTable(w, "Connectors", table.Row{"Kind", "Type", "Checkable", "Required", "Description"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.Kind, info.Type, info.Checkable, strings.Join(info.Required, ", "), info.Description})
	}
	t.Render()
	return nil
}

func colorStatus(s string) string {
	switch s {
	case "true", string(orchestrator.StatusSucceeded):
		return text.FgGreen.Sprint(s)
	case "false", string(orchestrator.StatusFailed):
		return text.FgRed.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}
