// Package export writes rosters, diffs and version lists as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/sortie/core/history"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/reallocation"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var rosterHeader = []string{
	"slot_id", "date", "start", "end", "activity", "sortie_type",
	"student_id", "instructor_id", "resource_id", "dispatch_decision", "reasons", "citations",
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRosterCSV writes one row per slot in roster order. Reasons and
// citations are joined with ";".
func WriteRosterCSV(w io.Writer, r model.Roster) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, s := range r.Slots() {
		rec := []string{
			s.SlotID,
			s.Date,
			s.Start,
			s.End,
			string(s.Activity),
			string(s.SortieType),
			s.StudentID,
			s.InstructorID,
			s.ResourceID,
			string(s.DispatchDecision),
			strings.Join(s.Reasons, ";"),
			strings.Join(s.Citations, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiffCSV writes added and removed slots as one row each and every
// changed field of a modified slot as its own row, fields sorted by name.
func WriteDiffCSV(w io.Writer, d reallocation.Diff) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"change", "slot_id", "field", "old", "new"}); err != nil {
		return err
	}
	for _, s := range d.Added {
		if err := cw.Write([]string{"added", s.SlotID, "", "", ""}); err != nil {
			return err
		}
	}
	for _, s := range d.Removed {
		if err := cw.Write([]string{"removed", s.SlotID, "", "", ""}); err != nil {
			return err
		}
	}
	for _, m := range d.Modified {
		fields := make([]string, 0, len(m.Changes))
		for f := range m.Changes {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			c := m.Changes[f]
			if err := cw.Write([]string{"modified", m.SlotID, f, c.Old, c.New}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVersionsCSV writes a summary row per version.
func WriteVersionsCSV(w io.Writer, vs []history.Version) error {
	cw := csv.NewWriter(w)
	header := []string{"week_start", "version", "created_at", "event_type", "correlation_id", "churn_rate", "total_changes", "coverage_rate"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, v := range vs {
		changes := 0
		if v.Diff != nil {
			changes = v.Diff.TotalChanges
		}
		rec := []string{
			v.WeekStart,
			strconv.Itoa(v.Version),
			v.CreatedAt.UTC().Format(time.RFC3339),
			string(v.EventType),
			v.CorrelationID,
			strconv.FormatFloat(v.ChurnRate, 'f', 2, 64),
			strconv.Itoa(changes),
			strconv.FormatFloat(v.Coverage.Rate, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CheckFormat rejects unknown output formats.
func CheckFormat(format string) error {
	switch format {
	case FormatJSON, FormatCSV:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatJSON, FormatCSV)
}
