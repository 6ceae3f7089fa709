package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/reallocation"
)

// ErrNotFound is returned by Latest when a week has no committed version.
var ErrNotFound = errors.New("roster version not found")

// Version is one committed roster of a week. The first version of a week is
// a generation and carries no event; later versions are reallocations.
type Version struct {
	Version       int                `json:"version"`
	WeekStart     string             `json:"week_start"`
	CreatedAt     time.Time          `json:"created_at"`
	CorrelationID string             `json:"correlation_id,omitempty"`
	EventType     model.EventType    `json:"event_type,omitempty"`
	Roster        model.Roster       `json:"roster"`
	Diff          *reallocation.Diff `json:"diff,omitempty"`
	ChurnRate     float64            `json:"churn_rate"`
	AffectedSlots []model.RosterSlot `json:"affected_slots,omitempty"`
	Coverage      metrics.Coverage   `json:"coverage"`
}

// IsReallocation reports whether the version was produced by a disruption.
func (v Version) IsReallocation() bool { return v.EventType != "" }

// Store persists roster versions. Commit assigns the next version number of
// the week; callers leave Version unset.
type Store interface {
	Commit(ctx context.Context, v Version) (Version, error)
	Latest(ctx context.Context, weekStart string) (Version, error)
	// List returns the versions of weekStart ordered by version, or every
	// version ordered by creation time when weekStart is empty.
	List(ctx context.Context, weekStart string) ([]Version, error)
	Close() error
}

// ChurnSamples converts the reallocations among vs for metrics.Summarize.
func ChurnSamples(vs []Version) []metrics.ChurnSample {
	out := make([]metrics.ChurnSample, 0, len(vs))
	for _, v := range vs {
		if !v.IsReallocation() {
			continue
		}
		out = append(out, metrics.ChurnSample{EventType: v.EventType, ChurnRate: v.ChurnRate, CreatedAt: v.CreatedAt})
	}
	return out
}

func stamp(v Version, prev []Version) Version {
	v.Version = latestNumber(prev, v.WeekStart) + 1
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return v
}

func latestNumber(vs []Version, week string) int {
	n := 0
	for _, v := range vs {
		if v.WeekStart == week && v.Version > n {
			n = v.Version
		}
	}
	return n
}

// selectVersions filters vs the way List documents.
func selectVersions(vs []Version, week string) []Version {
	out := []Version{}
	for _, v := range vs {
		if week == "" || v.WeekStart == week {
			out = append(out, v)
		}
	}
	if week == "" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	}
	return out
}

func latestOf(vs []Version, week string) (Version, error) {
	sel := selectVersions(vs, week)
	if len(sel) == 0 || week == "" {
		return Version{}, ErrNotFound
	}
	return sel[len(sel)-1], nil
}
