package reallocation

import "github.com/kilianp07/sortie/core/model"

// FieldChange is the old and new value of one slot field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Modification lists the changed fields of a slot present in both rosters.
type Modification struct {
	SlotID  string                 `json:"slot_id"`
	Changes map[string]FieldChange `json:"changes"`
}

// Diff describes how a roster changed between two versions.
type Diff struct {
	Added        []model.RosterSlot `json:"added"`
	Removed      []model.RosterSlot `json:"removed"`
	Modified     []Modification     `json:"modified"`
	TotalChanges int                `json:"total_changes"`
}

// IsEmpty reports whether nothing changed.
func (d Diff) IsEmpty() bool { return d.TotalChanges == 0 }

// SlotIDs returns the ids of added, removed and modified slots in that order.
func (d Diff) SlotIDs() []string {
	ids := make([]string, 0, d.TotalChanges)
	for _, s := range d.Added {
		ids = append(ids, s.SlotID)
	}
	for _, s := range d.Removed {
		ids = append(ids, s.SlotID)
	}
	for _, m := range d.Modified {
		ids = append(ids, m.SlotID)
	}
	return ids
}

// compared lists the fields that make a slot count as modified, in report order.
var compared = []struct {
	name string
	get  func(model.RosterSlot) string
}{
	{"activity", func(s model.RosterSlot) string { return string(s.Activity) }},
	{"student_id", func(s model.RosterSlot) string { return s.StudentID }},
	{"instructor_id", func(s model.RosterSlot) string { return s.InstructorID }},
	{"resource_id", func(s model.RosterSlot) string { return s.ResourceID }},
	{"sortie_type", func(s model.RosterSlot) string { return string(s.SortieType) }},
	{"dispatch_decision", func(s model.RosterSlot) string { return string(s.DispatchDecision) }},
}

// ComputeDiff compares two rosters by slot id. Added entries follow the new
// roster order; removed and modified entries follow the old roster order.
func ComputeDiff(oldR, newR model.Roster) Diff {
	d := Diff{
		Added:    []model.RosterSlot{},
		Removed:  []model.RosterSlot{},
		Modified: []Modification{},
	}
	oldSlots := oldR.Slots()
	newSlots := newR.Slots()

	oldByID := make(map[string]model.RosterSlot, len(oldSlots))
	for _, s := range oldSlots {
		oldByID[s.SlotID] = s
	}
	newByID := make(map[string]model.RosterSlot, len(newSlots))
	for _, s := range newSlots {
		newByID[s.SlotID] = s
	}

	for _, s := range newSlots {
		if _, ok := oldByID[s.SlotID]; !ok {
			d.Added = append(d.Added, s.Clone())
		}
	}
	for _, o := range oldSlots {
		n, ok := newByID[o.SlotID]
		if !ok {
			d.Removed = append(d.Removed, o.Clone())
			continue
		}
		changes := map[string]FieldChange{}
		for _, f := range compared {
			if ov, nv := f.get(o), f.get(n); ov != nv {
				changes[f.name] = FieldChange{Old: ov, New: nv}
			}
		}
		if len(changes) > 0 {
			d.Modified = append(d.Modified, Modification{SlotID: o.SlotID, Changes: changes})
		}
	}
	d.TotalChanges = len(d.Added) + len(d.Removed) + len(d.Modified)
	return d
}

// ChurnRate is the changed share of the old roster in percent, 0 for an
// empty old roster.
func ChurnRate(d Diff, oldSlotCount int) float64 {
	if oldSlotCount == 0 {
		return 0
	}
	return float64(d.TotalChanges) / float64(oldSlotCount) * 100
}
