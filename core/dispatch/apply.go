package dispatch

import "github.com/kilianp07/sortie/core/model"

// Apply dispatches every slot of r against wx in roster order and returns the
// new roster. Each simulator outcome, whether planned or converted, is
// counted before the next slot is checked.
func Apply(r model.Roster, students map[string]model.Student, wx model.WeatherReport, sims []model.Simulator) model.Roster {
	out := r.Clone()
	usage := NewSimUsage()
	for i := range out.Days {
		for j, slot := range out.Days[i].Slots {
			res := Check(slot, students[slot.StudentID], wx, sims, usage)
			usage.RecordSlot(res)
			Observe(res)
			out.Days[i].Slots[j] = res
		}
	}
	out.Weather = wx.Summary()
	return out
}
