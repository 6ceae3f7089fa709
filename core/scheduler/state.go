package scheduler

// MaxAircraftSortiesPerDay caps the sorties flown by one aircraft per date.
const MaxAircraftSortiesPerDay = 2

// dutyBufferMinutes is added to every instructor session for briefing.
const dutyBufferMinutes = 60

type ledgerKey struct {
	id   string
	date string
}

// BookingState is the mutable ledger of one generation or replanning call.
// Students, instructors, aircraft and simulators share a single namespace of
// ids, so a booking made under any kind blocks the id for every kind.
// It is not safe for concurrent use and must not outlive the call that
// created it.
type BookingState struct {
	booked        map[ledgerKey][]Window
	dutyMinutes   map[ledgerKey]int
	aircraftCount map[ledgerKey]int
	simCount      map[ledgerKey]int
	weekly        map[string]int
}

// NewBookingState returns an empty ledger.
func NewBookingState() *BookingState {
	return &BookingState{
		booked:        make(map[ledgerKey][]Window),
		dutyMinutes:   make(map[ledgerKey]int),
		aircraftCount: make(map[ledgerKey]int),
		simCount:      make(map[ledgerKey]int),
		weekly:        make(map[string]int),
	}
}

// IsFree reports whether id has no booking on date overlapping w.
func (b *BookingState) IsFree(id, date string, w Window) bool {
	for _, existing := range b.booked[ledgerKey{id, date}] {
		if existing.Overlaps(w) {
			return false
		}
	}
	return true
}

// Book records w for id on date. Callers check IsFree first; nothing is
// deduplicated here.
func (b *BookingState) Book(id, date string, w Window) {
	k := ledgerKey{id, date}
	b.booked[k] = append(b.booked[k], w)
}

// InstructorDutyOK reports whether adding w (plus the duty buffer) keeps the
// instructor within maxHours on date.
func (b *BookingState) InstructorDutyOK(id, date string, w Window, maxHours float64) bool {
	used := b.dutyMinutes[ledgerKey{id, date}]
	return float64(used+w.Minutes()+dutyBufferMinutes) <= maxHours*60
}

// LogInstructorDuty accumulates w plus the duty buffer.
func (b *BookingState) LogInstructorDuty(id, date string, w Window) {
	b.dutyMinutes[ledgerKey{id, date}] += w.Minutes() + dutyBufferMinutes
}

// DutyHours returns the accumulated duty of an instructor on date.
func (b *BookingState) DutyHours(id, date string) float64 {
	return float64(b.dutyMinutes[ledgerKey{id, date}]) / 60
}

// AircraftSortiesOK reports whether the aircraft can fly another sortie on date.
func (b *BookingState) AircraftSortiesOK(id, date string) bool {
	return b.aircraftCount[ledgerKey{id, date}] < MaxAircraftSortiesPerDay
}

// LogAircraftSortie counts one sortie for the aircraft on date.
func (b *BookingState) LogAircraftSortie(id, date string) {
	b.aircraftCount[ledgerKey{id, date}]++
}

// SimSessionsOK reports whether the simulator is below maxSessions on date.
func (b *BookingState) SimSessionsOK(id, date string, maxSessions int) bool {
	return b.simCount[ledgerKey{id, date}] < maxSessions
}

// LogSimSession counts one session for the simulator on date.
func (b *BookingState) LogSimSession(id, date string) {
	b.simCount[ledgerKey{id, date}]++
}

// StudentWeeklyOK reports whether the student is still below required.
func (b *BookingState) StudentWeeklyOK(id string, required int) bool {
	return b.weekly[id] < required
}

// LogStudentSortie counts one weekly sortie for the student.
func (b *BookingState) LogStudentSortie(id string) {
	b.weekly[id]++
}
