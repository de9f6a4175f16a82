package engine

import (
	"math"
	"time"
)

// snapValues is the standard tournament blind ladder: 1-8 singles, then
// {10,15,20,25,30,40,50,60,80} times powers of ten
var snapValues = buildSnapValues()

func buildSnapValues() []int {
	values := []int{1, 2, 3, 4, 5, 6, 8}
	mantissas := []int{10, 15, 20, 25, 30, 40, 50, 60, 80}

	for mult := 1; mult <= 100_000_000; mult *= 10 {
		for _, m := range mantissas {
			values = append(values, m*mult)
		}
	}

	return values
}

// snap rounds v to the nearest ladder value, preferring the lower on a tie
func snap(v int) int {
	if v <= snapValues[0] {
		return snapValues[0]
	}

	for i := 1; i < len(snapValues); i++ {
		if snapValues[i] < v {
			continue
		}

		below, above := snapValues[i-1], snapValues[i]
		if v-below <= above-v {
			return below
		}

		return above
	}

	return snapValues[len(snapValues)-1]
}

func smallBlindFor(bb int) int {
	sb := bb / 2
	if sb < 1 {
		sb = 1
	}

	return sb
}

// BuildBlindSchedule builds the escalating blind schedule for the settings'
// target game time: a linear phase for the first half of the levels, a
// geometric phase aiming the big blind at the starting stack, and overtime
// levels at 1.5x until the big blind reaches three starting stacks.
// A zero level duration means fixed blinds for the whole game.
func BuildBlindSchedule(settings Settings) []BlindLevel {
	if settings.BlindLevelDurationMinutes == 0 {
		return []BlindLevel{{
			SmallBlind: settings.SmallBlindInitial,
			BigBlind:   settings.BigBlindInitial,
		}}
	}

	chips := settings.StartingChips
	levels := settings.TargetDurationMinutes / settings.BlindLevelDurationMinutes
	if levels < 1 {
		levels = 1
	}

	bbInitial := snap(chips / 100)
	schedule := make([]BlindLevel, 0, levels)

	linear := (levels + 1) / 2
	for i := 1; i <= linear; i++ {
		bb := bbInitial * i
		schedule = append(schedule, BlindLevel{SmallBlind: smallBlindFor(bb), BigBlind: bb})
	}

	lastBB := schedule[len(schedule)-1].BigBlind
	remaining := levels - linear

	if remaining > 0 && lastBB < chips {
		switch {
		case remaining == 1:
			bb := snap(chips)
			schedule = append(schedule, BlindLevel{SmallBlind: smallBlindFor(bb), BigBlind: bb})
		default:
			ratio := math.Pow(float64(chips)/float64(lastBB), 1/float64(remaining-1))
			exact := float64(lastBB)
			for i := 0; i < remaining; i++ {
				exact *= ratio
				bb := snap(int(math.Round(exact)))
				schedule = append(schedule, BlindLevel{SmallBlind: smallBlindFor(bb), BigBlind: bb})
			}
		}
	}

	// overtime: keep climbing until the big blind forces an ending
	bb := schedule[len(schedule)-1].BigBlind
	for bb < 3*chips {
		bb = snap(int(math.Round(float64(bb) * 1.5)))
		schedule = append(schedule, BlindLevel{SmallBlind: smallBlindFor(bb), BigBlind: bb})
	}

	return schedule
}

// levelDuration returns the blind level duration, or 0 for fixed blinds
func (e *Engine) levelDuration() time.Duration {
	return time.Duration(e.Settings.BlindLevelDurationMinutes) * time.Minute
}

// elapsedLevel returns which level the effective elapsed time lands in,
// unclamped against the schedule length
func (e *Engine) elapsedLevel(now time.Time) int {
	duration := e.levelDuration()
	if duration == 0 {
		return 0
	}

	return int(e.EffectiveElapsed(now) / duration)
}

// syncBlinds advances the blind level for now, appending 1.5x levels
// whenever the clock has outrun the schedule
func (e *Engine) syncBlinds(now time.Time) {
	if e.levelDuration() == 0 || len(e.BlindSchedule) == 0 {
		return
	}

	lvl := e.elapsedLevel(now)
	for lvl >= len(e.BlindSchedule) {
		last := e.BlindSchedule[len(e.BlindSchedule)-1].BigBlind
		bb := snap(int(math.Round(float64(last) * 1.5)))
		e.BlindSchedule = append(e.BlindSchedule, BlindLevel{SmallBlind: smallBlindFor(bb), BigBlind: bb})
	}

	e.BlindLevel = lvl
}

// CurrentLevel returns the blind level for now, clamped to the schedule,
// without mutating the engine
func (e *Engine) CurrentLevel(now time.Time) int {
	if e.levelDuration() == 0 || len(e.BlindSchedule) == 0 {
		return 0
	}

	lvl := e.elapsedLevel(now)
	if lvl > len(e.BlindSchedule)-1 {
		lvl = len(e.BlindSchedule) - 1
	}

	return lvl
}

// Blinds returns the small and big blind for the current level
func (e *Engine) Blinds() (int, int) {
	if len(e.BlindSchedule) == 0 {
		return e.Settings.SmallBlindInitial, e.Settings.BigBlindInitial
	}

	lvl := e.BlindLevel
	if lvl > len(e.BlindSchedule)-1 {
		lvl = len(e.BlindSchedule) - 1
	}

	return e.BlindSchedule[lvl].SmallBlind, e.BlindSchedule[lvl].BigBlind
}

// NextBlindChangeAt returns the wall time the next level begins, or nil when
// the game is over or blinds are fixed
func (e *Engine) NextBlindChangeAt(now time.Time) *time.Time {
	duration := e.levelDuration()
	if duration == 0 || e.GameOver {
		return nil
	}

	lvl := e.CurrentLevel(now)
	remaining := time.Duration(lvl+1)*duration - e.EffectiveElapsed(now)
	at := now.Add(remaining)

	return &at
}
