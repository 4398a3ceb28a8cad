package todo

import "time"

// DailyAnchor returns the most recent instant at hour:00:00 local time
// that is not after now. If now is earlier than today's occurrence, the
// anchor is yesterday's.
func DailyAnchor(now time.Time, hour int) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if now.Before(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// WeeklyAnchor returns the most recent occurrence of weekday at
// hour:00:00 local time that is not after now. weekday follows
// time.Weekday numbering (0 = Sunday).
func WeeklyAnchor(now time.Time, weekday, hour int) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	d = d.AddDate(0, 0, weekday-int(d.Weekday()))
	if now.Before(d) {
		d = d.AddDate(0, 0, -7)
	}
	return d
}

func counterCount(values GridValues, taskID, charID string) int {
	row, ok := values[taskID]
	if !ok {
		return 0
	}
	cell, ok := row[charID]
	if !ok || cell.Type != CellCounter {
		return 0
	}
	return cell.Count
}

// ApplyDailyRestUpdate adjusts every character's rest gauges from the
// completion state of the two fixed daily tasks. It must see the values
// as they stood immediately before the daily clear: a skipped activity
// credits the gauge, a completed one debits it, and a debit is skipped
// entirely while the gauge is below the debit step (the gauge never
// goes negative and is never partially decremented).
func ApplyDailyRestUpdate(state State) State {
	tables := make([]Table, len(state.Tables))
	for i, tbl := range state.Tables {
		gauges := make(map[string]RestGauge, len(tbl.Characters))
		for k, v := range tbl.RestGauges {
			gauges[k] = v
		}

		for _, ch := range tbl.Characters {
			cur := gauges[ch.ID]

			chaos := clamp(cur.Chaos, 0, ChaosGaugeMax)
			if clamp(counterCount(tbl.Values, MainDailyTaskID, ch.ID), 0, 1) == 0 {
				chaos = clamp(chaos+ChaosGaugeCredit, 0, ChaosGaugeMax)
			} else if chaos >= ChaosGaugeDebit {
				chaos -= ChaosGaugeDebit
			}

			guardian := clamp(cur.Guardian, 0, GuardianGaugeMax)
			if clamp(counterCount(tbl.Values, GuardianTaskID, ch.ID), 0, 1) == 0 {
				guardian = clamp(guardian+GuardianGaugeCredit, 0, GuardianGaugeMax)
			} else if guardian >= GuardianGaugeDebit {
				guardian -= GuardianGaugeDebit
			}

			gauges[ch.ID] = RestGauge{Chaos: chaos, Guardian: guardian}
		}

		tbl.RestGauges = gauges
		tables[i] = tbl
	}

	state.Tables = tables
	return state
}

// ResetByPeriod clears every recorded answer for tasks of the given
// period, in every roster. With hard set, the matching last-reset stamp
// is set to the current wall clock; otherwise the caller manages the
// stamp (the catch-up scheduler advances it one boundary at a time).
func ResetByPeriod(state State, period Period, hard bool) State {
	var targets []string
	for _, t := range state.Tasks {
		if t.Period == period {
			targets = append(targets, t.ID)
		}
	}

	tables := make([]Table, len(state.Tables))
	for i, tbl := range state.Tables {
		values := make(GridValues, len(tbl.Values))
		for k, v := range tbl.Values {
			values[k] = v
		}
		for _, id := range targets {
			if _, ok := values[id]; ok {
				values[id] = map[string]CellValue{}
			}
		}
		tbl.Values = values
		tables[i] = tbl
	}
	state.Tables = tables

	if hard {
		now := nowMillis()
		switch period {
		case PeriodDaily:
			state.Reset.LastDailyResetAt = now
		case PeriodWeekly:
			state.Reset.LastWeeklyResetAt = now
		}
	}
	return state
}

// RunDailyResetNow performs one rest-gauge update plus one daily clear
// immediately, independent of the catch-up cursors. With hard set the
// daily stamp is moved to now.
func RunDailyResetNow(state State, hard bool) State {
	next := ApplyDailyRestUpdate(state)
	next = ResetByPeriod(next, PeriodDaily, false)
	if hard {
		next.Reset.LastDailyResetAt = nowMillis()
	}
	return next
}

// ApplyAutoResetIfNeeded replays every daily and weekly boundary missed
// since the respective last applied reset, in chronological order. Safe
// to call arbitrarily often: once both cursors match the current
// anchors, further calls return the state unchanged.
func ApplyAutoResetIfNeeded(state State) State {
	return ApplyAutoResetAt(state, time.Now())
}

// ApplyAutoResetAt is ApplyAutoResetIfNeeded against an explicit clock.
func ApplyAutoResetAt(state State, now time.Time) State {
	dailyAnchor := DailyAnchor(now, state.Reset.DailyResetHour)
	weeklyAnchor := WeeklyAnchor(now, state.Reset.WeeklyResetWeekday, state.Reset.DailyResetHour)

	next := state

	// On a brand-new install the cursor is unset; replaying "missed"
	// boundaries would retroactively punish activity from before the
	// app ever ran, so only initialize the cursor.
	if next.Reset.LastDailyResetAt == 0 {
		next.Reset.LastDailyResetAt = dailyAnchor.UnixMilli()
	} else {
		cursor := DailyAnchor(time.UnixMilli(next.Reset.LastDailyResetAt).In(now.Location()), next.Reset.DailyResetHour)
		for cursor.Before(dailyAnchor) {
			next = ApplyDailyRestUpdate(next)
			next = ResetByPeriod(next, PeriodDaily, false)
			cursor = cursor.AddDate(0, 0, 1)
			next.Reset.LastDailyResetAt = cursor.UnixMilli()
		}
	}

	if next.Reset.LastWeeklyResetAt == 0 {
		next.Reset.LastWeeklyResetAt = weeklyAnchor.UnixMilli()
	} else {
		cursor := WeeklyAnchor(time.UnixMilli(next.Reset.LastWeeklyResetAt).In(now.Location()), next.Reset.WeeklyResetWeekday, next.Reset.DailyResetHour)
		for cursor.Before(weeklyAnchor) {
			next = ResetByPeriod(next, PeriodWeekly, false)
			cursor = cursor.AddDate(0, 0, 7)
			next.Reset.LastWeeklyResetAt = cursor.UnixMilli()
		}
	}

	return next
}
