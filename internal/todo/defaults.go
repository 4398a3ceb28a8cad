package todo

import "time"

const (
	DefaultDailyResetHour     = 6
	DefaultWeeklyResetWeekday = 3 // Wednesday
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// DefaultState builds the state used on first run: one roster with a
// few placeholder characters and the stock chore list, including the
// two fixed-id daily tasks the rest-gauge updater watches.
func DefaultState() State {
	characters := []Character{
		NewCharacter("Main", "1710", "2500+"),
		NewCharacter("Alt 1", "1710", "2500+"),
		NewCharacter("Alt 2", "1770", "6000+"),
	}

	baseOrder := nowMillis()

	tasks := []Task{
		NewTask(TaskInput{Title: "Guild check-in", Period: PeriodDaily, CellType: CellCheck, Section: "Daily chores", Order: baseOrder + 1}),
		NewTask(TaskInput{ID: MainDailyTaskID, Title: "Chaos dungeon", Period: PeriodDaily, CellType: CellCounter, Max: 1, Section: "Daily chores", Order: baseOrder + 2}),
		NewTask(TaskInput{ID: GuardianTaskID, Title: "Guardian raid", Period: PeriodDaily, CellType: CellCounter, Max: 1, Section: "Daily chores", Order: baseOrder + 3}),

		NewTask(TaskInput{Title: "Celestial exchange", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly exchange"}),
		NewTask(TaskInput{Title: "Bloodstone exchange", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly exchange"}),
		NewTask(TaskInput{Title: "Medal exchange", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly exchange"}),

		NewTask(TaskInput{Title: "Act 1", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids"}),
		NewTask(TaskInput{Title: "Act 2", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids"}),
		NewTask(TaskInput{Title: "Act 3", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids"}),
		NewTask(TaskInput{Title: "Act 4", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids"}),
		NewTask(TaskInput{Title: "Finale", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids"}),

		NewTask(TaskInput{Title: "Cube", Period: PeriodNone, CellType: CellText, Section: "Misc"}),
	}

	gauges := make(map[string]RestGauge, len(characters))
	for _, c := range characters {
		gauges[c.ID] = RestGauge{}
	}

	table := Table{
		ID:         newTableID(),
		Name:       "Roster 1",
		Characters: characters,
		Values:     GridValues{},
		RestGauges: gauges,
	}

	return State{
		Tables:        []Table{table},
		ActiveTableID: table.ID,
		Tasks:         tasks,
		Reset: ResetState{
			DailyResetHour:     DefaultDailyResetHour,
			WeeklyResetWeekday: DefaultWeeklyResetWeekday,
		},
	}
}
