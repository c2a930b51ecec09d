package stats

import (
	"fmt"
	"time"
)

// ShameLevel is the message shown once a given amount of time has passed
// without completing a task.
type ShameLevel struct {
	Threshold time.Duration `json:"threshold"`
	Message   string        `json:"message"`
}

var shameLevels = []ShameLevel{
	{0, "THE CLOCK IS TICKING..."},
	{time.Minute, "A MINUTE WASTED. PURE WEAKNESS."},
	{2 * time.Minute, "TWO MINUTES OF NOTHING. DO SOMETHING."},
	{5 * time.Minute, "FIVE MINUTES. YOU'RE SLACKING OFF."},
	{10 * time.Minute, "TEN MINUTES? DISGRACEFUL."},
	{20 * time.Minute, "TWENTY MINUTES. ARE YOU EVEN TRYING?"},
	{30 * time.Minute, "HALF AN HOUR GONE. ABSOLUTELY PATHETIC."},
	{time.Hour, "AN HOUR OF INACTIVITY. SHAMEFUL."},
	{2 * time.Hour, "TWO HOURS. YOU CAN DO BETTER."},
	{4 * time.Hour, "FOUR HOURS. YOU'RE DOING IT WRONG."},
	{8 * time.Hour, "EIGHT HOURS. ARE YOU DOING ANYTHING AT ALL?"},
	{12 * time.Hour, "TWELVE HOURS. HALF A DAY THROWN AWAY."},
	{24 * time.Hour, "ONE DAY. THAT'S 0.003% OF YOUR LIFE."},
	{48 * time.Hour, "TWO DAYS. YOU'RE NOT MAKING IT THIS WAY."},
	{72 * time.Hour, "THREE DAYS. ALMOST 0.01% OF YOUR LIFE."},
	{7 * 24 * time.Hour, "ONE WEEK. ARE YOU THERE?"},
	{14 * 24 * time.Hour, "TWO WEEKS. GET UP."},
	{28 * 24 * time.Hour, "THREE WEEKS. OUTWORK THEM."},
	{56 * 24 * time.Hour, "ONE MONTH. YOU'RE NEVER WINNING AT THIS PACE."},
}

// Shame returns the highest level whose threshold elapsed has reached.
// Negative durations are treated as zero.
func Shame(elapsed time.Duration) ShameLevel {
	level := shameLevels[0]
	for _, l := range shameLevels {
		if elapsed >= l.Threshold {
			level = l
		}
	}
	return level
}

// FormatClock renders elapsed as MM:SS, with minutes allowed to exceed 59.
func FormatClock(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	secs := int(elapsed / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
