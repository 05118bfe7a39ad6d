package log

import (
	"fmt"
	"strings"
)

// Category classifies a game log line for presentation.
type Category int

const (
	CategoryInfo Category = iota
	CategoryAction
	CategoryReward
	CategoryHazard
	CategoryVictory
)

var categoryNames = [...]string{"info", "action", "reward", "hazard", "victory"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("unknown log category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	for i, name := range categoryNames {
		if strings.EqualFold(name, string(text)) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown log category %q", text)
}

// Entry is one human-readable line in the game log.
type Entry struct {
	Turn     int      `json:"turn"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
}

// NewEntry formats an entry for the given turn.
func NewEntry(turn int, category Category, format string, args ...any) Entry {
	return Entry{
		Turn:     turn,
		Message:  fmt.Sprintf(format, args...),
		Category: category,
	}
}

// FormatEntry formats a single entry as an aligned text line.
func FormatEntry(e Entry) string {
	return fmt.Sprintf("T%-2d %-8s| %s", e.Turn, e.Category, e.Message)
}

// FormatAll formats all entries as a multi-line string.
func FormatAll(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(FormatEntry(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}
