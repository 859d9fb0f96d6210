package chart

import (
	"fmt"
	"strings"
)

// Kind is the chart kind of a request
type Kind int

const (
	Line Kind = iota
	Scatter
	Bar
	Pie
)

var kindNames = [...]string{"Line", "Scatter", "Bar", "Pie"}

// Kinds returns every chart kind in the order the page offers them
func Kinds() []Kind {
	return []Kind{Line, Scatter, Bar, Pie}
}

// KindNames returns the display names of Kinds()
func KindNames() []string {
	names := make([]string, len(kindNames))
	copy(names, kindNames[:])
	return names
}

func (k Kind) String() string {
	if k < Line || k > Pie {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts a kind name in any case
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSpace(s)
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i), nil
		}
	}
	return Line, fmt.Errorf("unknown chart kind %q", s)
}

// MarshalText renders the kind name in JSON payloads
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// title returns the plot title for a y and effective x column
func (k Kind) title(x, y string) string {
	switch k {
	case Scatter:
		return fmt.Sprintf("%s vs %s (Scatter Plot)", y, x)
	case Bar:
		return fmt.Sprintf("%s vs %s (Bar Chart)", y, x)
	case Pie:
		return fmt.Sprintf("%s (Pie Chart)", y)
	default:
		return fmt.Sprintf("%s vs %s (Line Plot)", y, x)
	}
}
