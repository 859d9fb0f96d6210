package services

import (
	"fmt"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
)

// rendererReady loads the embedded chart font, which every render needs
func rendererReady() error {
	if _, err := chart.GetDefaultFont(); err != nil {
		return fmt.Errorf("chart font unavailable: %w", err)
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
