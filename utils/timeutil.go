package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidGameTime = errors.New("game time must be in MM:SS format")

// ParseGameTime переводит строку "MM:SS" в секунды. Пустая строка даёт 0.
func ParseGameTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	minPart, secPart, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGameTime, s)
	}

	minutes, err := strconv.Atoi(minPart)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGameTime, s)
	}
	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 || len(secPart) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGameTime, s)
	}

	return minutes*60 + seconds, nil
}

// FormatGameTime is the inverse of ParseGameTime. Minutes are not wrapped into hours.
func FormatGameTime(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

// SumGameTimes складывает список значений "MM:SS", например "12:30, 08:45".
func SumGameTimes(list string) (string, error) {
	total := 0
	for _, part := range strings.Split(list, ",") {
		secs, err := ParseGameTime(part)
		if err != nil {
			return "", err
		}
		total += secs
	}
	return FormatGameTime(total), nil
}
