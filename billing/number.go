package billing

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultPrefix = "BW"

// FormatNumber renders n as PREFIX-NNNN. Numbers past 9999 keep growing in width.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// ParseNumber returns the numeric suffix of a bill number, or 0 when there is
// none or it is not a number.
func ParseNumber(number string) int {
	i := strings.LastIndex(number, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
