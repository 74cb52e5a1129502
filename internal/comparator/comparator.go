package comparator

import (
	"strconv"

	"github.com/victorlunam/spcheck/internal/models"
	"golang.org/x/text/cases"
)

// Compare walks left and right in lockstep and records every line that
// differs after case folding. The walk stops at the end of the shorter
// sequence or once maxErrors content mismatches have been recorded. When the
// lengths differ a final record with Line 0 and the two lengths is appended,
// regardless of maxErrors.
func Compare(left, right []string, maxErrors int) []models.Mismatch {
	fold := cases.Fold()
	mismatches := []models.Mismatch{}

	for line := 0; line < len(left) && line < len(right) && len(mismatches) < maxErrors; line++ {
		l := fold.String(left[line])
		r := fold.String(right[line])

		if l != r {
			mismatches = append(mismatches, models.Mismatch{Line: line, Left: l, Right: r})
		}
	}

	if len(left) != len(right) {
		mismatches = append(mismatches, models.Mismatch{
			Line:  0,
			Left:  strconv.Itoa(len(left)),
			Right: strconv.Itoa(len(right)),
		})
	}

	return mismatches
}

// Equivalent reports whether a comparison found nothing at all. A pure length
// mismatch is not equivalent.
func Equivalent(mismatches []models.Mismatch) bool {
	return len(mismatches) == 0
}
