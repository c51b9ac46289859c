package requests

import (
	"fmt"
	"strings"

	"abstagsync/internal/services"
)

// fieldSeparator is passed to psql with -F.
const fieldSeparator = "|"

// ParseLine decodes one line of unaligned psql output. ok is false for lines
// that carry no separator, such as blank lines. A line with a separator must
// hold exactly three fields.
func ParseLine(line string) (row Row, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.Contains(line, fieldSeparator) {
		return Row{}, false, nil
	}
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 3 {
		return Row{}, false, services.Wrap(services.ErrParse, "requests", "parse row",
			fmt.Sprintf("expected 3 fields, got %d in %q", len(fields), line), nil)
	}
	return Row{ASIN: fields[0], Email: fields[1], BackupName: fields[2]}, true, nil
}
