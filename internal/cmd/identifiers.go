package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/javierturcios2607/ingestor/pkg/fetch"
)

// parseIdentifiers builds the identifier sequence from either an
// explicit comma-separated list or an inclusive numeric range of the
// form "start-end". Exactly one of the two must be given.
func parseIdentifiers(list, idRange string) ([]fetch.Identifier, error) {
	if list != "" && idRange != "" {
		return nil, fmt.Errorf("--ids and --id-range are mutually exclusive")
	}

	if list != "" {
		parts := strings.Split(list, ",")
		ids := make([]fetch.Identifier, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("identifier list contains an empty entry")
			}
			ids = append(ids, fetch.Identifier(p))
		}
		return ids, nil
	}

	if idRange != "" {
		bounds := strings.SplitN(idRange, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("id range must have the form start-end, got %q", idRange)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q", bounds[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q", bounds[1])
		}
		if end < start {
			return nil, fmt.Errorf("range end %d is before start %d", end, start)
		}

		ids := make([]fetch.Identifier, 0, end-start+1)
		for i := start; i <= end; i++ {
			ids = append(ids, fetch.Identifier(strconv.Itoa(i)))
		}
		return ids, nil
	}

	return nil, fmt.Errorf("either --ids or --id-range is required")
}
