// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a name with an optional index, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_@-]+)(?:\[(\d+)\])?$`)

// nameRegex matches a module qualifier.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidName checks for undesirable but technically valid names.
func isValidName(name string) bool {
	return name != "-" && name != "@"
}

// Parse creates an Address from its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	parts := strings.Split(rawID, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("identifier %q has more than one module qualifier", rawID)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("identifier %q contains an empty segment", rawID)
		}
	}

	addr := New("")
	last := parts[len(parts)-1]
	if len(parts) == 2 {
		if !nameRegex.MatchString(parts[0]) || !isValidName(parts[0]) {
			return nil, fmt.Errorf("invalid module name: %q", parts[0])
		}
		addr.Module = parts[0]
	}

	matches := segmentRegex.FindStringSubmatch(last)
	if matches == nil {
		return nil, fmt.Errorf("invalid instruction reference: %q", last)
	}
	if !isValidName(matches[1]) {
		return nil, fmt.Errorf("invalid instruction name: %q", matches[1])
	}
	addr.Name = matches[1]

	if matches[2] != "" {
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("index of %q: %w", rawID, err)
		}
		addr.Index = index
	}
	return addr, nil
}
