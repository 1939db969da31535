package main

import (
	"fmt"
	"strings"
)

// parseAssignment splits "ID=VALUE".
func parseAssignment(raw string) (id, value string, err error) {
	id, value, ok := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", "", fmt.Errorf("%q: want ID=VALUE", raw)
	}
	return id, value, nil
}

// parseMark splits "ID:LABEL=VALUE". The value may be empty to clear a score.
func parseMark(raw string) (id, label, value string, err error) {
	id, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return "", "", "", fmt.Errorf("%q: want ID:LABEL=VALUE", raw)
	}
	label, value, ok = strings.Cut(rest, "=")
	id, label = strings.TrimSpace(id), strings.TrimSpace(label)
	if !ok || id == "" || label == "" {
		return "", "", "", fmt.Errorf("%q: want ID:LABEL=VALUE", raw)
	}
	return id, label, value, nil
}
