package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// messager matches errors that report their own message without the chain, like zerr.Error.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

type multiUnwrapper interface {
	Unwrap() []error
}

// ErrorEntry is one link of an error chain as presented to the user.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries flattens err into display entries, outermost first.
// Links without a message lend their metadata to the next entry.
// Joined errors contribute each branch in order.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	collectInto(&entries, err, nil)
	return entries
}

func collectInto(entries *[]ErrorEntry, err error, pending map[string]any) {
	for err != nil {
		if joined, ok := err.(multiUnwrapper); ok {
			for _, branch := range joined.Unwrap() {
				collectInto(entries, branch, pending)
				pending = nil
			}
			return
		}

		m, ok := err.(messager)
		if !ok {
			*entries = append(*entries, ErrorEntry{Message: err.Error(), Metadata: pending})
			return
		}

		md := pending
		if mdErr, ok := err.(metadataer); ok {
			if own := mdErr.Metadata(); len(own) > 0 {
				if md == nil {
					md = make(map[string]any, len(own))
				}
				maps.Copy(md, own)
			}
		}

		if m.Message() == "" {
			pending = md
		} else {
			*entries = append(*entries, ErrorEntry{Message: m.Message(), Metadata: md})
			pending = nil
		}

		err = errors.Unwrap(err)
	}

	if len(pending) > 0 && len(*entries) > 0 {
		last := &(*entries)[len(*entries)-1]
		if last.Metadata == nil {
			last.Metadata = make(map[string]any, len(pending))
		}
		maps.Copy(last.Metadata, pending)
	}
}

// formatErrorEntries renders entries as "Error: ..." followed by a "Caused by:" list.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		var head, indent string
		if i == 0 {
			head, indent = "Error: ", "       "
		} else {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}

		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}

	return strings.Join(lines, "\n")
}
