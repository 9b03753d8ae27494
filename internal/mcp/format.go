package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"tideline-mcp/internal/marketdata"
)

// maxPageRecords caps how many records of a paginated listing are
// rendered. Non-paginated listings (instrument lists, single snapshots)
// are never truncated.
const maxPageRecords = 50

type formatMeta struct {
	paginated  bool
	nextCursor string
}

// formatRecords renders a record listing: a count header, a blank line,
// and the records as indented JSON. Total for any input, including an
// empty or nil slice.
func formatRecords(records []json.RawMessage, meta formatMeta) string {
	if records == nil {
		records = []json.RawMessage{}
	}

	header := fmt.Sprintf("Returned %d record", len(records))
	if len(records) != 1 {
		header += "s"
	}
	if meta.paginated && len(records) > maxPageRecords {
		records = records[:maxPageRecords]
		header += fmt.Sprintf(" (showing first %d; use cursor to get more)", maxPageRecords)
	}
	if meta.nextCursor != "" {
		header += "\nMore data is available. Call the tool again with cursor=" +
			strconv.Quote(meta.nextCursor) + " to fetch the next page."
	}
	return header + "\n\n" + prettyJSON(records)
}

// formatValue renders a bare API value. Arrays still get a count header
// so the caller sees result size at a glance; objects render as-is.
func formatValue(raw json.RawMessage) string {
	if isJSONArray(raw) {
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err == nil {
			return formatRecords(records, formatMeta{})
		}
	}
	return prettyJSON(raw)
}

func formatPage(page *marketdata.Page, paginated bool) string {
	if page == nil {
		return formatRecords(nil, formatMeta{})
	}
	return formatRecords(page.Data, formatMeta{paginated: paginated, nextCursor: page.NextCursor})
}

func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
