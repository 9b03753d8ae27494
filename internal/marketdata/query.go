package marketdata

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Page is one slice of a cursor-paginated listing. NextCursor is an
// opaque token: present means more data exists, absent means exhaustion.
type Page struct {
	Data       []json.RawMessage `json:"data"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// HistoryQuery carries the common window/pagination parameters for
// history endpoints. Zero values are omitted from the request so the
// server's own defaults apply.
type HistoryQuery struct {
	Start  int64
	End    int64
	Limit  int
	Cursor string

	// Extra holds endpoint-specific parameters (interval, side).
	Extra map[string]string
}

func (q HistoryQuery) values(symbol string) url.Values {
	v := url.Values{}
	v.Set("symbol", symbol)
	if q.Start > 0 {
		v.Set("start", strconv.FormatInt(q.Start, 10))
	}
	if q.End > 0 {
		v.Set("end", strconv.FormatInt(q.End, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	for key, val := range q.Extra {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// IncidentQuery filters the data-quality incident log.
type IncidentQuery struct {
	Exchange string
	Status   string
	Since    int64
	Limit    int
	Cursor   string
}

func (q IncidentQuery) values() url.Values {
	v := url.Values{}
	if q.Exchange != "" {
		v.Set("exchange", q.Exchange)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Since > 0 {
		v.Set("since", strconv.FormatInt(q.Since, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	return v
}
