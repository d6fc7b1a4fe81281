package report

import (
	"encoding/json"
	"io"
)

// JSONWriter writes an indented array of records
type JSONWriter struct {
	Verbose bool
}

type jsonRecord struct {
	Contributor string             `json:"contributor"`
	Type        string             `json:"type"`
	Confidence  interface{}        `json:"confidence"`
	QueriesUsed int                `json:"queries_used"`
	Error       string             `json:"error,omitempty"`
	Features    map[string]float64 `json:"features,omitempty"`
}

func (j *JSONWriter) Write(w io.Writer, rows []Row) error {
	records := make([]jsonRecord, 0, len(rows))
	for _, r := range rows {
		rec := jsonRecord{
			Contributor: r.Contributor,
			Type:        r.Type,
			Confidence:  "-",
			QueriesUsed: r.QueriesUsed,
			Error:       r.Error,
		}
		if r.Confidence != nil {
			rec.Confidence = *r.Confidence
		}
		if j.Verbose && r.Features != nil {
			rec.Features = r.Features.Map()
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}
