package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tripmate/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_start_date", "trip_end_date",
	"day_index", "date", "weekday", "title", "location",
	"cost", "cost_per_person", "notes", "participants",
}

// GetExport handles GET /trips/{tripID}/export.
// It returns one row per activity. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := queryString(r, "format", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if format != "" && format != "csv" && format != "json" {
		s.writeError(w, r, badRequest("format", "format must be csv or json"))
		return
	}

	rows, err := s.export.Export(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "csv" {
		writeCSV(w, tripID, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONRows(rows))
}

// writeCSV encodes rows as CSV with a header line.
// Participants within a row are pipe-separated ("|") to keep each activity on a single CSV line.
func writeCSV(w http.ResponseWriter, tripID uuid.UUID, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trip-`+tripID.String()+`.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(buf.Bytes())
}

// buildJSONRows converts domain rows to their wire form.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToResponse(r))
	}
	return out
}

// domainRowToResponse maps a domain.ExportRow to its wire form.
// A row without a title is the placeholder for a trip with no activities,
// so its activity fields are omitted.
func domainRowToResponse(r domain.ExportRow) ExportRow {
	tripID, _ := uuid.Parse(r.TripID)
	row := ExportRow{
		TripId:        tripID,
		TripName:      r.TripName,
		TripStartDate: mustParseDate(r.TripStartDate),
		TripEndDate:   mustParseDate(r.TripEndDate),
		Participants:  append([]string{}, r.Participants...),
	}
	if r.Title == "" {
		return row
	}

	row.DayIndex = &r.DayIndex
	row.Title = &r.Title
	row.Cost = r.Cost
	row.CostPerPerson = &r.CostPerPerson
	if r.Date != "" {
		d := mustParseDate(r.Date)
		row.Date = &d
		row.Weekday = &r.Weekday
	}
	if r.Location != "" {
		row.Location = &r.Location
	}
	if r.Notes != "" {
		row.Notes = &r.Notes
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// A nil cost is an empty cell.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	rec := []string{r.TripID, r.TripName, r.TripStartDate, r.TripEndDate}
	if r.Title == "" {
		return append(rec, "", "", "", "", "", "", "", "", "")
	}
	cost := ""
	if r.Cost != nil {
		cost = formatMoney(*r.Cost)
	}
	return append(rec,
		strconv.Itoa(r.DayIndex),
		r.Date,
		r.Weekday,
		r.Title,
		r.Location,
		cost,
		formatMoney(r.CostPerPerson),
		r.Notes,
		strings.Join(r.Participants, "|"),
	)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-generated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}
