package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-tracker/internal/export"
	"github.com/sells-group/compliance-tracker/internal/fetcher"
	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/normalize"
	"github.com/sells-group/compliance-tracker/internal/threshold"
	"github.com/sells-group/compliance-tracker/internal/tracker"
)

const runIDHeader = "X-Run-ID"

// badRequest carries a client error message and status.
type badRequest struct {
	status int
	msg    string
}

func (e *badRequest) Error() string { return e.msg }

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	fetchOpts, err := s.fetchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := fetcher.ParseTable(hdr.Filename, file, fetchOpts)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file: "+err.Error())
		return
	}

	opts, err := s.trackerOptions(r)
	if err != nil {
		var br *badRequest
		if errors.As(err, &br) {
			writeError(w, br.status, br.msg)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	opts.RunID = uuid.NewString()

	res, err := tracker.Run(table, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tracker.ErrColumnMapping) || errors.Is(err, threshold.ErrInvalidSchema) {
			status = http.StatusUnprocessableEntity
		}
		zap.L().Warn("api: run failed", zap.String("run_id", opts.RunID), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set(runIDHeader, res.RunID)
	switch strings.ToLower(r.FormValue("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, res)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		if strings.EqualFold(r.FormValue("sheet"), export.SummarySheet) {
			w.Header().Set("Content-Disposition", attachment(res.RunID+"-summary.csv"))
			err = export.WriteSummaryCSV(w, res.Summary)
		} else {
			w.Header().Set("Content-Disposition", attachment(res.RunID+".csv"))
			err = export.WriteDetailsCSV(w, res.Details)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", attachment(res.RunID+".xlsx"))
		err = export.WriteXLSX(w, res)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", r.FormValue("format")))
		return
	}
	if err != nil {
		zap.L().Error("api: write export", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}

func (s *Server) fetchOptions(r *http.Request) (fetcher.Options, error) {
	opts := s.fetch
	if v := r.FormValue("header_row"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, eris.Errorf("header_row must be a non-negative integer, got %q", v)
		}
		opts.HeaderRow = n
	}
	if v := r.FormValue("sheet_name"); v != "" {
		opts.SheetName = v
	}
	return opts, nil
}

// trackerOptions layers request form values over the server defaults.
func (s *Server) trackerOptions(r *http.Request) (tracker.Options, error) {
	opts := s.defaults

	if v := r.FormValue("schema"); v != "" {
		sc, err := s.registry.Get(v)
		if err != nil {
			return opts, err
		}
		opts.Schema = sc
	}
	if opts.Schema == nil {
		sc, err := s.registry.Get(threshold.ThreeTier)
		if err != nil {
			return opts, err
		}
		opts.Schema = sc
	}

	if v := r.FormValue("size_policy"); v != "" {
		p, err := household.ParseSizePolicy(v)
		if err != nil {
			return opts, &badRequest{status: http.StatusBadRequest, msg: err.Error()}
		}
		opts.SizePolicy = p
	}
	if v := r.FormValue("income_period"); v != "" {
		p, err := normalize.ParsePeriod(v)
		if err != nil {
			return opts, &badRequest{status: http.StatusBadRequest, msg: err.Error()}
		}
		opts.IncomePeriod = p
	}

	overrides := []struct {
		field string
		dst   *string
	}{
		{"unit_col", &opts.Columns.Unit},
		{"resident_col", &opts.Columns.Resident},
		{"income_col", &opts.Columns.Income},
		{"size_col", &opts.Columns.HouseholdSize},
		{"rent_col", &opts.Columns.Rent},
	}
	for _, o := range overrides {
		if v := r.FormValue(o.field); v != "" {
			*o.dst = v
		}
	}
	return opts, nil
}
