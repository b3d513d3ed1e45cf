package ui

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rmvc/adapters/coercer"
	"rmvc/adapters/excel"
	"rmvc/adapters/export"
	"rmvc/app"
	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/domain/softset"
	apperrors "rmvc/internal/errors"
	"rmvc/internal/testkit"
	"rmvc/ports"
)

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	runs := s.history.Len()
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "runs": runs})
}

// handleExample runs the published worked example without touching history
func (s *Server) handleExample(c *gin.Context) {
	out, err := s.service.AnalyzeTable(c.Request.Context(), "worked-example", testkit.WorkedExampleTable(), softset.BuildOptions{})
	if err != nil {
		s.respondError(c, err)
		return
	}

	type check struct {
		Criterion string `json:"criterion"`
		Candidate string `json:"candidate"`
		Want      string `json:"want"`
		Got       string `json:"got"`
		OK        bool   `json:"ok"`
	}
	var checks []check
	for _, ref := range testkit.WorkedExampleReference() {
		got, _ := out.Record.Result.Matrix.At(ref.Criterion, ref.Candidate)
		checks = append(checks, check{
			Criterion: ref.Criterion,
			Candidate: ref.Candidate,
			Want:      rmvc.FormatExact(ref.Want),
			Got:       rmvc.FormatExact(got),
			OK:        got != nil && got.Cmp(ref.Want) == 0,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis":  detail(out.Record, nil, nil, s.options.Precision),
		"reference": checks,
	})
}

func (s *Server) handleCreateAnalysis(c *gin.Context) {
	opts, err := s.buildOptions(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	reader, source, err := s.uploadReader(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out, err := s.service.Analyze(c.Request.Context(), app.AnalysisRequest{Source: source, Reader: reader, Options: opts})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.append(out.Record, out.Issues, out.DroppedCriteria); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail(out.Record, out.Issues, out.DroppedCriteria, s.options.Precision))
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	s.mu.RLock()
	records := s.history.Records()
	s.mu.RUnlock()

	summaries := make([]RunSummary, len(records))
	for i, rec := range records {
		summaries[i] = summarize(rec, s.options.Precision)
	}
	c.JSON(http.StatusOK, gin.H{"analyses": summaries})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	rec, issues, dropped, err := s.record(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail(rec, issues, dropped, s.options.Precision))
}

func (s *Server) handleIterate(c *gin.Context) {
	parent, _, _, err := s.record(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	cut, err := rmvc.ParseRat(c.DefaultQuery("threshold", "1/2"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	next, err := s.service.Iterate(c.Request.Context(), parent, cut)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.append(next, nil, nil); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail(next, nil, nil, s.options.Precision))
}

func (s *Server) handleMatrixCSV(c *gin.Context) {
	mode, err := export.ParseMode(c.Query("mode"))
	if err != nil {
		s.respondError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	precision, err := s.precision(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.exportRun(c, "matrix.csv", export.MatrixCSV{Mode: mode, Precision: precision})
}

func (s *Server) handleRankingCSV(c *gin.Context) {
	precision, err := s.precision(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.exportRun(c, "ranking.csv", export.RankingCSV{Precision: precision})
}

func (s *Server) handleCriteriaCSV(c *gin.Context) {
	s.exportRun(c, "criteria.csv", export.CriteriaCSV{})
}

func (s *Server) handleCandidate(c *gin.Context) {
	rec, _, _, err := s.record(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	precision, err := s.precision(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	d, err := rec.Result.Candidate(c.Param("candidate"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidateView(d, precision))
}

func (s *Server) handleWorkbook(c *gin.Context) {
	s.exportRun(c, "rmvc.xlsx", excel.NewWorkbookWriter())
}

func (s *Server) handleReport(c *gin.Context) {
	rec, issues, _, err := s.record(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	rep := export.Report{
		Title:     rec.Source,
		Precision: s.options.Precision,
		HTML:      c.DefaultQuery("format", "html") != "markdown",
		Issues:    issues,
	}
	s.write(c, rep, rec.Result, "")
}

func (s *Server) exportRun(c *gin.Context, filename string, exp ports.ResultExporter) {
	rec, _, _, err := s.record(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.write(c, exp, rec.Result, filename)
}

func (s *Server) write(c *gin.Context, exp ports.ResultExporter, res *rmvc.Result, filename string) {
	var buf bytes.Buffer
	if err := exp.Export(&buf, res); err != nil {
		s.respondError(c, apperrors.Wrap(err, "export failed"))
		return
	}
	if filename != "" {
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	c.Data(http.StatusOK, exp.ContentType(), buf.Bytes())
}

func (s *Server) buildOptions(c *gin.Context) (softset.BuildOptions, error) {
	opts := softset.BuildOptions{
		Orientation:      s.options.Orientation,
		MinCriterionSize: s.options.MinCriterionSize,
	}
	if raw, ok := c.GetQuery("orientation"); ok {
		o, err := dataset.ParseOrientation(raw)
		if err != nil {
			return opts, apperrors.InvalidInput(err.Error())
		}
		opts.Orientation = o
	}
	if raw, ok := c.GetQuery("min_size"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, apperrors.InvalidInput("min_size must be a non-negative integer")
		}
		opts.MinCriterionSize = n
	}
	return opts, nil
}

func (s *Server) precision(c *gin.Context) (int, error) {
	raw, ok := c.GetQuery("precision")
	if !ok {
		return s.options.Precision, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p < 0 || p > 18 {
		return 0, apperrors.InvalidInput("precision must be between 0 and 18")
	}
	return p, nil
}

// uploadReader accepts a multipart "file" field or a raw CSV body.
func (s *Server) uploadReader(c *gin.Context) (ports.TableReader, string, error) {
	cfg := excel.DefaultReaderConfig()
	cfg.Logger = s.logger
	cfg.Sheet = c.DefaultQuery("sheet", s.options.Sheet)
	cfg.CoercionConfig = coercer.CoercionConfig{
		AcceptMarkers:   s.options.AcceptMarkers,
		MalformedWarnAt: s.options.MalformedWarnAt,
		MissingTokens:   coercer.DefaultCoercionConfig().MissingTokens,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", apperrors.InvalidInput("multipart upload needs a \"file\" field")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", apperrors.IOError("cannot open upload", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, "", apperrors.IOError("cannot read upload", err)
		}
		name := filepath.Base(fh.Filename)
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			return tableReader(func() (*dataset.Table, error) {
				return excel.ReadXLSX(name, bytes.NewReader(data), cfg)
			}), name, nil
		}
		return tableReader(func() (*dataset.Table, error) {
			return excel.ReadCSV(name, bytes.NewReader(data), cfg)
		}), name, nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", apperrors.InvalidInput("cannot read request body: " + err.Error())
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", apperrors.InvalidInput("request body is empty; send CSV or a multipart file")
	}
	name := c.DefaultQuery("name", "upload.csv")
	return tableReader(func() (*dataset.Table, error) {
		return excel.ReadCSV(name, bytes.NewReader(data), cfg)
	}), name, nil
}

func tableReader(read func() (*dataset.Table, error)) ports.TableReader {
	return ports.TableReaderFunc(func(ctx context.Context) (*dataset.Table, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return read()
	})
}

func (s *Server) respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(apperrors.FromDomain(err))
	if !ok {
		appErr = apperrors.InternalError(err.Error())
	}
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
