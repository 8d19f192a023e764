/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/flamego/flamego"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/evesallesleite-cell/lab-site-sub000/analyte"
)

// AnalyteSeriesChart renders the series for the analytes in the query string
// as line charts.
func AnalyteSeriesChart(c flamego.Context, runner SeriesRunner, opts Options) {
	req, err := chartRequest(c)
	if err != nil {
		writeText(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(c, opts)
	defer cancel()

	result, err := runner.Run(ctx, req)
	if err != nil {
		logger.Error("Chart request failed", "analytes", req.Names(), "error", err)
		writeText(c, http.StatusInternalServerError, seriesErrorMessage(err))
		return
	}

	switch result.Outcome {
	case analyte.OutcomeNoData:
		writeText(c, http.StatusOK, noDataMessage)
		return
	case analyte.OutcomeNoNumeric, analyte.OutcomeCustom:
		writeText(c, http.StatusOK, noNumericMessage)
		return
	}

	page, err := renderSeriesCharts(result.Series, result.RefRange)
	if err != nil {
		logger.Error("Failed to render chart", "error", err)
		writeText(c, http.StatusInternalServerError, "failed to render chart")
		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write(page)
}

func chartRequest(c flamego.Context) (analyte.Request, error) {
	query := c.Request().URL.Query()

	var names []string
	for _, value := range query["analyte"] {
		names = append(names, strings.Split(value, ",")...)
	}

	req := analyte.Request{
		Analytes:    names,
		SkipPrimary: query.Get("forceSupabase") == "true",
	}

	if raw := query.Get("cardId"); raw != "" {
		cardID, err := strconv.Atoi(raw)
		if err != nil {
			return req, errInvalidCardID
		}
		req.CardID = &cardID
	}

	if len(req.Names()) == 0 && req.CardID == nil {
		return req, errAnalyteRequired
	}

	return req, nil
}

// renderSeriesCharts draws one line chart per series, with the reference
// range as dashed mark lines.
func renderSeriesCharts(series []analyte.Series, rr *analyte.ReferenceRange) ([]byte, error) {
	page := components.NewPage()
	page.PageTitle = "Analyte series"

	for _, s := range series {
		page.AddCharts(seriesChart(s, rr))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func seriesChart(s analyte.Series, rr *analyte.ReferenceRange) *charts.Line {
	xAxis := make([]string, 0, len(s.Points))
	yData := make([]opts.LineData, 0, len(s.Points))

	for _, p := range s.Points {
		xAxis = append(xAxis, p.Date.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: p.Value})
	}

	var unitLabel string
	if s.Unit != nil {
		unitLabel = *s.Unit
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: s.Name,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unitLabel,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if items := referenceMarkLines(rr); len(items) > 0 {
		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: items,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(s.Name, yData).
		SetSeriesOptions(seriesOpts...)

	return line
}

func referenceMarkLines(rr *analyte.ReferenceRange) []interface{} {
	if rr == nil {
		return nil
	}

	var items []interface{}

	if rr.Low != nil {
		items = append(items, opts.MarkLineNameYAxisItem{Name: "Ref Min", YAxis: *rr.Low})
	}

	if rr.High != nil {
		items = append(items, opts.MarkLineNameYAxisItem{Name: "Ref Max", YAxis: *rr.High})
	}

	return items
}

func writeText(c flamego.Context, status int, message string) {
	c.ResponseWriter().Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.ResponseWriter().WriteHeader(status)
	_, _ = c.ResponseWriter().Write([]byte(message + "\n"))
}
