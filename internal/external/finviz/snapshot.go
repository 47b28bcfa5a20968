package finviz

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// Snapshot labels read from the quote page
const (
	labelMarketCap     = "Market Cap"
	labelAvgVolume     = "Avg Volume"
	labelEPSThisY      = "EPS this Y"
	labelEPSNext5Y     = "EPS next 5Y"
	labelSalesPast5Y   = "Sales past 5Y"
	labelROI           = "ROI"
	labelInstOwnership = "Inst Own"
)

// FetchFundamentals scrapes the snapshot table of the quote page
// ⭐ SSOT: 펀더멘털 조회는 이 함수에서만
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (*contracts.Fundamentals, error) {
	doc, err := c.fetchDocument(ctx, "/quote.ashx", url.Values{"t": {ticker}})
	if err != nil {
		return nil, fmt.Errorf("fundamentals %s: %w", ticker, err)
	}

	cells := parseSnapshot(doc)
	if len(cells) == 0 {
		return nil, fmt.Errorf("fundamentals %s: snapshot table not found: %w", ticker, contracts.ErrRemote)
	}

	f := &contracts.Fundamentals{
		MarketCap:              parseNumber(cells[labelMarketCap]),
		AvgVolume:              parseNumber(cells[labelAvgVolume]),
		EPSGrowth:              parseNumber(cells[labelEPSThisY]),
		EPSGrowth5Y:            parseNumber(cells[labelEPSNext5Y]),
		SalesGrowth5Y:          parseNumber(cells[labelSalesPast5Y]),
		ROI:                    parseNumber(cells[labelROI]),
		InstitutionalOwnership: parseNumber(cells[labelInstOwnership]),
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"fields": len(cells),
	}).Debug("Fetched fundamentals")

	return f, nil
}

// parseSnapshot reads label/value cell pairs of the snapshot table
func parseSnapshot(doc *goquery.Document) map[string]string {
	cells := make(map[string]string)

	doc.Find("table.snapshot-table2 tr").Each(func(_ int, row *goquery.Selection) {
		tds := row.Find("td")
		for i := 0; i+1 < tds.Length(); i += 2 {
			label := strings.TrimSpace(tds.Eq(i).Text())
			value := strings.TrimSpace(tds.Eq(i + 1).Text())
			if label != "" {
				cells[label] = value
			}
		}
	})

	return cells
}

var suffixes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// parseNumber decodes "3.45T", "55.32M", "12.34%", "-5.20%".
// "-", empty and anything unparsable become nil.
func parseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return nil
	}

	s = strings.TrimSuffix(s, "%")

	mult := 1.0
	if m, ok := suffixes[s[len(s)-1]]; ok {
		mult = m
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v *= mult
	return &v
}
