package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StockPilot/internal/model"
)

const naverBaseURL = "https://finance.naver.com"

// ErrNoFlow is returned when no investor-flow row could be parsed.
var ErrNoFlow = errors.New("no investor flow data")

// NaverFlowSource scrapes daily foreign and institutional net buying from
// the Naver Finance investor page of a ticker.
type NaverFlowSource struct {
	BaseURL string
	Client  *Client
}

// NewNaverFlowSource creates a source on client. An empty baseURL uses the public site.
func NewNaverFlowSource(client *Client, baseURL string) *NaverFlowSource {
	if baseURL == "" {
		baseURL = naverBaseURL
	}
	return &NaverFlowSource{BaseURL: baseURL, Client: client}
}

// Flow returns the most recent trading day's flow for ticker.
func (n *NaverFlowSource) Flow(ctx context.Context, ticker string) (*model.InvestorFlow, error) {
	code := model.NormalizeTicker(ticker)
	body, err := n.Client.Get(ctx, fmt.Sprintf("%s/item/frgn.naver?code=%s", n.BaseURL, code))
	if err != nil {
		return nil, fmt.Errorf("naver flow %s: %w", code, err)
	}
	flow, err := parseFlowPage(body)
	if err != nil {
		return nil, fmt.Errorf("naver flow %s: %w", code, err)
	}
	flow.Ticker = code
	return flow, nil
}

// parseFlowPage reads the first dated row of the investor tables. Columns:
// date, close, change, change rate, volume, institutional net, foreign net.
func parseFlowPage(body []byte) (*model.InvestorFlow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var flow *model.InvestorFlow
	doc.Find("table.type2 tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return true
		}
		date, err := time.Parse("2006.01.02", strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return true
		}
		inst, err1 := parseSignedInt(cells.Eq(5).Text())
		foreign, err2 := parseSignedInt(cells.Eq(6).Text())
		if err1 != nil || err2 != nil {
			return true
		}
		flow = &model.InvestorFlow{Date: date, Foreign: foreign, Institutional: inst}
		return false
	})
	if flow == nil {
		return nil, ErrNoFlow
	}
	return flow, nil
}

// parseSignedInt parses figures such as "+1,234" and "-56,789".
func parseSignedInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	return strconv.ParseInt(s, 10, 64)
}
