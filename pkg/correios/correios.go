// Package correios queries the Correios CalcPrecoPrazo endpoint for SEDEX and
// PAC price and lead-time quotes.
package correios

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/encoding/charmap"
)

const DefaultBaseURL = "https://ws.correios.com.br/calculador/CalcPrecoPrazo.asmx/CalcPrecoPrazo"

type Service string

const (
	SEDEX Service = "SEDEX"
	PAC   Service = "PAC"
)

var serviceCodes = map[Service]string{
	SEDEX: "04014",
	PAC:   "04510",
}

// Services lists the queried services in display order.
var Services = []Service{SEDEX, PAC}

type Quote struct {
	Service      Service `json:"service"`
	Price        float64 `json:"price"`        // BRL
	DeadlineDays int     `json:"deadlineDays"` // business days
	Error        string  `json:"error,omitempty"`
}

type Input struct {
	OriginZip      string
	DestinationZip string
	WeightKg       float64
	LengthCm       float64
	HeightCm       float64
	WidthCm        float64
	DeclaredValue  float64
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client whose transport is traced with otelhttp.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Quotes queries every service concurrently. A service whose request or
// response fails is left out; the result is empty when all of them fail.
func (c *Client) Quotes(ctx context.Context, in Input) []Quote {
	params := Params(in)

	results := make([]*Quote, len(Services))

	var wg sync.WaitGroup
	for i, svc := range Services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.quote(ctx, svc, params)
		}()
	}
	wg.Wait()

	quotes := make([]Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}

	return quotes
}

func (c *Client) quote(ctx context.Context, svc Service, params url.Values) *Quote {
	logger := c.logger.With(slog.String("service", string(svc)))

	body, err := c.fetch(ctx, svc, params)
	if err != nil {
		logger.Warn("Carrier quote request failed", slog.String("error", err.Error()))
		return nil
	}

	if !bytes.Contains(body, []byte("<cServico>")) {
		logger.Warn("Carrier quote response without service entry")
		return nil
	}

	q, err := Parse(body, svc)
	if err != nil {
		logger.Warn("Failed to parse carrier quote", slog.String("error", err.Error()))
		return nil
	}

	return q
}

func (c *Client) fetch(ctx context.Context, svc Service, params url.Values) ([]byte, error) {
	query := url.Values{"nCdServico": {serviceCodes[svc]}}
	for k, v := range params {
		query[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// Params builds the query shared by every service, clamping the parcel to the
// carrier's minimums: 0.3 kg, 16 cm long, 2 cm high and 11 cm wide.
func Params(in Input) url.Values {
	weight := in.WeightKg
	if weight <= 0 {
		weight = 0.3
	}

	return url.Values{
		"nCdEmpresa":          {""},
		"sDsSenha":            {""},
		"sCepOrigem":          {onlyDigits(in.OriginZip)},
		"sCepDestino":         {onlyDigits(in.DestinationZip)},
		"nVlPeso":             {strconv.FormatFloat(math.Max(0.3, weight), 'f', 2, 64)},
		"nCdFormato":          {"1"},
		"nVlComprimento":      {clampCm(in.LengthCm, 16)},
		"nVlAltura":           {clampCm(in.HeightCm, 2)},
		"nVlLargura":          {clampCm(in.WidthCm, 11)},
		"nVlDiametro":         {"0"},
		"sCdMaoPropria":       {"N"},
		"nVlValorDeclarado":   {strconv.FormatFloat(math.Max(0, in.DeclaredValue), 'f', -1, 64)},
		"sCdAvisoRecebimento": {"N"},
		"StrRetorno":          {"xml"},
	}
}

func clampCm(v, minimum float64) string {
	if v <= 0 {
		v = minimum
	}
	return strconv.Itoa(int(math.Max(minimum, math.Floor(v))))
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type servico struct {
	Valor        string `xml:"Valor"`
	PrazoEntrega string `xml:"PrazoEntrega"`
	Erro         string `xml:"Erro"`
	MsgErro      string `xml:"MsgErro"`
}

// Parse reads the first cServico element of a response body. A non-zero Erro
// code is reported in the quote, not as an error.
func Parse(body []byte, svc Service) (*Quote, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("no cServico element: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "cServico" {
			continue
		}

		var s servico
		if err := dec.DecodeElement(&s, &start); err != nil {
			return nil, fmt.Errorf("failed to decode cServico: %w", err)
		}

		deadline, _ := strconv.Atoi(strings.TrimSpace(s.PrazoEntrega))

		q := &Quote{
			Service:      svc,
			Price:        ParseBRL(s.Valor),
			DeadlineDays: deadline,
		}

		if code := strings.TrimSpace(s.Erro); code != "" && code != "0" {
			q.Error = strings.TrimSpace(s.MsgErro)
			if q.Error == "" {
				q.Error = "Erro " + code
			}
		}

		return q, nil
	}
}

// charsetReader handles the Latin-1 declarations the endpoint sends.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

// ParseBRL converts "1.234,50" to 1234.5. Unparseable input is 0.
func ParseBRL(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}

	v = strings.ReplaceAll(v, ".", "")
	v = strings.Replace(v, ",", ".", 1)

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}

	return f
}

func Label(q Quote) string {
	return string(q.Service)
}

// ETA renders the lead time in business days.
func ETA(q Quote) string {
	switch {
	case q.DeadlineDays <= 0:
		return "Prazo indisponível"
	case q.DeadlineDays == 1:
		return "1 dia útil"
	default:
		return fmt.Sprintf("%d dias úteis", q.DeadlineDays)
	}
}
