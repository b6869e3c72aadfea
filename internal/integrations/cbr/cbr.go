package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 10 * time.Second
	lookbackDays   = 30
	defaultTTL     = time.Hour
)

// CBRClient fetches the key rate from the Central Bank of Russia SOAP service
type CBRClient struct {
	url    string
	margin float64
	ttl    time.Duration
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

// NewCBRClient initializes a new CBR client. margin is added to every
// rate in percentage points.
func NewCBRClient(url string, margin float64, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url:    url,
		margin: margin,
		ttl:    defaultTTL,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log: log,
		now: time.Now,
	}
}

// buildSOAPRequest creates a SOAP request for the key rate history
func (c *CBRClient) buildSOAPRequest() string {
	toDate := c.now()
	fromDate := toDate.AddDate(0, 0, -lookbackDays)
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
}

// sendRequest sends SOAP request to CBR
func (c *CBRClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))
	return body, nil
}

// parseXMLResponse extracts the latest key rate. CBR lists records newest first.
func parseXMLResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %w", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return 0, fmt.Errorf("no key rate data found in XML")
	}

	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, fmt.Errorf("rate element not found in XML")
	}

	// some CBR locales use a decimal comma
	text := strings.ReplaceAll(strings.TrimSpace(rateElement.Text()), ",", ".")
	rate, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", rateElement.Text(), err)
	}
	return rate, nil
}

// GetKeyRate returns the current key rate plus the configured margin.
// Successful lookups are cached for an hour.
func (c *CBRClient) GetKeyRate(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	body, err := c.sendRequest(ctx, c.buildSOAPRequest())
	if err != nil {
		return 0, err
	}
	rate, err := parseXMLResponse(body)
	if err != nil {
		return 0, err
	}

	rate += c.margin
	c.cached, c.fetchedAt = rate, c.now()
	c.log.Infof("Retrieved key rate: %.2f%% (including %.2f%% bank margin)", rate, c.margin)
	return rate, nil
}
