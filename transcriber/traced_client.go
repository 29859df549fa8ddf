package transcriber

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

const (
	requestTimeout    = 30 * time.Second
	preconnectTimeout = 5 * time.Second
)

// apiClient is the HTTP client shared by the transcription providers. Every
// request is traced so the capture log can say where upload time went.
type apiClient struct {
	http *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{http: &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}}
}

type apiResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *NetworkMetrics
}

// phaseTrace collects the timestamps of one request. Phases that did not
// happen (DNS and handshakes on a reused connection) stay zero.
type phaseTrace struct {
	metrics NetworkMetrics

	getConn, dnsStart, connectStart, tlsStart time.Time
	gotConn, headersDone, bodyDone, firstByte time.Time
}

func elapsed(from, to time.Time) time.Duration {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return to.Sub(from)
}

func (p *phaseTrace) hooks() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) { p.getConn = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			p.gotConn = time.Now()
			p.metrics.ConnReused = info.Reused
		},
		DNSStart:     func(httptrace.DNSStartInfo) { p.dnsStart = time.Now() },
		DNSDone:      func(httptrace.DNSDoneInfo) { p.metrics.DNS = elapsed(p.dnsStart, time.Now()) },
		ConnectStart: func(string, string) { p.connectStart = time.Now() },
		ConnectDone: func(string, string, error) {
			p.metrics.TCP = elapsed(p.connectStart, time.Now())
		},
		TLSHandshakeStart: func() { p.tlsStart = time.Now() },
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			p.metrics.TLS = elapsed(p.tlsStart, time.Now())
			p.metrics.TLSProtocol = state.NegotiatedProtocol
		},
		WroteHeaders:         func() { p.headersDone = time.Now() },
		WroteRequest:         func(httptrace.WroteRequestInfo) { p.bodyDone = time.Now() },
		GotFirstResponseByte: func() { p.firstByte = time.Now() },
	}
}

// finish derives the request phases once the body has been read.
func (p *phaseTrace) finish(start, end time.Time) *NetworkMetrics {
	m := p.metrics
	m.ConnWait = elapsed(p.getConn, p.gotConn)
	m.ReqHeaders = elapsed(p.gotConn, p.headersDone)
	m.ReqBody = elapsed(p.headersDone, p.bodyDone)
	m.TTFB = elapsed(p.bodyDone, p.firstByte)
	m.Download = elapsed(p.firstByte, end)
	m.Total = end.Sub(start)
	return &m
}

// send runs req and reads the whole body, so the reported timings cover
// the download too.
func (c *apiClient) send(req *http.Request) (*apiResponse, error) {
	trace := &phaseTrace{}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace.hooks()))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &apiResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Metrics:    trace.finish(start, time.Now()),
	}, nil
}

// preconnect leaves a warm connection in the pool while the user is still
// speaking. Failures are ignored; the upload will dial again.
func (c *apiClient) preconnect(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), preconnectTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
