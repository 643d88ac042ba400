package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/pulsewatch/server/pkg/assertion"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxBodySize is the number of body bytes kept in an outcome
const MaxBodySize = 10000

// bodies are read up to this size for evaluation
const maxReadSize = 10 << 20

const DefaultTimeout = 30 * time.Second

type FailureKind string

const (
	FailureTimeout           FailureKind = "timeout"
	FailureUnresolvedHost    FailureKind = "unresolved host"
	FailureConnectionRefused FailureKind = "connection refused"
	FailureOther             FailureKind = "other"
)

// Failure is a transport level error: no HTTP response was received
type Failure struct {
	Kind    FailureKind
	Timeout time.Duration
	Err     error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureTimeout:
		return fmt.Sprintf("timeout: request exceeded %s", f.Timeout)
	case FailureUnresolvedHost:
		return fmt.Sprintf("unresolved host: %s", f.Err.Error())
	case FailureConnectionRefused:
		return fmt.Sprintf("connection refused: %s", f.Err.Error())
	}
	return fmt.Sprintf("request failed: %s", f.Err.Error())
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Executor struct {
	client *http.Client
	tracer trace.Tracer
}

// New builds an executor. A nil client uses a dedicated client with default
// transport; timeouts are always applied per request.
func New(client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	return &Executor{
		client: client,
		tracer: otel.Tracer("github.com/pulsewatch/server/pkg/probe"),
	}
}

func classify(err error, timeout time.Duration) *Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Failure{Kind: FailureTimeout, Timeout: timeout, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Failure{Kind: FailureUnresolvedHost, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Failure{Kind: FailureConnectionRefused, Err: err}
	}
	return &Failure{Kind: FailureOther, Err: err}
}

// Do issues exactly one request for the endpoint. Any status code is a valid
// response, only transport errors are returned as a Failure.
func (e *Executor) Do(ctx context.Context, endpoint *aggregates.Endpoint) (*assertion.Response, *Failure) {
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := endpoint.Method
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), endpoint.URL, nil)
	if err != nil {
		return nil, &Failure{Kind: FailureOther, Err: err}
	}
	for k, v := range endpoint.Headers {
		if strings.EqualFold(k, "host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classify(err, timeout)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadSize))
	latency := time.Since(start)
	if err != nil {
		return nil, classify(err, timeout)
	}
	return &assertion.Response{
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Body:       body,
	}, nil
}

// Execute probes the endpoint and evaluates the response against its
// expectations. It never fails: every error ends up in the outcome.
func (e *Executor) Execute(ctx context.Context, endpoint *aggregates.Endpoint) aggregates.Outcome {
	ctx, span := e.tracer.Start(ctx, "probe.execute", trace.WithAttributes(
		attribute.String("endpoint.id", endpoint.ID),
		attribute.String("http.method", endpoint.Method),
		attribute.String("http.url", endpoint.URL),
	))
	defer span.End()

	outcome := aggregates.Outcome{
		EndpointID: endpoint.ID,
		CheckedAt:  time.Now().UTC(),
	}
	start := time.Now()
	response, failure := e.Do(ctx, endpoint)
	if failure != nil {
		msg := failure.Error()
		outcome.Latency = time.Since(start)
		outcome.Error = &msg
		span.RecordError(failure)
		span.SetStatus(codes.Error, string(failure.Kind))
		return outcome
	}
	statusCode := response.StatusCode
	outcome.StatusCode = &statusCode
	outcome.Latency = response.Latency
	body := Truncate(response.Body)
	outcome.Body = &body

	healthy, reasons := assertion.Evaluate(*response, endpoint)
	outcome.Healthy = healthy
	outcome.Error = assertion.Summary(reasons)
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Bool("probe.healthy", healthy),
	)
	if !healthy {
		span.SetStatus(codes.Error, *outcome.Error)
	}
	return outcome
}

// Truncate keeps at most MaxBodySize bytes of the body as valid UTF-8. The cut
// never splits a character and invalid bytes are replaced.
func Truncate(body []byte) string {
	if len(body) > MaxBodySize {
		end := MaxBodySize
		for end > 0 && !utf8.RuneStart(body[end]) {
			end--
		}
		body = body[:end]
	}
	return strings.ToValidUTF8(string(body), "\uFFFD")
}
