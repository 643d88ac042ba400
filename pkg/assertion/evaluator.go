package assertion

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
)

var DefaultStatusCodes = []int{200}

type Response struct {
	StatusCode int
	Latency    time.Duration
	Body       []byte
}

// Evaluate checks a response against the expected status codes, the response
// time threshold and the body assertions of the endpoint. Every failure is
// reported, evaluation never stops at the first one.
func Evaluate(response Response, endpoint *aggregates.Endpoint) (bool, []string) {
	reasons := []string{}

	expected := endpoint.ExpectedStatusCodes
	if len(expected) == 0 {
		expected = DefaultStatusCodes
	}
	if !slices.Contains(expected, response.StatusCode) {
		reasons = append(reasons, fmt.Sprintf("expected status code in %v, got %d", expected, response.StatusCode))
	}

	if endpoint.ResponseTimeThreshold != nil && response.Latency > *endpoint.ResponseTimeThreshold {
		reasons = append(reasons, fmt.Sprintf("response time %s exceeded threshold %s", response.Latency, *endpoint.ResponseTimeThreshold))
	}

	if len(endpoint.Assertions) > 0 {
		var document any
		if err := json.Unmarshal(response.Body, &document); err != nil {
			for _, a := range endpoint.Assertions {
				reasons = append(reasons, fmt.Sprintf("assertion on path %q failed: response body is not valid JSON", a.Path))
			}
		} else {
			for _, a := range endpoint.Assertions {
				if reason, ok := check(document, a); !ok {
					reasons = append(reasons, reason)
				}
			}
		}
	}

	return len(reasons) == 0, reasons
}

// Summary joins the failure reasons, nil when there is none
func Summary(reasons []string) *string {
	if len(reasons) == 0 {
		return nil
	}
	msg := strings.Join(reasons, "; ")
	return &msg
}

func check(document any, a aggregates.Assertion) (string, bool) {
	actual := Resolve(document, a.Path)
	expected := FromJSON(a.Value)
	failed := func(format string, args ...any) (string, bool) {
		return fmt.Sprintf("assertion on path %q failed: ", a.Path) + fmt.Sprintf(format, args...), false
	}
	switch a.Operator {
	case aggregates.OperatorExists:
		if !actual.Present() {
			return failed("path does not exist")
		}
		return "", true
	case aggregates.OperatorEquals, aggregates.OperatorNotEquals, aggregates.OperatorContains:
	default:
		return failed("unknown operator %q", a.Operator)
	}

	if !actual.Present() {
		return failed("path does not exist")
	}
	switch a.Operator {
	case aggregates.OperatorEquals:
		if !actual.Equal(expected) {
			return failed("expected %s (%s), got %s (%s)", expected.quoted(), expected.Kind, actual.quoted(), actual.Kind)
		}
	case aggregates.OperatorNotEquals:
		if actual.Equal(expected) {
			return failed("expected a value different from %s", expected.quoted())
		}
	case aggregates.OperatorContains:
		if !strings.Contains(actual.String(), expected.String()) {
			return failed("%s does not contain %s", actual.quoted(), expected.quoted())
		}
	}
	return "", true
}
