package rpc

import (
	"net/http"
	"strings"
)

// ErrInvalidFormat is the message used when a body matches no known status page
const ErrInvalidFormat = "Client returned invalid format. Expected JSON!"

type statusRule struct {
	markers []string
	status  int
	retry   bool
}

// Checked in order; the first rule with a matching marker wins.
var statusRules = []statusRule{
	{[]string{"Internal Server Error", "500"}, http.StatusInternalServerError, true},
	{[]string{"Not Implemented", "501"}, http.StatusNotImplemented, false},
	{[]string{"Bad Gateway", "502"}, http.StatusBadGateway, true},
	{[]string{"Too Many Requests", "429"}, http.StatusTooManyRequests, true},
	{[]string{"Service Temporarily Unavailable", "Service Unavailable", "503"}, http.StatusServiceUnavailable, true},
	{[]string{"Gateway Time-out", "Gateway Timeout", "504"}, http.StatusGatewayTimeout, true},
	{[]string{"HTTP Version not supported", "505"}, http.StatusHTTPVersionNotSupported, false},
	{[]string{"Variant Also Negotiates", "506"}, http.StatusVariantAlsoNegotiates, false},
	{[]string{"Insufficient Storage", "507"}, http.StatusInsufficientStorage, false},
	{[]string{"Loop Detected", "508"}, http.StatusLoopDetected, false},
	{[]string{"Bandwidth Limit Exceeded", "509"}, 509, false},
	{[]string{"Not Extended", "510"}, http.StatusNotExtended, false},
	{[]string{"Network Authentication Required", "511"}, http.StatusNetworkAuthenticationRequired, false},
}

// classifyBody maps a non-JSON response body to a transport error
func classifyBody(body []byte) error {
	text := string(body)
	for _, rule := range statusRules {
		for _, marker := range rule.markers {
			if !strings.Contains(text, marker) {
				continue
			}
			msg := http.StatusText(rule.status)
			if msg == "" {
				msg = rule.markers[0]
			}
			if rule.retry {
				return &RetryableError{Status: rule.status, Message: msg}
			}
			return &RPCError{Code: rule.status, Message: msg}
		}
	}
	return &RPCError{Message: ErrInvalidFormat}
}
