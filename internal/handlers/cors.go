package handlers

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/cors"
)

// CORSOptions is the cross-origin policy shared by the HTTP server and the
// Lambda handlers. An empty origin list allows any origin.
func CORSOptions(allowedOrigins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}
}

// CORS applies CORSOptions to API Gateway requests.
type CORS struct {
	policy *cors.Cors
}

// NewCORS builds the policy for the given origins.
func NewCORS(allowedOrigins []string) *CORS {
	return &CORS{policy: cors.New(CORSOptions(allowedOrigins))}
}

// allowOrigin returns the Access-Control-Allow-Origin value for the request,
// or "" when the request has no Origin or it is not allowed.
func (c *CORS) allowOrigin(request events.APIGatewayProxyRequest) string {
	origin := header(request, "Origin")
	if origin == "" {
		return ""
	}

	r := &http.Request{Header: http.Header{"Origin": []string{origin}}}
	if !c.policy.OriginAllowed(r) {
		return ""
	}
	return origin
}

func (c *CORS) reply(request events.APIGatewayProxyRequest) reply {
	return reply{requestID: requestID(request), origin: c.allowOrigin(request)}
}

// reply carries the per-request response headers.
type reply struct {
	requestID string
	origin    string
}

func (r reply) headers() map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Headers": "Content-Type,Authorization," + RequestIDHeader,
		"Access-Control-Allow-Methods": "GET,OPTIONS",
		"Content-Type":                 "application/json",
		RequestIDHeader:                r.requestID,
	}
	if r.origin != "" {
		headers["Access-Control-Allow-Origin"] = r.origin
		headers["Vary"] = "Origin"
	}
	return headers
}

// header looks up a request header case-insensitively.
func header(request events.APIGatewayProxyRequest, name string) string {
	name = http.CanonicalHeaderKey(name)
	for key, value := range request.Headers {
		if http.CanonicalHeaderKey(key) == name {
			return value
		}
	}
	return ""
}
