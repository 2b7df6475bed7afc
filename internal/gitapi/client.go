package gitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	authorizationHeaderNameConstant       = "Authorization"
	authorizationTokenPrefixConstant      = "token "
	acceptHeaderNameConstant              = "Accept"
	acceptHeaderValueConstant             = "application/vnd.github+json"
	contentTypeHeaderNameConstant         = "Content-Type"
	contentTypeJSONConstant               = "application/json"
	userAgentHeaderNameConstant           = "User-Agent"
	defaultUserAgentConstant              = "gitprovision"
	defaultTimeoutConstant                = 30 * time.Second
	pathSeparatorConstant                 = "/"
	maximumResponseBytesConstant          = 4 << 20
	requestStartedMessageConstant         = "sending api request"
	requestCompletedMessageConstant       = "api request completed"
	logFieldMethodConstant                = "method"
	logFieldURLConstant                   = "url"
	logFieldStatusConstant                = "status"
	logFieldDurationConstant              = "duration"
	logFieldAuthenticatedConstant         = "authenticated"
	methodMissingErrorMessageConstant     = "request method must be provided"
	urlMissingErrorMessageConstant        = "request url must be provided"
	transportErrorTemplateConstant        = "%s %s failed: %v"
	payloadEncodingErrorTemplateConstant  = "unable to encode request payload: %w"
	responseDecodingErrorTemplateConstant = "unable to decode %d response: %w"
	rateLimitWaitErrorTemplateConstant    = "rate limit wait interrupted: %w"
	invalidBaseURLErrorTemplateConstant   = "base url %q must include an http or https scheme and host"
	emptyBaseURLErrorMessageConstant      = "base url must be provided"
	httpSchemeConstant                    = "http"
	httpsSchemeConstant                   = "https"
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientConfiguration tunes transport behaviour.
type ClientConfiguration struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// Sender sends REST requests. *Client satisfies it.
type Sender interface {
	Send(requestContext context.Context, request Request) (Response, error)
}

// Request describes one REST call.
type Request struct {
	Method  string
	URL     string
	Token   string
	Payload any
}

// Response carries the status code and body of a completed call.
type Response struct {
	StatusCode int
	Body       []byte
}

var (
	// ErrMissingMethod indicates a request without an HTTP method.
	ErrMissingMethod = errors.New(methodMissingErrorMessageConstant)
	// ErrMissingURL indicates a request without a target URL.
	ErrMissingURL = errors.New(urlMissingErrorMessageConstant)
)

// TransportError reports that a request never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Method, transportError.URL, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// Client sends authenticated REST requests to a git hosting API.
type Client struct {
	httpClient HTTPClient
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
}

// NewClient builds a Client. A nil httpClient is replaced with an *http.Client using the configured timeout.
// A non-positive RequestsPerSecond disables pacing.
func NewClient(logger *zap.Logger, httpClient HTTPClient, configuration ClientConfiguration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolvedHTTPClient := httpClient
	if resolvedHTTPClient == nil {
		timeout := configuration.Timeout
		if timeout <= 0 {
			timeout = defaultTimeoutConstant
		}
		resolvedHTTPClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if configuration.RequestsPerSecond > 0 {
		burst := configuration.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(configuration.RequestsPerSecond), burst)
	}

	userAgent := strings.TrimSpace(configuration.UserAgent)
	if len(userAgent) == 0 {
		userAgent = defaultUserAgentConstant
	}

	return &Client{
		httpClient: resolvedHTTPClient,
		limiter:    limiter,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Send issues the request and returns its response regardless of status code.
func (client *Client) Send(requestContext context.Context, request Request) (Response, error) {
	if len(strings.TrimSpace(request.Method)) == 0 {
		return Response{}, ErrMissingMethod
	}
	if len(strings.TrimSpace(request.URL)) == 0 {
		return Response{}, ErrMissingURL
	}

	var requestBody io.Reader
	if request.Payload != nil {
		payloadBytes, encodingError := json.Marshal(request.Payload)
		if encodingError != nil {
			return Response{}, fmt.Errorf(payloadEncodingErrorTemplateConstant, encodingError)
		}
		requestBody = bytes.NewReader(payloadBytes)
	}

	if client.limiter != nil {
		if waitError := client.limiter.Wait(requestContext); waitError != nil {
			return Response{}, TransportError{Method: request.Method, URL: request.URL, Cause: fmt.Errorf(rateLimitWaitErrorTemplateConstant, waitError)}
		}
	}

	httpRequest, requestError := http.NewRequestWithContext(requestContext, request.Method, request.URL, requestBody)
	if requestError != nil {
		return Response{}, TransportError{Method: request.Method, URL: request.URL, Cause: requestError}
	}

	httpRequest.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	httpRequest.Header.Set(userAgentHeaderNameConstant, client.userAgent)
	if len(request.Token) > 0 {
		httpRequest.Header.Set(authorizationHeaderNameConstant, authorizationTokenPrefixConstant+request.Token)
	}
	if requestBody != nil {
		httpRequest.Header.Set(contentTypeHeaderNameConstant, contentTypeJSONConstant)
	}

	client.logger.Debug(
		requestStartedMessageConstant,
		zap.String(logFieldMethodConstant, request.Method),
		zap.String(logFieldURLConstant, request.URL),
		zap.Bool(logFieldAuthenticatedConstant, len(request.Token) > 0),
	)

	startTime := time.Now()
	httpResponse, doError := client.httpClient.Do(httpRequest)
	if doError != nil {
		return Response{}, TransportError{Method: request.Method, URL: request.URL, Cause: doError}
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(io.LimitReader(httpResponse.Body, maximumResponseBytesConstant))
	if readError != nil {
		return Response{}, TransportError{Method: request.Method, URL: request.URL, Cause: readError}
	}

	client.logger.Debug(
		requestCompletedMessageConstant,
		zap.String(logFieldMethodConstant, request.Method),
		zap.String(logFieldURLConstant, request.URL),
		zap.Int(logFieldStatusConstant, httpResponse.StatusCode),
		zap.Duration(logFieldDurationConstant, time.Since(startTime)),
	)

	return Response{StatusCode: httpResponse.StatusCode, Body: responseBody}, nil
}

// Successful reports a 2xx status.
func (response Response) Successful() bool {
	return response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices
}

// Unauthorized reports a 401 or 403 status.
func (response Response) Unauthorized() bool {
	return response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden
}

// Decode unmarshals the JSON body into target.
func (response Response) Decode(target any) error {
	if decodingError := json.Unmarshal(response.Body, target); decodingError != nil {
		return fmt.Errorf(responseDecodingErrorTemplateConstant, response.StatusCode, decodingError)
	}
	return nil
}

// NormalizeBaseURL strips trailing slashes and checks the value is an absolute http(s) URL.
func NormalizeBaseURL(baseURL string) (string, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), pathSeparatorConstant)
	if len(trimmedBaseURL) == 0 {
		return "", errors.New(emptyBaseURLErrorMessageConstant)
	}

	parsedURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil || (parsedURL.Scheme != httpSchemeConstant && parsedURL.Scheme != httpsSchemeConstant) || len(parsedURL.Host) == 0 {
		return "", fmt.Errorf(invalidBaseURLErrorTemplateConstant, baseURL)
	}

	return trimmedBaseURL, nil
}

// JoinPath appends escaped path segments to a normalized base URL.
func JoinPath(baseURL string, segments ...string) string {
	var builder strings.Builder
	builder.WriteString(baseURL)
	for _, segment := range segments {
		builder.WriteString(pathSeparatorConstant)
		builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}
