package provisioning_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/provisioning"
)

const (
	testOwnerConstant                    = "acme"
	testRepositoryNameConstant           = "widgets"
	testTokenConstant                    = "ghp_example"
	testRemoteURLConstant                = "https://git.example/acme/widgets"
	testExistencePathConstant            = "/repos/acme/widgets"
	testOrganizationCreationPathConstant = "/orgs/acme/repos"
	testUserCreationPathConstant         = "/user/repos"
	testRejectionMessageConstant         = "name already exists on this account"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Accept        string
	ContentType   string
	Body          map[string]any
}

type providerStub struct {
	mutex           sync.Mutex
	requests        []recordedRequest
	existenceStatus int
	existenceBody   string
	creationStatus  int
	creationBody    string
}

func (stub *providerStub) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	bodyBytes, _ := io.ReadAll(request.Body)
	recorded := recordedRequest{
		Method:        request.Method,
		Path:          request.URL.Path,
		Authorization: request.Header.Get("Authorization"),
		Accept:        request.Header.Get("Accept"),
		ContentType:   request.Header.Get("Content-Type"),
	}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &recorded.Body)
	}

	stub.mutex.Lock()
	stub.requests = append(stub.requests, recorded)
	stub.mutex.Unlock()

	switch request.Method {
	case http.MethodGet:
		responseWriter.WriteHeader(stub.existenceStatus)
		_, _ = responseWriter.Write([]byte(stub.existenceBody))
	case http.MethodPost:
		responseWriter.WriteHeader(stub.creationStatus)
		_, _ = responseWriter.Write([]byte(stub.creationBody))
	default:
		responseWriter.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (stub *providerStub) recorded() []recordedRequest {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return append([]recordedRequest(nil), stub.requests...)
}

func (stub *providerStub) countMethod(method string) int {
	count := 0
	for _, request := range stub.recorded() {
		if request.Method == method {
			count++
		}
	}
	return count
}

type failingAPIClient struct {
	failure error
	calls   int
}

func (client *failingAPIClient) Send(context.Context, gitapi.Request) (gitapi.Response, error) {
	client.calls++
	return gitapi.Response{}, client.failure
}

func newTestProvisioner(testInstance *testing.T, stub *providerStub) (*provisioning.Provisioner, string) {
	testInstance.Helper()
	server := httptest.NewServer(stub)
	testInstance.Cleanup(server.Close)

	apiClient := gitapi.NewClient(zap.NewNop(), server.Client(), gitapi.ClientConfiguration{})
	provisioner, creationError := provisioning.NewProvisioner(zap.NewNop(), apiClient, func() time.Time { return testNow })
	require.NoError(testInstance, creationError)
	return provisioner, server.URL
}

func validCredential() provisioning.Credential {
	return provisioning.Credential{Token: testTokenConstant, ExpiresAt: testNow.Add(24 * time.Hour)}
}

func organizationIdentity(visibility provisioning.Visibility) provisioning.RepositoryIdentity {
	return provisioning.RepositoryIdentity{
		Owner:      testOwnerConstant,
		Name:       testRepositoryNameConstant,
		OwnerKind:  provisioning.OwnerKindOrganization,
		Visibility: visibility,
	}
}

func TestNewProvisionerValidation(testInstance *testing.T) {
	provisioner, creationError := provisioning.NewProvisioner(zap.NewNop(), nil, nil)
	require.ErrorIs(testInstance, creationError, provisioning.ErrAPIClientNotConfigured)
	require.Nil(testInstance, provisioner)
}

func TestProvisionPreconditionsMakeNoCalls(testInstance *testing.T) {
	testCases := []struct {
		name          string
		identity      provisioning.RepositoryIdentity
		credential    provisioning.Credential
		endpointURL   func(serverURL string) string
		expectedError error
	}{
		{
			name:          "uppercase_name",
			identity:      provisioning.RepositoryIdentity{Owner: testOwnerConstant, Name: "Widgets"},
			credential:    validCredential(),
			expectedError: provisioning.ErrInvalidName,
		},
		{
			name:          "empty_name",
			identity:      provisioning.RepositoryIdentity{Owner: testOwnerConstant, Name: "  "},
			credential:    validCredential(),
			expectedError: provisioning.ErrInvalidName,
		},
		{
			name:          "name_with_surrounding_whitespace",
			identity:      provisioning.RepositoryIdentity{Owner: testOwnerConstant, Name: " " + testRepositoryNameConstant},
			credential:    validCredential(),
			expectedError: provisioning.ErrInvalidName,
		},
		{
			name:          "uppercase_name_checked_before_expiry",
			identity:      provisioning.RepositoryIdentity{Owner: testOwnerConstant, Name: "Widgets"},
			credential:    provisioning.Credential{Token: testTokenConstant, ExpiresAt: testNow.Add(-time.Hour)},
			expectedError: provisioning.ErrInvalidName,
		},
		{
			name:          "empty_owner",
			identity:      provisioning.RepositoryIdentity{Name: testRepositoryNameConstant},
			credential:    validCredential(),
			expectedError: provisioning.ErrMissingInput,
		},
		{
			name:          "empty_token",
			identity:      organizationIdentity(provisioning.VisibilityPublic),
			credential:    provisioning.Credential{ExpiresAt: testNow.Add(time.Hour)},
			expectedError: provisioning.ErrMissingInput,
		},
		{
			name:          "empty_endpoint",
			identity:      organizationIdentity(provisioning.VisibilityPublic),
			credential:    validCredential(),
			endpointURL:   func(string) string { return "" },
			expectedError: provisioning.ErrMissingInput,
		},
		{
			name:          "endpoint_without_scheme",
			identity:      organizationIdentity(provisioning.VisibilityPublic),
			credential:    validCredential(),
			endpointURL:   func(string) string { return "git.example/api" },
			expectedError: provisioning.ErrMissingInput,
		},
		{
			name:          "expired_credential",
			identity:      organizationIdentity(provisioning.VisibilityPublic),
			credential:    provisioning.Credential{Token: testTokenConstant, ExpiresAt: testNow.Add(-time.Second)},
			expectedError: provisioning.ErrCredentialExpired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			stub := &providerStub{existenceStatus: http.StatusNotFound, creationStatus: http.StatusCreated}
			provisioner, serverURL := newTestProvisioner(testInstance, stub)

			endpointURL := serverURL
			if testCase.endpointURL != nil {
				endpointURL = testCase.endpointURL(serverURL)
			}

			result, provisionError := provisioner.Provision(context.Background(), testCase.identity, testCase.credential, provisioning.ProviderEndpoint{BaseURL: endpointURL})
			require.ErrorIs(testInstance, provisionError, testCase.expectedError)
			require.Equal(testInstance, provisioning.ProvisionResult{}, result)
			require.Empty(testInstance, stub.recorded())

			var typedError provisioning.ProvisionError
			require.True(testInstance, errors.As(provisionError, &typedError))
			require.Equal(testInstance, testCase.expectedError, typedError.Kind)
		})
	}
}

func TestProvisionZeroExpiryNeverExpires(testInstance *testing.T) {
	stub := &providerStub{existenceStatus: http.StatusOK, existenceBody: `{"html_url":"` + testRemoteURLConstant + `","private":false}`}
	provisioner, serverURL := newTestProvisioner(testInstance, stub)

	result, provisionError := provisioner.Provision(context.Background(), organizationIdentity(provisioning.VisibilityPublic), provisioning.Credential{Token: testTokenConstant}, provisioning.ProviderEndpoint{BaseURL: serverURL})
	require.NoError(testInstance, provisionError)
	require.Equal(testInstance, provisioning.OutcomeAlreadyExisted, result.Outcome)
}

func TestProvisionScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		identity             provisioning.RepositoryIdentity
		stub                 *providerStub
		endpointSuffix       string
		expectedResult       provisioning.ProvisionResult
		expectedPostCount    int
		expectedCreationPath string
		expectedPrivateFlag  bool
	}{
		{
			name:     "existing_private_repository_is_adopted",
			identity: organizationIdentity(provisioning.VisibilityPublic),
			stub: &providerStub{
				existenceStatus: http.StatusOK,
				existenceBody:   `{"html_url":"` + testRemoteURLConstant + `","private":true}`,
			},
			expectedResult: provisioning.ProvisionResult{
				RemoteURL:  testRemoteURLConstant,
				Visibility: provisioning.VisibilityPrivate,
				Outcome:    provisioning.OutcomeAlreadyExisted,
			},
		},
		{
			name:     "missing_organization_repository_is_created",
			identity: organizationIdentity(provisioning.VisibilityPublic),
			stub: &providerStub{
				existenceStatus: http.StatusNotFound,
				existenceBody:   `{"message":"Not Found"}`,
				creationStatus:  http.StatusCreated,
				creationBody:    `{"html_url":"` + testRemoteURLConstant + `","private":false}`,
			},
			expectedResult: provisioning.ProvisionResult{
				RemoteURL:  testRemoteURLConstant,
				Visibility: provisioning.VisibilityPublic,
				Outcome:    provisioning.OutcomeCreated,
			},
			expectedPostCount:    1,
			expectedCreationPath: testOrganizationCreationPathConstant,
		},
		{
			name: "missing_user_repository_is_created_private",
			identity: provisioning.RepositoryIdentity{
				Owner:      testOwnerConstant,
				Name:       testRepositoryNameConstant,
				OwnerKind:  provisioning.OwnerKindUser,
				Visibility: provisioning.VisibilityPrivate,
			},
			stub: &providerStub{
				existenceStatus: http.StatusNotFound,
				creationStatus:  http.StatusCreated,
				creationBody:    `{"html_url":"` + testRemoteURLConstant + `","private":true}`,
			},
			endpointSuffix: "///",
			expectedResult: provisioning.ProvisionResult{
				RemoteURL:  testRemoteURLConstant,
				Visibility: provisioning.VisibilityPrivate,
				Outcome:    provisioning.OutcomeCreated,
			},
			expectedPostCount:    1,
			expectedCreationPath: testUserCreationPathConstant,
			expectedPrivateFlag:  true,
		},
		{
			name:     "existence_success_without_url_falls_through_to_creation",
			identity: organizationIdentity(provisioning.VisibilityPublic),
			stub: &providerStub{
				existenceStatus: http.StatusOK,
				existenceBody:   `{}`,
				creationStatus:  http.StatusCreated,
				creationBody:    `{"html_url":"` + testRemoteURLConstant + `"}`,
			},
			expectedResult: provisioning.ProvisionResult{
				RemoteURL:  testRemoteURLConstant,
				Visibility: provisioning.VisibilityPublic,
				Outcome:    provisioning.OutcomeCreated,
			},
			expectedPostCount:    1,
			expectedCreationPath: testOrganizationCreationPathConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provisioner, serverURL := newTestProvisioner(testInstance, testCase.stub)

			result, provisionError := provisioner.Provision(context.Background(), testCase.identity, validCredential(), provisioning.ProviderEndpoint{BaseURL: serverURL + testCase.endpointSuffix})
			require.NoError(testInstance, provisionError)
			require.Equal(testInstance, testCase.expectedResult, result)

			requests := testCase.stub.recorded()
			require.Equal(testInstance, http.MethodGet, requests[0].Method)
			require.Equal(testInstance, testExistencePathConstant, requests[0].Path)
			require.Equal(testInstance, "token "+testTokenConstant, requests[0].Authorization)
			require.Equal(testInstance, "application/vnd.github+json", requests[0].Accept)
			require.Equal(testInstance, testCase.expectedPostCount, testCase.stub.countMethod(http.MethodPost))
			require.Len(testInstance, requests, 1+testCase.expectedPostCount)

			if testCase.expectedPostCount == 0 {
				return
			}
			creationRequest := requests[1]
			require.Equal(testInstance, testCase.expectedCreationPath, creationRequest.Path)
			require.Equal(testInstance, "application/json", creationRequest.ContentType)
			require.Equal(testInstance, "token "+testTokenConstant, creationRequest.Authorization)
			require.Equal(testInstance, testRepositoryNameConstant, creationRequest.Body["name"])
			require.Equal(testInstance, testCase.expectedPrivateFlag, creationRequest.Body["private"])
		})
	}
}

func TestProvisionUnauthorizedStopsFurtherCalls(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		stub                 *providerStub
		expectedRequestCount int
		expectedStatusCode   int
	}{
		{
			name:                 "existence_unauthorized",
			stub:                 &providerStub{existenceStatus: http.StatusUnauthorized},
			expectedRequestCount: 1,
			expectedStatusCode:   http.StatusUnauthorized,
		},
		{
			name:                 "existence_forbidden",
			stub:                 &providerStub{existenceStatus: http.StatusForbidden},
			expectedRequestCount: 1,
			expectedStatusCode:   http.StatusForbidden,
		},
		{
			name:                 "creation_unauthorized",
			stub:                 &providerStub{existenceStatus: http.StatusNotFound, creationStatus: http.StatusUnauthorized},
			expectedRequestCount: 2,
			expectedStatusCode:   http.StatusUnauthorized,
		},
		{
			name:                 "creation_forbidden",
			stub:                 &providerStub{existenceStatus: http.StatusNotFound, creationStatus: http.StatusForbidden, creationBody: `{"message":"Resource not accessible"}`},
			expectedRequestCount: 2,
			expectedStatusCode:   http.StatusForbidden,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provisioner, serverURL := newTestProvisioner(testInstance, testCase.stub)

			_, provisionError := provisioner.Provision(context.Background(), organizationIdentity(provisioning.VisibilityPublic), validCredential(), provisioning.ProviderEndpoint{BaseURL: serverURL})
			require.ErrorIs(testInstance, provisionError, provisioning.ErrUnauthorized)
			require.Len(testInstance, testCase.stub.recorded(), testCase.expectedRequestCount)

			var typedError provisioning.ProvisionError
			require.True(testInstance, errors.As(provisionError, &typedError))
			require.Equal(testInstance, testCase.expectedStatusCode, typedError.StatusCode)
		})
	}
}

func TestProvisionRemoteRejection(testInstance *testing.T) {
	testCases := []struct {
		name            string
		creationStatus  int
		creationBody    string
		expectedMessage string
	}{
		{
			name:            "remote_message_is_carried",
			creationStatus:  http.StatusUnprocessableEntity,
			creationBody:    `{"message":"` + testRejectionMessageConstant + `"}`,
			expectedMessage: testRejectionMessageConstant,
		},
		{
			name:            "non_json_body_reports_unknown_error",
			creationStatus:  http.StatusInternalServerError,
			creationBody:    "upstream unavailable",
			expectedMessage: "Unknown error",
		},
		{
			name:            "success_without_url_reports_unknown_error",
			creationStatus:  http.StatusCreated,
			creationBody:    `{}`,
			expectedMessage: "Unknown error",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			stub := &providerStub{existenceStatus: http.StatusNotFound, creationStatus: testCase.creationStatus, creationBody: testCase.creationBody}
			provisioner, serverURL := newTestProvisioner(testInstance, stub)

			_, provisionError := provisioner.Provision(context.Background(), organizationIdentity(provisioning.VisibilityPublic), validCredential(), provisioning.ProviderEndpoint{BaseURL: serverURL})
			require.ErrorIs(testInstance, provisionError, provisioning.ErrRemoteRejected)
			require.NotErrorIs(testInstance, provisionError, provisioning.ErrNetworkFailure)

			var typedError provisioning.ProvisionError
			require.True(testInstance, errors.As(provisionError, &typedError))
			require.Equal(testInstance, testCase.expectedMessage, typedError.RemoteMessage())
			require.Equal(testInstance, testCase.creationStatus, typedError.StatusCode)
			require.Equal(testInstance, 1, stub.countMethod(http.MethodPost))
		})
	}
}

func TestProvisionTransportFailure(testInstance *testing.T) {
	transportFailure := gitapi.TransportError{Method: http.MethodGet, URL: "https://git.example/repos/acme/widgets", Cause: errors.New("connection refused")}
	apiClient := &failingAPIClient{failure: transportFailure}
	provisioner, creationError := provisioning.NewProvisioner(zap.NewNop(), apiClient, func() time.Time { return testNow })
	require.NoError(testInstance, creationError)

	_, provisionError := provisioner.Provision(context.Background(), organizationIdentity(provisioning.VisibilityPublic), validCredential(), provisioning.ProviderEndpoint{BaseURL: "https://git.example"})
	require.ErrorIs(testInstance, provisionError, provisioning.ErrNetworkFailure)
	require.NotErrorIs(testInstance, provisionError, provisioning.ErrRemoteRejected)
	require.Equal(testInstance, 1, apiClient.calls)

	var unwrappedTransportError gitapi.TransportError
	require.True(testInstance, errors.As(provisionError, &unwrappedTransportError))
}

func TestProvisionCancelledContext(testInstance *testing.T) {
	stub := &providerStub{existenceStatus: http.StatusNotFound, creationStatus: http.StatusCreated}
	provisioner, serverURL := newTestProvisioner(testInstance, stub)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, provisionError := provisioner.Provision(cancelledContext, organizationIdentity(provisioning.VisibilityPublic), validCredential(), provisioning.ProviderEndpoint{BaseURL: serverURL})
	require.ErrorIs(testInstance, provisionError, provisioning.ErrNetworkFailure)
	require.ErrorIs(testInstance, provisionError, context.Canceled)
	require.Empty(testInstance, stub.recorded())
}
