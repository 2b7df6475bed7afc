package organizations_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/credentials"
	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/organizations"
	"github.com/temirov/gitprovision/internal/registry"
)

const (
	testTokenConstant             = "ghp_example"
	testOrganizationsBodyConstant = `[{"login":"acme"},{"login":"","name":"Platform Team"}]`
)

var testMembershipNow = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func membershipSession(serverURL string, credential credentials.Credential) credentials.Session {
	return credentials.Session{
		ActingUser: "dev@example.com",
		GitUser:    registry.GitUser{Name: "octodev", User: "dev@example.com"},
		Provider:   registry.Provider{Name: testProviderNameConstant, URL: serverURL, Kind: registry.ProviderKindGitHub},
		Credential: credential,
	}
}

func TestMembershipCheckerCheck(testInstance *testing.T) {
	validCredential := credentials.Credential{Token: testTokenConstant, ExpiresAt: testMembershipNow.Add(time.Hour)}

	testCases := []struct {
		name                 string
		organization         string
		credential           credentials.Credential
		status               int
		body                 string
		expectedRequestCount int
		expectedError        error
		errorType            any
	}{
		{
			name:                 "member_by_login",
			organization:         testOrganizationConstant,
			credential:           validCredential,
			status:               http.StatusOK,
			body:                 testOrganizationsBodyConstant,
			expectedRequestCount: 1,
		},
		{
			name:                 "member_by_name",
			organization:         "Platform Team",
			credential:           validCredential,
			status:               http.StatusOK,
			body:                 testOrganizationsBodyConstant,
			expectedRequestCount: 1,
		},
		{
			name:                 "not_a_member",
			organization:         "umbrella",
			credential:           validCredential,
			status:               http.StatusOK,
			body:                 testOrganizationsBodyConstant,
			expectedRequestCount: 1,
			errorType:            organizations.OrganizationNotPermittedError{},
		},
		{
			name:                 "lookup_rejected",
			organization:         testOrganizationConstant,
			credential:           validCredential,
			status:               http.StatusUnauthorized,
			body:                 `{"message":"Bad credentials"}`,
			expectedRequestCount: 1,
			errorType:            organizations.MembershipLookupError{},
		},
		{
			name:          "expired_credential",
			organization:  testOrganizationConstant,
			credential:    credentials.Credential{Token: testTokenConstant, ExpiresAt: testMembershipNow.Add(-time.Hour)},
			status:        http.StatusOK,
			body:          testOrganizationsBodyConstant,
			expectedError: organizations.ErrCredentialExpired,
		},
		{
			name:          "missing_token",
			organization:  testOrganizationConstant,
			status:        http.StatusOK,
			body:          testOrganizationsBodyConstant,
			expectedError: organizations.ErrTokenMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			server, records := newRecordingServer(testInstance, testCase.status, testCase.body)
			checker, creationError := organizations.NewMembershipChecker(zap.NewNop(), gitapi.NewClient(zap.NewNop(), server.Client(), gitapi.ClientConfiguration{}), func() time.Time { return testMembershipNow })
			require.NoError(testInstance, creationError)

			_, checkError := checker.Check(context.Background(), membershipSession(server.URL, testCase.credential), testCase.organization)
			require.Len(testInstance, *records, testCase.expectedRequestCount)
			if testCase.expectedRequestCount > 0 {
				require.Equal(testInstance, "/user/orgs", (*records)[0].escapedPath)
				require.Equal(testInstance, "token "+testTokenConstant, (*records)[0].authorization)
			}

			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(testInstance, checkError, testCase.expectedError)
			case testCase.errorType != nil:
				require.Error(testInstance, checkError)
				require.IsType(testInstance, testCase.errorType, checkError)
			default:
				require.NoError(testInstance, checkError)
			}
		})
	}
}

func TestMembershipCheckerReportsAvailableOrganizations(testInstance *testing.T) {
	server, _ := newRecordingServer(testInstance, http.StatusOK, testOrganizationsBodyConstant)
	checker, creationError := organizations.NewMembershipChecker(zap.NewNop(), gitapi.NewClient(zap.NewNop(), server.Client(), gitapi.ClientConfiguration{}), nil)
	require.NoError(testInstance, creationError)

	available, checkError := checker.Check(context.Background(), membershipSession(server.URL, credentials.Credential{Token: testTokenConstant}), "umbrella")
	var notPermittedError organizations.OrganizationNotPermittedError
	require.True(testInstance, errors.As(checkError, &notPermittedError))
	require.Equal(testInstance, []string{"acme", "Platform Team"}, available)
	require.Equal(testInstance, available, notPermittedError.Available)
}

func TestMembershipCheckerRejectsMalformedProviderURL(testInstance *testing.T) {
	server, records := newRecordingServer(testInstance, http.StatusOK, testOrganizationsBodyConstant)
	checker, creationError := organizations.NewMembershipChecker(zap.NewNop(), gitapi.NewClient(zap.NewNop(), server.Client(), gitapi.ClientConfiguration{}), nil)
	require.NoError(testInstance, creationError)

	session := membershipSession("ftp://git.example", credentials.Credential{Token: testTokenConstant})
	_, checkError := checker.Check(context.Background(), session, testOrganizationConstant)

	var endpointError organizations.InvalidProviderEndpointError
	require.ErrorAs(testInstance, checkError, &endpointError)
	require.Equal(testInstance, "ftp://git.example", endpointError.ProviderURL)
	require.Empty(testInstance, *records)
}
