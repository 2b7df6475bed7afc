package projects_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitprovision/cmd/cli/projects"
	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/gitrepo"
	internalprojects "github.com/temirov/gitprovision/internal/projects"
	"github.com/temirov/gitprovision/internal/registry"
)

const (
	testOwnerEmailConstant  = "dev@example.com"
	testGitUserNameConstant = "octodev"
)

func newRecordStore(testInstance *testing.T) *registry.Registry {
	testInstance.Helper()
	recordStore, buildError := registry.New(registry.Document{
		GitUsers: []registry.GitUser{
			{Name: testGitUserNameConstant, User: testOwnerEmailConstant, Organizations: []string{"acme"}},
			{Name: "outsider", User: "outsider@example.com"},
		},
		Repositories: []registry.Repository{
			{Name: "acme-widgets", URL: "https://github.com/acme/widgets", Owner: testOwnerEmailConstant, Party: "Git Organization", PartyName: "acme"},
			{Name: "personal-dotfiles", URL: "https://github.com/octodev/dotfiles", Owner: testOwnerEmailConstant, Party: "Git User", PartyName: testGitUserNameConstant},
		},
	})
	require.NoError(testInstance, buildError)
	return recordStore
}

func TestLinkCommand(testInstance *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectedOutput string
		expectedError  error
		expectedAs     any
		expectedSub    string
	}{
		{
			name:           "links_registered_organization_repository",
			arguments:      []string{"--repository", "acme-widgets"},
			expectedOutput: "LINKED acme-widgets -> https://github.com/acme/widgets.git (organization acme, git user octodev)\n",
		},
		{
			name:           "validates_registered_repository_for_explicit_git_user",
			arguments:      []string{"--repository", "acme-widgets", "--git-user", testGitUserNameConstant},
			expectedOutput: "VALID https://github.com/acme/widgets.git for git user octodev (organization acme)\n",
		},
		{
			name:           "validates_unregistered_url",
			arguments:      []string{"--url", "git@github.com:acme/gadgets.git", "--git-user", testGitUserNameConstant},
			expectedOutput: "VALID https://github.com/acme/gadgets.git for git user octodev (organization acme)\n",
		},
		{
			name:       "rejects_git_user_outside_organization",
			arguments:  []string{"--url", "https://github.com/acme/gadgets", "--git-user", "outsider"},
			expectedAs: &internalprojects.OrganizationMismatchError{},
		},
		{
			name:        "rejects_user_owned_repository",
			arguments:   []string{"--repository", "personal-dotfiles"},
			expectedSub: "personal-dotfiles",
		},
		{
			name:          "reports_unknown_repository",
			arguments:     []string{"--repository", "missing"},
			expectedError: registry.ErrRecordNotFound,
		},
		{
			name:        "requires_target",
			arguments:   []string{},
			expectedSub: "provide --repository or --url",
		},
		{
			name:        "requires_git_user_with_url",
			arguments:   []string{"--url", "https://github.com/acme/gadgets"},
			expectedSub: "--url requires --git-user",
		},
		{
			name:       "rejects_unparseable_url",
			arguments:  []string{"--url", "not a url", "--git-user", testGitUserNameConstant},
			expectedAs: &gitrepo.ParseError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			builder := projects.LinkCommandBuilder{
				Collaborators: dependencies.Collaborators{RecordStore: newRecordStore(subTest)},
			}
			command, buildError := builder.Build()
			require.NoError(subTest, buildError)

			outputBuffer := &bytes.Buffer{}
			command.SetOut(outputBuffer)
			command.SetErr(io.Discard)
			command.SetArgs(testCase.arguments)
			command.SilenceUsage = true
			command.SilenceErrors = true

			executionError := command.Execute()
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(subTest, executionError, testCase.expectedError)
			case testCase.expectedAs != nil:
				require.ErrorAs(subTest, executionError, testCase.expectedAs)
			case len(testCase.expectedSub) > 0:
				require.Error(subTest, executionError)
				require.Contains(subTest, executionError.Error(), testCase.expectedSub)
			default:
				require.NoError(subTest, executionError)
				require.Equal(subTest, testCase.expectedOutput, outputBuffer.String())
			}
		})
	}
}
