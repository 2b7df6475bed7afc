package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	gitUserPrefixConstant               = "git@"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	parseErrorTemplateConstant          = "%s: %s"
	requiredValueMessageConstant        = "value required"
	invalidRepositoryURLMessageConstant = "invalid repository url"
	httpsRemoteFormatTemplateConstant   = "https://%s/%s/%s.git"
)

// Protocol enumerates repository URL schemes understood by the parser.
type Protocol string

// Supported protocols.
const (
	ProtocolSSH   Protocol = Protocol("ssh")
	ProtocolHTTPS Protocol = Protocol("https")
	ProtocolHTTP  Protocol = Protocol("http")
)

// RepositoryURL is a structured repository location.
type RepositoryURL struct {
	Protocol   Protocol
	Host       string
	Owner      string
	Repository string
}

// ParseError indicates a repository URL could not be parsed.
type ParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRepositoryURL converts web, https, and ssh repository URLs into a RepositoryURL.
// Extra path segments after the repository name (for example /tree/main) are ignored.
func ParseRepositoryURL(repositoryURL string) (RepositoryURL, error) {
	trimmedURL := strings.TrimSpace(repositoryURL)
	if len(trimmedURL) == 0 {
		return RepositoryURL{}, ParseError{Input: repositoryURL, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedURL, sshProtocolPrefixConstant):
		return parseSSH(repositoryURL, strings.TrimPrefix(trimmedURL, sshProtocolPrefixConstant), pathSeparatorConstant)
	case strings.HasPrefix(trimmedURL, gitUserPrefixConstant):
		return parseSSH(repositoryURL, trimmedURL, sshPathDelimiterConstant)
	case strings.HasPrefix(trimmedURL, httpsProtocolPrefixConstant):
		return parseWeb(repositoryURL, ProtocolHTTPS, strings.TrimPrefix(trimmedURL, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedURL, httpProtocolPrefixConstant):
		return parseWeb(repositoryURL, ProtocolHTTP, strings.TrimPrefix(trimmedURL, httpProtocolPrefixConstant))
	default:
		return RepositoryURL{}, ParseError{Input: repositoryURL, Message: invalidRepositoryURLMessageConstant}
	}
}

// HTTPSCloneURL renders the https://host/owner/repository.git form.
func (repositoryURL RepositoryURL) HTTPSCloneURL() string {
	return fmt.Sprintf(httpsRemoteFormatTemplateConstant, repositoryURL.Host, repositoryURL.Owner, repositoryURL.Repository)
}

// parseSSH splits host from path at hostDelimiter: "/" for ssh:// URLs, where the host may carry a :port, and ":" for scp-style remotes.
func parseSSH(originalInput string, remote string, hostDelimiter string) (RepositoryURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	if userSplitIndex == -1 {
		return RepositoryURL{}, ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}
	hostAndPath := remote[userSplitIndex+1:]

	delimiterIndex := strings.Index(hostAndPath, hostDelimiter)
	if delimiterIndex <= 0 {
		return RepositoryURL{}, ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}

	host := hostAndPath[:delimiterIndex]
	if hostDelimiter == pathSeparatorConstant {
		if portIndex := strings.LastIndex(host, sshPathDelimiterConstant); portIndex >= 0 {
			host = host[:portIndex]
		}
	}
	if len(host) == 0 {
		return RepositoryURL{}, ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}

	owner, repository, splitError := splitOwnerAndRepository(originalInput, hostAndPath[delimiterIndex+1:])
	if splitError != nil {
		return RepositoryURL{}, splitError
	}

	return RepositoryURL{Protocol: ProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func parseWeb(originalInput string, protocol Protocol, remote string) (RepositoryURL, error) {
	slashIndex := strings.Index(remote, pathSeparatorConstant)
	if slashIndex <= 0 {
		return RepositoryURL{}, ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}

	owner, repository, splitError := splitOwnerAndRepository(originalInput, remote[slashIndex+1:])
	if splitError != nil {
		return RepositoryURL{}, splitError
	}

	return RepositoryURL{Protocol: protocol, Host: strings.ToLower(remote[:slashIndex]), Owner: owner, Repository: repository}, nil
}

func splitOwnerAndRepository(originalInput string, path string) (string, string, error) {
	segments := strings.Split(strings.Trim(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) < 2 {
		return "", "", ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}

	owner := strings.TrimSpace(segments[0])
	repository := strings.TrimSuffix(strings.TrimSpace(segments[1]), gitSuffixConstant)
	if len(owner) == 0 || len(repository) == 0 {
		return "", "", ParseError{Input: originalInput, Message: invalidRepositoryURLMessageConstant}
	}

	return owner, repository, nil
}
