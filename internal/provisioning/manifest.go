package provisioning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestReadErrorTemplateConstant  = "unable to read manifest %s: %w"
	manifestParseErrorTemplateConstant = "unable to parse manifest %s: %w"
	manifestEntryErrorTemplateConstant = "manifest entry %d: %w"
	manifestEmptyErrorTemplateConstant = "manifest %s lists no repositories"
	manifestPathMissingMessageConstant = "manifest path must be provided"
)

// ManifestEntry is one repository requested in a batch manifest.
type ManifestEntry struct {
	Owner      string `yaml:"owner"`
	Name       string `yaml:"name"`
	OwnerKind  string `yaml:"owner_kind"`
	Visibility string `yaml:"visibility"`
}

// Manifest lists repositories to provision in one batch.
type Manifest struct {
	Provider     string          `yaml:"provider"`
	Repositories []ManifestEntry `yaml:"repositories"`
}

// LoadManifest reads a YAML batch manifest.
func LoadManifest(path string) (Manifest, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return Manifest{}, errors.New(manifestPathMissingMessageConstant)
	}

	contents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(manifestReadErrorTemplateConstant, trimmedPath, readError)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	var manifest Manifest
	if decodeError := decoder.Decode(&manifest); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return Manifest{}, fmt.Errorf(manifestParseErrorTemplateConstant, trimmedPath, decodeError)
	}

	if len(manifest.Repositories) == 0 {
		return Manifest{}, fmt.Errorf(manifestEmptyErrorTemplateConstant, trimmedPath)
	}

	return manifest, nil
}

// Identities converts manifest entries into repository identities.
// Owner kind and visibility values are parsed; owner and name are validated later by Provision.
func (manifest Manifest) Identities() ([]RepositoryIdentity, error) {
	identities := make([]RepositoryIdentity, 0, len(manifest.Repositories))
	for entryIndex, entry := range manifest.Repositories {
		ownerKindValue := entry.OwnerKind
		if len(strings.TrimSpace(ownerKindValue)) == 0 {
			ownerKindValue = ownerKindUserConstant
		}
		ownerKind, ownerKindError := ParseOwnerKind(ownerKindValue)
		if ownerKindError != nil {
			return nil, fmt.Errorf(manifestEntryErrorTemplateConstant, entryIndex, ownerKindError)
		}

		visibility, visibilityError := ParseVisibility(entry.Visibility)
		if visibilityError != nil {
			return nil, fmt.Errorf(manifestEntryErrorTemplateConstant, entryIndex, visibilityError)
		}

		identities = append(identities, RepositoryIdentity{
			Owner:      entry.Owner,
			Name:       entry.Name,
			OwnerKind:  ownerKind,
			Visibility: visibility,
		})
	}
	return identities, nil
}
