package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// PushExporter uploads the run output image to a registry repository.
// The image is the one OCIExporter writes to disk.
type PushExporter struct{}

func init() {
	RegisterExporter("push", &PushExporter{})
}

func (e *PushExporter) Export(result *types.RunResult, config *types.RunConfig) error {
	if config.Registry == "" {
		return fmt.Errorf("push requires a registry repository")
	}

	tag, err := pushTag(config.Registry, filepath.Base(result.OutputDir), config.RegistryInsecure)
	if err != nil {
		return err
	}

	img, err := buildImage(result)
	if err != nil {
		return err
	}

	auth := authenticator(tag.RegistryStr())
	if err := remote.Write(tag, img, remote.WithAuth(auth)); err != nil {
		return fmt.Errorf("failed to push %s: %v", tag, err)
	}

	digest, err := img.Digest()
	if err != nil {
		return fmt.Errorf("failed to compute image digest: %v", err)
	}

	setArtifact(result, "push", tag.Context().Digest(digest.String()).String())
	return nil
}

// pushTag builds <registry>/<document>:latest.
func pushTag(registry, base string, insecure bool) (name.Tag, error) {
	var opts []name.Option
	if insecure {
		opts = append(opts, name.Insecure)
	}

	ref := strings.TrimSuffix(registry, "/") + "/" + repositoryName(base) + ":latest"
	tag, err := name.NewTag(ref, opts...)
	if err != nil {
		return name.Tag{}, fmt.Errorf("invalid registry reference %s: %v", ref, err)
	}
	return tag, nil
}

// authenticator resolves credentials for registry from the environment
// first, then from the docker config keychain, falling back to anonymous.
func authenticator(registry string) authn.Authenticator {
	if auth, ok := authFromEnvironment(registry); ok {
		return auth
	}

	resource, err := name.NewRegistry(registry)
	if err == nil {
		if auth, err := authn.DefaultKeychain.Resolve(resource); err == nil {
			return auth
		}
	}
	return authn.Anonymous
}

// authFromEnvironment checks <REGISTRY>_USERNAME/_PASSWORD/_TOKEN with dots,
// dashes and colons in the registry host replaced by underscores, then the
// generic LAYERSLICE_REGISTRY_* variables.
func authFromEnvironment(registry string) (authn.Authenticator, bool) {
	prefix := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_", ":", "_").Replace(registry))

	for _, p := range []string{prefix, "LAYERSLICE_REGISTRY"} {
		username := os.Getenv(p + "_USERNAME")
		password := os.Getenv(p + "_PASSWORD")
		if username != "" && password != "" {
			return &authn.Basic{Username: username, Password: password}, true
		}
		if token := os.Getenv(p + "_TOKEN"); token != "" {
			return &authn.Bearer{Token: token}, true
		}
	}
	return nil, false
}
