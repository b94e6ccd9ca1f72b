package imagebuilder

import "context"

// SecretFetcher resolves a named secret to its value for injection as
// a build arg, mirroring bx/build/secrets.go's SecretFetcher interface.
// Only a dummy implementation ships here: spec.md scopes out registry
// credential management, so this is kept interface-only for a future
// secrets backend to implement.
type SecretFetcher interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// DummySecretFetcher always reports the secret as absent, the same
// fallback bx/build/secrets.go's BuildService.GetSecret uses when no
// real fetcher has been configured.
type DummySecretFetcher struct{}

func (DummySecretFetcher) GetSecret(_ context.Context, name string) (string, error) {
	return "", nil
}
