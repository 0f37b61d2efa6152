package subscription

type Config struct {
	CatalogPath      string `env:"PLAN_CATALOG_PATH"`          // CatalogPath points at a YAML plan catalog; empty uses the embedded defaults.
	CredentialSecret string `env:"CREDENTIAL_SECRET,required"` // CredentialSecret seeds API key derivation. Rotating it affects only future keys.
}
