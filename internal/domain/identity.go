package domain

// FederatedIdentity contiene los datos que devuelve un proveedor OAuth.
// No implica ninguna decision sobre la cuenta local.
type FederatedIdentity struct {
	Provider      string
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
}
