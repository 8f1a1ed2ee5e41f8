// Package clientstore holds the durable, client-side state of a portal session: the role hint written by
// session.Gate.AssignRole and the UID restored by the local identity provider.
package clientstore

// CredentialStore persists the UID of the signed-in user across processes. An empty UID means signed out.
type CredentialStore interface {
	LoadUID() (string, error)
	SaveUID(uid string) error
}
