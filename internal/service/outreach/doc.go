// Package outreach implements the administrative business logic for the
// outreach CRM: configurations, recipients, senders, templates, and
// manually authored dispatch batches.
//
// The service layer validates input and coordinates repositories. It
// depends on repository interfaces defined in this package and should
// never import from api/. Repository implementations live in
// repository/postgres/.
//
// The dispatch engine itself lives in internal/dispatch and defines its
// own narrower store contract.
package outreach
