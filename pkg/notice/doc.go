// Package notice holds the security notices sent to members and the
// AlertService that sends them on behalf of the auth flows.
//
// Two notices exist: a new-device notice after every federated login, and
// a suspicious-login notice when a refresh is rejected because the client
// no longer resembles the device its token was issued to.
package notice
