// Package member manages alliance members and their preferences.
//
// Members are created by the federated registration flow in package auth.
// Settings rows are optional; a member without one gets DefaultSettings.
package member
