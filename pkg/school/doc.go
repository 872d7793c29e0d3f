// Package school manages the alliance's partner schools. A school's email
// domain is used to suggest it to members registering with a school
// account.
package school
