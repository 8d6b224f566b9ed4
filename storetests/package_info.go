// Package storetests contains the music store scenarios themselves and the steps they are
// built from.
//
// Scenario infrastructure that is not specific to the store, such as step sequencing and
// reporting, is in the lower-level framework package. HTTP plumbing and the register-or-login
// algorithm are in the client package.
package storetests
