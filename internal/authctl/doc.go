// Package authctl implements the operator commands of the authctl binary:
// applying migrations, hashing a password and creating a user by hand.
package authctl
