// Package cli implements the command-line client of the business API.
//
// Commands:
//
//	register                        create an account (prompts for name, email, password)
//	login                           exchange credentials for a token and store it
//	logout                          remove the stored token
//	whoami                          show the account the stored token belongs to
//	list businesses|reviews|photos  list resources owned by the logged-in user
//
// The token is kept in the file named by the -f flag, mode 0600.
package cli
