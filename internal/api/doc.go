// Package api handles incoming HTTP requests for the word pool: claiming,
// photo verification, counting and the admin reset. It translates HTTP
// concerns to calls on the assignment and verification services.
package api
