// Package api exposes the user and usage modules as a JSON REST API.
//
//	GET  /users                  all users
//	POST /users                  create a user {userId, userName}
//	GET  /users/:id              one user
//	GET  /users/:id/usage        usage of a user, optional ?from=&to= in unix ms
//	GET  /usage                  all usage
//	POST /usage                  record usage {userId, time, voltage, current, power, frequency, energy}
//	GET  /registered             whether the user identity is enrolled
//	GET  /metrics                Prometheus metrics
//
// Failures answer {code: 0, message} with status 400, 404, 503 or 500.
package api
