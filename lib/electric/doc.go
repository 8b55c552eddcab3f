// Package electric contains the client modules of the application.
//
// UserModule and UsageModule bind a gateway session to the electric contract.
// Initialize must succeed before any other call, otherwise every call fails
// with "contract not found". Reads evaluate, writes submit after checking
// their input locally. Every gateway call is bounded by the module timeout.
//
// Successes carry code 1 and the requested documents. Failures are *Error
// values with code 0 and a message, and unwrap to the contract, gateway or
// context error that caused them.
package electric
