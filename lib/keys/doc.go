// Package keys builds the composite storage keys of the ledger world state.
//
// Every document type lives in its own namespace, so a write of one type can
// never overwrite a document of another type:
//
//	user:  USER  \x00 <userId>
//	usage: USAGE \x00 <userId> \x00 <timestamp>
//
// The separator is the NUL byte, as in Fabric composite keys, and the
// timestamp is unix milliseconds zero-padded to 20 digits. Byte order of the
// keys therefore equals (type, user, time) order, and a range scan over
// [prefix, prefix + U+10FFFF) returns exactly the documents below prefix.
//
// Identifiers follow a capacity contract instead of a fixed digit count: any
// non-empty UTF-8 string up to MaxIDLength bytes that does not contain the
// separator or U+10FFFF.
package keys
