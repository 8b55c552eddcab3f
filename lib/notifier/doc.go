// Package notifier captures channel diagnostics after usage records are written.
//
// A Notifier takes snapshots of a Source (the peer binary or a ledger store)
// and hands them to Sinks (an append only text file, an MQTT topic). Snapshots
// are taken one at a time in the background. Failures are logged and counted
// and never reach the code that triggered the snapshot.
package notifier
