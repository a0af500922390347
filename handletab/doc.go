// Package handletab provides an in-process handle table.
//
// The codec itself never creates or destroys handles; it claims them from
// and assigns them to caller-owned arrays, and discharges them through an
// ipcwire.Disposer on failure paths. Table supplies both halves for code
// that has no kernel behind it: tests asserting the codec's
// close-exactly-once guarantees, and tools building synthetic messages.
package handletab
