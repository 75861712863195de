// Package main provides the entry point for the vpnsentry CLI.
//
// vpnsentry estimates whether the current network connection is relayed
// through a VPN, proxy or anonymization service, and shows a warning when
// the estimate crosses a confidence threshold.
//
// Usage:
//
//	vpnsentry check
//	vpnsentry watch --interval 30s
//	vpnsentry history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
