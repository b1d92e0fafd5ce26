package utils

import (
	"net"

	"golang.org/x/net/publicsuffix"
)

// GetApexDomain returns the registrable domain (eTLD+1) for a host, or the
// canonical host itself when it has none (IP literals, bare TLDs).
func GetApexDomain(host string) string {
	host = CanonicalHost(host)
	if net.ParseIP(host) != nil {
		return host
	}
	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return apex
}
