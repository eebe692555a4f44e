package search

import "math/rand/v2"

// Hosts lists the regional search domains used when load balancing.
var Hosts = []string{
	"google.com", "google.de", "google.at", "google.pl", "google.fr", "google.nl",
	"google.it", "google.com.tr", "google.es", "google.ch", "google.be", "google.gr",
	"google.com.br", "google.lu", "google.fi", "google.pt", "google.hu", "google.hr",
	"google.bg", "google.com.mx", "google.si", "google.sk", "google.ro", "google.ca",
	"google.co.uk", "google.cl", "google.com.ar", "google.se", "google.cz", "google.dk",
	"google.co.th", "google.com.co", "google.lt", "google.co.id", "google.co.in", "google.co.il",
	"google.com.eg", "google.cn", "google.co.ve", "google.ru", "google.co.jp", "google.com.pe",
	"google.com.au", "google.co.ma", "google.co.za", "google.com.ph", "google.com.sa", "google.ie",
	"google.co.kr", "google.no", "google.com.ec", "google.com.vn", "google.lv", "google.com.mt",
	"google.com.uy", "google.ae", "google.ba", "google.co.nz", "google.com.ua", "google.co.cr",
	"google.ee", "google.com.do", "google.com.tw", "google.com.hk", "google.com.my", "google.com.sv",
	"google.com.pr", "google.lk", "google.com.gt", "google.com.bd", "google.com.pk", "google.is",
	"google.li", "google.com.bh", "google.com.ni", "google.com.py", "google.com.ng", "google.com.bo",
	"google.co.ke", "google.hn", "google.com.sg", "google.mu", "google.ci", "google.jo",
	"google.nu", "google.com.jm", "google.com.ly", "google.tt", "google.com.kh", "google.ge",
	"google.com.na", "google.com.et", "google.sm", "google.cd", "google.gm", "google.com.qa",
	"google.dj", "google.com.cu", "google.com.pa", "google.gp", "google.az", "google.as",
	"google.mn", "google.ht", "google.md", "google.am", "google.sn", "google.je",
	"google.com.bn", "google.com.ai", "google.co.zm", "google.ma", "google.rw", "google.co.ug",
	"google.com.vc", "google.com.gi", "google.to", "google.com.om", "google.kz", "google.co.uz",
}

// PrimaryDomain is the first entry of Hosts.
const PrimaryDomain = "google.com"

// DefaultHost is the host queries are sent to unless configured otherwise.
const DefaultHost = "www." + PrimaryDomain

// randomIndex is swapped out in tests.
var randomIndex = func(n int) int { return rand.IntN(n) }

// resolveHost picks a random regional host on every call when load balancing,
// so consecutive URLs for the same query may target different hosts.
func resolveHost(host string, loadBalance bool) string {
	if loadBalance && len(Hosts) > 0 {
		return Hosts[randomIndex(len(Hosts))]
	}
	if host == "" {
		return DefaultHost
	}
	return host
}
