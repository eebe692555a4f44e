package search

// License selects results by usage rights.
type License string

const (
	LicenseAny          License = ""
	LicenseAladdin      License = "aladdin"
	LicenseArtistic     License = "artistic"
	LicenseApache       License = "apache"
	LicenseApple        License = "apple"
	LicenseBSD          License = "bsd"
	LicenseCommonPublic License = "cpl"
	LicenseCCBy         License = "cc_by"
	LicenseCCBySA       License = "cc_by_sa"
	LicenseCCByND       License = "cc_by_nd"
	LicenseCCByNC       License = "cc_by_nc_sa"
	LicenseCCByNDSA     License = "cc_by_nd_sa"
	LicenseCCByNCND     License = "cc_by_nc_nd"
	LicenseGPL          License = "gpl"
	LicenseLGPL         License = "lgpl"
	LicenseHistorical   License = "disclaimer"
	LicenseIBMPublic    License = "ibm"
	LicenseLucentPublic License = "lucent"
	LicenseMIT          License = "mit"
	LicenseMozilla      License = "mozilla"
	LicenseNASAOSA      License = "nasa"
	LicensePython       License = "python"
	LicenseQPublic      License = "qpl"
	LicenseSleepycat    License = "sleepycat"
	LicenseZopePublic   License = "zope"
)

// rightsExpressions holds the as_rights values for the Creative Commons
// combinations the web endpoint understands. Other licenses have no encoding.
var rightsExpressions = map[License]string{
	LicenseCCByNCND: "(cc_publicdomain|cc_attribute|cc_sharealike|cc_noncommercial|cc_nonderived)",
	LicenseCCBySA:   "(cc_publicdomain|cc_attribute|cc_sharealike|cc_nonderived).-(cc_noncommercial)",
	LicenseCCByNC:   "(cc_publicdomain|cc_attribute|cc_sharealike|cc_noncommercial).-(cc_nonderived)",
	LicenseCCBy:     "(cc_publicdomain|cc_attribute|cc_sharealike).-(cc_noncommercial|cc_nonderived)",
}

func licenseFromRights(expr string) License {
	for l, e := range rightsExpressions {
		if e == expr {
			return l
		}
	}
	return LicenseAny
}
