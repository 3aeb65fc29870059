// Package eurostat fetches HICP inflation and euro area interest rate series from the Eurostat
// dissemination api.
package eurostat

const (
	DatasetHICP          = "prc_hicp_manr"
	DatasetInterestRates = "irt_st_m"

	// UnitAnnualRate is the annual rate of change, the only unit of the HICP dataset we consume
	UnitAnnualRate = "RCH_A"

	CategoryAllItems      = "CP00"
	CategoryFood          = "FOOD"
	CategoryEnergy        = "NRG"
	CategoryIndustrial    = "IGD"
	CategoryServices      = "SERV"
	RateMainRefinancing   = "MRR_RT"
	RateDepositFacility   = "DFR"
	RegionEuroArea        = "EA"
	RegionEuroArea19      = "EA19"
	RegionEuroArea20      = "EA20"
	DefaultInterestRegion = RegionEuroArea
)

// Categories are the COICOP aggregates reported per region
var Categories = []string{
	CategoryAllItems,
	CategoryFood,
	CategoryEnergy,
	CategoryIndustrial,
	CategoryServices,
}

var categoryNames = map[string]string{
	CategoryAllItems:   "All items",
	CategoryFood:       "Food, alcohol & tobacco",
	CategoryEnergy:     "Energy",
	CategoryIndustrial: "Non-energy industrial goods",
	CategoryServices:   "Services",
}

// RateTypes are the ECB key interest rates available in the short term rate dataset
var RateTypes = []string{RateMainRefinancing, RateDepositFacility}

var rateNames = map[string]string{
	RateMainRefinancing: "Main refinancing rate",
	RateDepositFacility: "Deposit facility rate",
}

var regionNames = map[string]string{
	"EA":   "Euro area",
	"EA19": "Euro area",
	"EA20": "Euro area",
	"AT":   "Austria",
	"BE":   "Belgium",
	"BG":   "Bulgaria",
	"HR":   "Croatia",
	"CY":   "Cyprus",
	"CZ":   "Czechia",
	"DK":   "Denmark",
	"EE":   "Estonia",
	"FI":   "Finland",
	"FR":   "France",
	"DE":   "Germany",
	"EL":   "Greece",
	"GR":   "Greece",
	"HU":   "Hungary",
	"IE":   "Ireland",
	"IT":   "Italy",
	"LT":   "Lithuania",
	"LU":   "Luxembourg",
	"LV":   "Latvia",
	"MT":   "Malta",
	"NL":   "Netherlands",
	"PL":   "Poland",
	"PT":   "Portugal",
	"RO":   "Romania",
	"SE":   "Sweden",
	"SI":   "Slovenia",
	"SK":   "Slovakia",
	"ES":   "Spain",
	"US":   "United States",
}

// CategoryName returns a readable name for a COICOP code, or the code itself
func CategoryName(code string) string {
	if name, ok := categoryNames[code]; ok {
		return name
	}
	return code
}

// RateName returns a readable name for an interest rate code, or the code itself
func RateName(code string) string {
	if name, ok := rateNames[code]; ok {
		return name
	}
	return code
}

// RegionName returns a readable name for a geo code, or the code itself
func RegionName(code string) string {
	if name, ok := regionNames[code]; ok {
		return name
	}
	return code
}

// IsEuroArea reports whether the geo code is one of the euro area aggregates
func IsEuroArea(code string) bool {
	return code == RegionEuroArea || code == RegionEuroArea19 || code == RegionEuroArea20
}

// PreferEuroArea picks EA20 over EA19 when both aggregates are available
func PreferEuroArea(available []string) string {
	pick := ""
	for _, code := range available {
		switch code {
		case RegionEuroArea20:
			return code
		case RegionEuroArea19, RegionEuroArea:
			if pick == "" {
				pick = code
			}
		}
	}
	return pick
}
