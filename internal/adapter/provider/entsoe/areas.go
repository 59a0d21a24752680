package entsoe

// areaCodes maps bidding zone / area names (the Regions."Code" vocabulary)
// to their EIC codes.
var areaCodes = map[string]string{
	"DE_50HZ":        "10YDE-VE-------2",
	"AL":             "10YAL-KESH-----5",
	"DE_AMPRION":     "10YDE-RWENET---I",
	"AT":             "10YAT-APG------L",
	"BY":             "10Y1001A1001A51S",
	"BE":             "10YBE----------2",
	"BA":             "10YBA-JPCC-----D",
	"BG":             "10YCA-BULGARIA-R",
	"CZ_DE_SK":       "10YDOM-CZ-DE-SKK",
	"HR":             "10YHR-HEP------M",
	"CWE":            "10YDOM-REGION-1V",
	"CY":             "10YCY-1001A0003J",
	"CZ":             "10YCZ-CEPS-----N",
	"DE_AT_LU":       "10Y1001A1001A63L",
	"DE_LU":          "10Y1001A1001A82H",
	"DK":             "10Y1001A1001A65H",
	"DK_1":           "10YDK-1--------W",
	"DK_1_NO_1":      "46Y000000000007M",
	"DK_2":           "10YDK-2--------M",
	"DK_CA":          "10Y1001A1001A796",
	"EE":             "10Y1001A1001A39I",
	"FI":             "10YFI-1--------U",
	"MK":             "10YMK-MEPSO----8",
	"FR":             "10YFR-RTE------C",
	"DE":             "10Y1001A1001A83F",
	"GR":             "10YGR-HTSO-----Y",
	"HU":             "10YHU-MAVIR----U",
	"IE_SEM":         "10Y1001A1001A59C",
	"IE":             "10YIE-1001A00010",
	"IT":             "10YIT-GRTN-----B",
	"IT_SACO_AC":     "10Y1001A1001A885",
	"IT_CALA":        "10Y1001C--00096J",
	"IT_SACO_DC":     "10Y1001A1001A893",
	"IT_BRNN":        "10Y1001A1001A699",
	"IT_CNOR":        "10Y1001A1001A70O",
	"IT_CSUD":        "10Y1001A1001A71M",
	"IT_FOGN":        "10Y1001A1001A72K",
	"IT_GR":          "10Y1001A1001A66F",
	"IT_MACRO_NORTH": "10Y1001A1001A84D",
	"IT_MACRO_SOUTH": "10Y1001A1001A85B",
	"IT_MALTA":       "10Y1001A1001A877",
	"IT_NORD":        "10Y1001A1001A73I",
	"IT_NORD_AT":     "10Y1001A1001A80L",
	"IT_NORD_CH":     "10Y1001A1001A68B",
	"IT_NORD_FR":     "10Y1001A1001A81J",
	"IT_NORD_SI":     "10Y1001A1001A67D",
	"IT_PRGP":        "10Y1001A1001A76C",
	"IT_ROSN":        "10Y1001A1001A77A",
	"IT_SARD":        "10Y1001A1001A74G",
	"IT_SICI":        "10Y1001A1001A75E",
	"IT_SUD":         "10Y1001A1001A788",
	"RU_KGD":         "10Y1001A1001A50U",
	"LV":             "10YLV-1001A00074",
	"LT":             "10YLT-1001A0008Q",
	"LU":             "10YLU-CEGEDEL-NQ",
	"LU_BZN":         "10Y1001A1001A82H",
	"MT":             "10Y1001A1001A93C",
	"ME":             "10YCS-CG-TSO---S",
	"GB":             "10YGB----------A",
	"GE":             "10Y1001A1001B012",
	"GB_IFA":         "10Y1001C--00098F",
	"GB_IFA2":        "17Y0000009369493",
	"GB_ELECLINK":    "11Y0-0000-0265-K",
	"UK":             "10Y1001A1001A92E",
	"NL":             "10YNL----------L",
	"NO_1":           "10YNO-1--------2",
	"NO_1A":          "10Y1001A1001A64J",
	"NO_2":           "10YNO-2--------T",
	"NO_2_NSL":       "50Y0JVU59B4JWQCU",
	"NO_2A":          "10Y1001C--001219",
	"NO_3":           "10YNO-3--------J",
	"NO_4":           "10YNO-4--------9",
	"NO_5":           "10Y1001A1001A48H",
	"NO":             "10YNO-0--------C",
	"PL_CZ":          "10YDOM-1001A082L",
	"PL":             "10YPL-AREA-----S",
	"PT":             "10YPT-REN------W",
	"MD":             "10Y1001A1001A990",
	"RO":             "10YRO-TEL------P",
	"RU":             "10Y1001A1001A49F",
	"SE_1":           "10Y1001A1001A44P",
	"SE_2":           "10Y1001A1001A45N",
	"SE_3":           "10Y1001A1001A46L",
	"SE_4":           "10Y1001A1001A47J",
	"RS":             "10YCS-SERBIATSOV",
	"SK":             "10YSK-SEPS-----K",
	"SI":             "10YSI-ELES-----O",
	"GB_NIR":         "10Y1001A1001A016",
	"ES":             "10YES-REE------0",
	"SE":             "10YSE-1--------K",
	"CH":             "10YCH-SWISSGRIDZ",
	"DE_TENNET":      "10YDE-EON------1",
	"DE_TRANSNET":    "10YDE-ENBW-----N",
	"TR":             "10YTR-TEIAS----W",
	"UA":             "10Y1001C--00003F",
	"UA_DOBTPP":      "10Y1001A1001A869",
	"UA_BEI":         "10YUA-WEPS-----0",
	"UA_IPS":         "10Y1001C--000182",
	"XK":             "10Y1001C--00100H",
	"DE_AMP_LU":      "10Y1001C--00002H",
}

// eicLength is the fixed length of an Energy Identification Code.
const eicLength = 16

// AreaCode resolves a region code to its EIC. Codes that already have the
// shape of an EIC are returned unchanged.
func AreaCode(code string) (string, bool) {
	if eic, ok := areaCodes[code]; ok {
		return eic, true
	}
	if len(code) == eicLength && (code[2] == 'Y' || code[2] == 'X' || code[2] == 'T') {
		return code, true
	}
	return "", false
}

// psrTypeNames maps production type codes to the names used as external
// generation type keys.
var psrTypeNames = map[string]string{
	"A03": "Mixed",
	"A04": "Generation",
	"A05": "Load",
	"B01": "Biomass",
	"B02": "Fossil Brown coal/Lignite",
	"B03": "Fossil Coal-derived gas",
	"B04": "Fossil Gas",
	"B05": "Fossil Hard coal",
	"B06": "Fossil Oil",
	"B07": "Fossil Oil shale",
	"B08": "Fossil Peat",
	"B09": "Geothermal",
	"B10": "Hydro Pumped Storage",
	"B11": "Hydro Run-of-river and poundage",
	"B12": "Hydro Water Reservoir",
	"B13": "Marine",
	"B14": "Nuclear",
	"B15": "Other renewable",
	"B16": "Solar",
	"B17": "Waste",
	"B18": "Wind Offshore",
	"B19": "Wind Onshore",
	"B20": "Other",
	"B21": "AC Link",
	"B22": "DC Link",
	"B23": "Substation",
	"B24": "Transformer",
	"B25": "Energy storage",
}

// PSRTypeName returns the name of a production type code, or the code
// itself when it is not known.
func PSRTypeName(code string) string {
	if name, ok := psrTypeNames[code]; ok {
		return name
	}
	return code
}
