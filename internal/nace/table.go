package nace

// sectionDivisions is the static NACE Rev.2 code table the hierarchy is built
// from: each section letter mapped to its division numbers. Groups and classes
// are not enumerated here; they are validated structurally against their
// division prefix.
var sectionDivisions = map[string][]string{
	"A": {"01", "02", "03"},
	"B": {"05", "06", "07", "08", "09"},
	"C": {
		"10", "11", "12", "13", "14", "15", "16", "17", "18", "19",
		"20", "21", "22", "23", "24", "25", "26", "27", "28", "29",
		"30", "31", "32", "33",
	},
	"D": {"35"},
	"E": {"36", "37", "38", "39"},
	"F": {"41", "42", "43"},
	"G": {"45", "46", "47"},
	"H": {"49", "50", "51", "52", "53"},
	"I": {"55", "56"},
	"J": {"58", "59", "60", "61", "62", "63"},
	"K": {"64", "65", "66"},
	"L": {"68"},
	"M": {"69", "70", "71", "72", "73", "74", "75"},
	"N": {"77", "78", "79", "80", "81", "82"},
	"O": {"84"},
	"P": {"85"},
	"Q": {"86", "87", "88"},
	"R": {"90", "91", "92", "93"},
	"S": {"94", "95", "96"},
	"T": {"97", "98"},
	"U": {"99"},
}
