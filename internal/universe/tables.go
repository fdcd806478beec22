package universe

// jumpDistanceBeyond indexes the saturated entry used for every subtype above 8.
const jumpDistanceBeyond = 9

// jumpPointDistances holds the distance from a star to its jump points in km,
// by spectral class and subtype. Entries are literal sourcebook values
// (Dropships and Jumpships, p. 17) and must not be smoothed or interpolated.
// Class O has no entry.
var jumpPointDistances = map[SpectralClass][10]float64{
	SpectralB: {
		347840509855, 282065439915, 229404075188, 187117766777, 153063985045,
		12556160986, 103287722257, 85198295036, 70467069133, 58438309136,
	},
	SpectralA: {
		48590182199, 40506291619, 33853487850, 28364525294, 23824470101,
		20060019532, 16931086050, 14324152109, 12147004515, 10324556364,
	},
	SpectralF: {
		8795520975, 7509758447, 6426154651, 5510915132, 4736208289,
		4079054583, 3520442982, 3044611112, 2638462416, 2291092549,
	},
	SpectralG: {
		1993403717, 1737789950, 1517879732, 1328325100, 1164628460,
		1023000099, 900240718, 793644393, 700918272, 620115976,
	},
	SpectralK: {
		549582283, 487907078, 433886958, 386493164, 344844735,
		308186014, 275867748, 247331200, 222094749, 199742590,
	},
	SpectralM: {
		179915179, 162301133, 146630374, 132668292, 120210786,
		109080037, 99120895, 90197803, 82192147, 75000000,
	},
}

// minLifeZone and maxLifeZone bound the habitable orbit band in km for
// main-sequence stars, by spectral class and subtype 0-9.
var minLifeZone = map[SpectralClass][10]float64{
	SpectralB: {
		22606278283, 15800597638, 11043785385, 7719024205, 5395191287,
		3770954495, 2635698541, 1842214433, 1287610842, 899972148,
	},
	SpectralA: {
		802101022, 733398776, 670581073, 613143887, 560626360,
		512607109, 468700845, 428555277, 391848292, 358285366,
	},
	SpectralF: {
		338243196, 313253359, 290109802, 268676121, 248825987,
		230442407, 213417029, 197649507, 183046910, 169523172,
	},
	SpectralG: {
		160040194, 151668620, 143734957, 136216297, 129090932,
		122338289, 115938872, 109874203, 104126771, 98679984,
	},
	SpectralK: {
		92093519, 83990288, 76600053, 69860079, 63713149,
		58107082, 52994289, 48331366, 44078730, 40200279,
	},
	SpectralM: {
		35828537, 26356985, 19389312, 14263597, 10492905,
		7719024, 5678440, 4177301, 3072999, 2260628,
	},
}

var maxLifeZone = map[SpectralClass][10]float64{
	SpectralB: {
		32567729126, 22763127015, 15910226638, 11120410281, 7772580971,
		5432624645, 3797118440, 2653985760, 1854996236, 1296544649,
	},
	SpectralA: {
		1155546635, 1056570762, 966072455, 883325587, 807666225,
		738487303, 675233754, 617398052, 564516144, 516163722,
	},
	SpectralF: {
		487289976, 451288372, 417946613, 387068186, 358471096,
		331986796, 307459189, 284743713, 263706485, 244223515,
	},
	SpectralG: {
		230561865, 218501360, 207071729, 196239974, 185974819,
		176246626, 167027306, 158290242, 150010207, 142163294,
	},
	SpectralK: {
		132674505, 121000587, 110353847, 100643905, 91788332,
		83711954, 76346209, 69628570, 63502011, 57914522,
	},
	SpectralM: {
		51616372, 37971184, 27933208, 20548848, 15116601,
		11120410, 8180644, 6018027, 4427115, 3256773,
	},
}

// JumpPointDistance returns the star-to-jump-point distance in km for the
// given classification. Subtypes above 8 saturate to the class's last entry.
// Class O, negative subtypes and unknown classes return 0, which callers must
// treat as "unknown" rather than as a real distance.
func JumpPointDistance(class SpectralClass, subtype int) float64 {
	row, ok := jumpPointDistances[class]
	if !ok || subtype < 0 {
		return 0
	}
	if subtype > 8 {
		return row[jumpDistanceBeyond]
	}
	return row[subtype]
}

// HabitableZone returns the minimum and maximum habitable orbit distances in
// km. Combinations outside the tables return (0, 0).
func HabitableZone(class SpectralClass, subtype int) (float64, float64) {
	if subtype < 0 || subtype > MaxSubtype {
		return 0, 0
	}
	minRow, ok := minLifeZone[class]
	if !ok {
		return 0, 0
	}
	maxRow := maxLifeZone[class]
	return minRow[subtype], maxRow[subtype]
}
