package simulator

// Business hours: transactions fall in [08:00, 22:00).
const openingHour = 8

// Relative weight per hour starting at openingHour. Late morning and early
// evening are the peak periods.
var hourWeights = []float64{
	1.0, // 08
	1.2, // 09
	2.0, // 10
	2.0, // 11
	1.5, // 12
	1.2, // 13
	1.0, // 14
	1.0, // 15
	1.2, // 16
	2.0, // 17
	2.0, // 18
	1.8, // 19
	1.2, // 20
	1.0, // 21
}
